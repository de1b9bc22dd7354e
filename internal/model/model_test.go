package model

import "testing"

func TestItemTypeValid(t *testing.T) {
	for _, typ := range ItemTypes() {
		if !typ.Valid() {
			t.Errorf("%s reported invalid", typ)
		}
	}
	for _, typ := range []ItemType{"", "contact", "Person", "person "} {
		if typ.Valid() {
			t.Errorf("%q reported valid", string(typ))
		}
	}
}
