// Package model defines domain entities used by services and storage drivers.
package model

import "time"

// ItemType is the closed set of routing tags an item may carry. The tag is
// never sensitive: it only selects which client view renders the record.
type ItemType string

const (
	TypePerson  ItemType = "person"
	TypeGroup   ItemType = "group"
	TypeGeneral ItemType = "general"
	TypeMessage ItemType = "message"
)

// Valid reports whether t is one of the known tags.
func (t ItemType) Valid() bool {
	switch t {
	case TypePerson, TypeGroup, TypeGeneral, TypeMessage:
		return true
	}
	return false
}

func (t ItemType) String() string { return string(t) }

// ItemTypes lists all known tags, in routing order.
func ItemTypes() []ItemType {
	return []ItemType{TypePerson, TypeGroup, TypeGeneral, TypeMessage}
}

// Account is the encryption/ownership boundary: one key, one salt, one active
// session. Only hashes of the credential secrets are ever stored.
type Account struct {
	ID             string    // opaque short id, collision-checked random allocation
	Salt           string    // per-account KDF salt (base64), not secret
	AuthHash       []byte    // SHA-256 of the password-derived auth token
	SessionHash    []byte    // SHA-256 of the current session secret, replaced on every login
	MetadataCipher string    // encrypted settings blob (base64)
	MetadataIV     string    // nonce for the metadata blob (base64)
	CreatedAt      time.Time
}

// VaultItem is a single stored record: ciphertext plus unencrypted routing
// metadata. Writes replace the whole ciphertext; there are no partial updates.
type VaultItem struct {
	Account  string   `json:"account"`
	ID       string   `json:"id"`
	Cipher   string   `json:"cipher"`
	IV       string   `json:"iv"`
	Type     ItemType `json:"type"`
	Modified int64    `json:"modified"` // epoch ms, client-assigned
}

// ItemResult reports per-item success within a batch operation.
type ItemResult struct {
	Item    string `json:"item"`
	Success bool   `json:"success"`
}

// Subscription holds plaintext push-delivery preferences. Deliberately
// unencrypted: it contains no personal content.
type Subscription struct {
	Account  string `json:"-"`
	ID       string `json:"-"`
	Hours    []int  `json:"hours"`
	Timezone string `json:"timezone"`
	Token    string `json:"token"`
	Failures int    `json:"failures"`
}
