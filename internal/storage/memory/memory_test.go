package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/model"
	"github.com/iota-pi/flock-sub001/internal/storage"
)

func TestAccountLifecycle(t *testing.T) {
	ctx := context.Background()
	d := New().Driver()

	a := &model.Account{
		ID:          "acc-1",
		Salt:        "salt",
		AuthHash:    []byte("auth"),
		SessionHash: []byte("sess"),
	}
	if err := d.Accounts.Create(ctx, a); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := d.Accounts.Create(ctx, a); !errors.Is(err, errs.ErrAlreadyExists) {
		t.Errorf("duplicate create: err = %v, want ErrAlreadyExists", err)
	}

	got, err := d.Accounts.Get(ctx, "acc-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Salt != "salt" || got.CreatedAt.IsZero() {
		t.Errorf("got %+v", got)
	}
	if _, err := d.Accounts.Get(ctx, "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing account: err = %v", err)
	}

	if err := d.Accounts.UpdateSession(ctx, "acc-1", []byte("sess2")); err != nil {
		t.Fatalf("UpdateSession: %v", err)
	}
	got, _ = d.Accounts.Get(ctx, "acc-1")
	if string(got.SessionHash) != "sess2" {
		t.Errorf("session hash = %q", got.SessionHash)
	}
	if err := d.Accounts.UpdateSession(ctx, "missing", []byte("x")); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("update missing: err = %v", err)
	}

	if err := d.Accounts.UpdateMetadata(ctx, "acc-1", "mc", "mi"); err != nil {
		t.Fatalf("UpdateMetadata: %v", err)
	}
	got, _ = d.Accounts.Get(ctx, "acc-1")
	if got.MetadataCipher != "mc" || got.MetadataIV != "mi" {
		t.Errorf("metadata = (%q, %q)", got.MetadataCipher, got.MetadataIV)
	}
}

func TestAccountGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	d := New().Driver()
	_ = d.Accounts.Create(ctx, &model.Account{ID: "acc-1", Salt: "salt"})

	got, _ := d.Accounts.Get(ctx, "acc-1")
	got.Salt = "mutated"
	again, _ := d.Accounts.Get(ctx, "acc-1")
	if again.Salt != "salt" {
		t.Error("caller mutation leaked into the store")
	}
}

func putItem(t *testing.T, items storage.ItemStore, account, id string, modified int64) {
	t.Helper()
	err := items.Set(context.Background(), &model.VaultItem{
		Account:  account,
		ID:       id,
		Cipher:   "c-" + id,
		IV:       "i-" + id,
		Type:     model.TypeGeneral,
		Modified: modified,
	})
	if err != nil {
		t.Fatalf("Set %s: %v", id, err)
	}
}

func TestItemUpsertAndDelete(t *testing.T) {
	ctx := context.Background()
	d := New().Driver()

	putItem(t, d.Items, "acc", "id-1", 100)
	putItem(t, d.Items, "acc", "id-1", 200)

	got, err := d.Items.Get(ctx, "acc", "id-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Modified != 200 {
		t.Errorf("modified = %d, want the upsert to replace", got.Modified)
	}

	if err := d.Items.Delete(ctx, "acc", "id-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := d.Items.Delete(ctx, "acc", "id-1"); err != nil {
		t.Errorf("repeat delete: %v", err)
	}
	if _, err := d.Items.Get(ctx, "acc", "id-1"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("after delete: err = %v", err)
	}
}

func TestItemFetchAllStrictSince(t *testing.T) {
	ctx := context.Background()
	d := New().Driver()
	putItem(t, d.Items, "acc", "a", 10)
	putItem(t, d.Items, "acc", "b", 20)
	putItem(t, d.Items, "acc", "c", 30)
	putItem(t, d.Items, "other", "d", 40)

	got, err := d.Items.FetchAll(ctx, "acc", 20)
	if err != nil {
		t.Fatalf("FetchAll: %v", err)
	}
	if len(got) != 1 || got[0].ID != "c" {
		t.Errorf("since=20: got %+v, want only c", got)
	}

	full, err := d.Items.FetchAll(ctx, "acc", storage.FullScan)
	if err != nil {
		t.Fatalf("FetchAll full: %v", err)
	}
	if len(full) != 3 {
		t.Fatalf("full scan: got %d items", len(full))
	}
	for i := 1; i < len(full); i++ {
		if full[i-1].Modified > full[i].Modified {
			t.Errorf("results not ordered by modified: %+v", full)
		}
	}
}

func TestItemFetchMany(t *testing.T) {
	ctx := context.Background()
	d := New().Driver()
	putItem(t, d.Items, "acc", "a", 2)
	putItem(t, d.Items, "acc", "b", 1)

	got, err := d.Items.FetchMany(ctx, "acc", []string{"a", "b", "missing"})
	if err != nil {
		t.Fatalf("FetchMany: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d items, want 2", len(got))
	}
	if got[0].ID != "b" || got[1].ID != "a" {
		t.Errorf("not ordered by modified: %+v", got)
	}
}

func TestSubscriptionStore(t *testing.T) {
	ctx := context.Background()
	d := New().Driver()

	sub := &model.Subscription{Account: "acc", ID: "sub-1", Hours: []int{8}, Timezone: "UTC", Token: "tok"}
	if err := d.Subscriptions.Set(ctx, sub); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := d.Subscriptions.Get(ctx, "acc", "sub-1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Token != "tok" {
		t.Errorf("got %+v", got)
	}
	if _, err := d.Subscriptions.Get(ctx, "acc", "missing"); !errors.Is(err, errs.ErrNotFound) {
		t.Errorf("missing: err = %v", err)
	}
	if err := d.Subscriptions.Delete(ctx, "acc", "sub-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := d.Subscriptions.Delete(ctx, "acc", "sub-1"); err != nil {
		t.Errorf("repeat delete: %v", err)
	}
}
