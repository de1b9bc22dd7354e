// Package storage defines the server-side persistence contract implemented by
// concrete drivers. Drivers store ciphertext and routing metadata only; they
// are never aware of plaintext or keys.
package storage

import (
	"context"

	"github.com/iota-pi/flock-sub001/internal/model"
)

// AccountStore persists accounts and their credential hashes.
type AccountStore interface {
	// Create inserts a new account. Returns errs.ErrAlreadyExists on an id
	// collision so callers can retry allocation.
	Create(ctx context.Context, a *model.Account) error

	// Get loads an account by id. Returns errs.ErrNotFound if absent.
	Get(ctx context.Context, id string) (*model.Account, error)

	// UpdateSession replaces the stored session hash, invalidating the
	// previous session secret.
	UpdateSession(ctx context.Context, id string, sessionHash []byte) error

	// UpdateMetadata replaces the encrypted settings blob.
	UpdateMetadata(ctx context.Context, id, cipher, iv string) error
}

// FullScan requests every item regardless of modification time.
const FullScan int64 = -1

// ItemStore persists vault items keyed by (account, item).
type ItemStore interface {
	// Get returns a single item. Returns errs.ErrNotFound if absent.
	Get(ctx context.Context, account, item string) (*model.VaultItem, error)

	// Set performs an unconditional upsert: last writer wins, the whole
	// ciphertext is replaced.
	Set(ctx context.Context, it *model.VaultItem) error

	// Delete removes an item. Idempotent: deleting a missing item is not an
	// error.
	Delete(ctx context.Context, account, item string) error

	// FetchMany returns the items matching the given ids, skipping ids that
	// do not exist.
	FetchMany(ctx context.Context, account string, ids []string) ([]model.VaultItem, error)

	// FetchAll returns items with modified strictly greater than since,
	// ordered by modified ascending. Pass FullScan for a complete snapshot.
	FetchAll(ctx context.Context, account string, since int64) ([]model.VaultItem, error)
}

// SubscriptionStore persists plaintext push-delivery preferences.
type SubscriptionStore interface {
	// Get returns a subscription. Returns errs.ErrNotFound if absent.
	Get(ctx context.Context, account, id string) (*model.Subscription, error)

	// Set upserts a subscription.
	Set(ctx context.Context, sub *model.Subscription) error

	// Delete removes a subscription. Idempotent.
	Delete(ctx context.Context, account, id string) error
}

// Driver bundles the stores a server instance is built from.
type Driver struct {
	Accounts      AccountStore
	Items         ItemStore
	Subscriptions SubscriptionStore
}
