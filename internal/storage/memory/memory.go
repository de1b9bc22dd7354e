// Package memory provides an in-memory storage driver. It backs the dev mode
// of the server and the service/transport tests; it honors the same contract
// as the postgres driver, including strict since comparison and idempotent
// deletes.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/model"
	"github.com/iota-pi/flock-sub001/internal/storage"
)

type itemKey struct{ account, id string }

// Store holds all in-memory state behind a single lock.
type Store struct {
	mu            sync.RWMutex
	accounts      map[string]model.Account
	items         map[itemKey]model.VaultItem
	subscriptions map[itemKey]model.Subscription
}

// New constructs an empty store.
func New() *Store {
	return &Store{
		accounts:      map[string]model.Account{},
		items:         map[itemKey]model.VaultItem{},
		subscriptions: map[itemKey]model.Subscription{},
	}
}

// Driver exposes the store as a storage.Driver.
func (s *Store) Driver() storage.Driver {
	return storage.Driver{
		Accounts:      &Accounts{s: s},
		Items:         &Items{s: s},
		Subscriptions: &Subscriptions{s: s},
	}
}

// Accounts implements storage.AccountStore over a Store.
type Accounts struct{ s *Store }

func (r *Accounts) Create(_ context.Context, a *model.Account) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.accounts[a.ID]; ok {
		return errs.ErrAlreadyExists
	}
	cpy := *a
	if cpy.CreatedAt.IsZero() {
		cpy.CreatedAt = time.Now()
	}
	r.s.accounts[a.ID] = cpy
	return nil
}

func (r *Accounts) Get(_ context.Context, id string) (*model.Account, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := a
	return &cpy, nil
}

func (r *Accounts) UpdateSession(_ context.Context, id string, sessionHash []byte) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return errs.ErrNotFound
	}
	a.SessionHash = append([]byte(nil), sessionHash...)
	r.s.accounts[id] = a
	return nil
}

func (r *Accounts) UpdateMetadata(_ context.Context, id, cipher, iv string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return errs.ErrNotFound
	}
	a.MetadataCipher, a.MetadataIV = cipher, iv
	r.s.accounts[id] = a
	return nil
}

// Items implements storage.ItemStore over a Store.
type Items struct{ s *Store }

func (r *Items) Get(_ context.Context, account, item string) (*model.VaultItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	it, ok := r.s.items[itemKey{account, item}]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := it
	return &cpy, nil
}

func (r *Items) Set(_ context.Context, it *model.VaultItem) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.items[itemKey{it.Account, it.ID}] = *it
	return nil
}

func (r *Items) Delete(_ context.Context, account, item string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.items, itemKey{account, item})
	return nil
}

func (r *Items) FetchMany(_ context.Context, account string, ids []string) ([]model.VaultItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.VaultItem{}
	for _, id := range ids {
		if it, ok := r.s.items[itemKey{account, id}]; ok {
			out = append(out, it)
		}
	}
	sortByModified(out)
	return out, nil
}

func (r *Items) FetchAll(_ context.Context, account string, since int64) ([]model.VaultItem, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := []model.VaultItem{}
	for k, it := range r.s.items {
		if k.account == account && it.Modified > since {
			out = append(out, it)
		}
	}
	sortByModified(out)
	return out, nil
}

// Subscriptions implements storage.SubscriptionStore over a Store.
type Subscriptions struct{ s *Store }

func (r *Subscriptions) Get(_ context.Context, account, id string) (*model.Subscription, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	sub, ok := r.s.subscriptions[itemKey{account, id}]
	if !ok {
		return nil, errs.ErrNotFound
	}
	cpy := sub
	return &cpy, nil
}

func (r *Subscriptions) Set(_ context.Context, sub *model.Subscription) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.subscriptions[itemKey{sub.Account, sub.ID}] = *sub
	return nil
}

func (r *Subscriptions) Delete(_ context.Context, account, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	delete(r.s.subscriptions, itemKey{account, id})
	return nil
}

func sortByModified(items []model.VaultItem) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].Modified != items[j].Modified {
			return items[i].Modified < items[j].Modified
		}
		return items[i].ID < items[j].ID
	})
}
