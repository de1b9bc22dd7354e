package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/model"
	"github.com/iota-pi/flock-sub001/internal/storage"
)

// ItemService defines operations over encrypted vault items.
type ItemService interface {
	// Get returns a single item by id.
	Get(ctx context.Context, account, id string) (*model.VaultItem, error)
	// Set validates and upserts a single item (last writer wins).
	Set(ctx context.Context, it *model.VaultItem) error
	// Delete removes a single item. Idempotent.
	Delete(ctx context.Context, account, id string) error
	// SetBatch upserts items concurrently, reporting per-item success. The
	// call itself never fails because one item failed.
	SetBatch(ctx context.Context, account string, items []model.VaultItem) []model.ItemResult
	// DeleteBatch deletes items concurrently with the same reporting contract.
	DeleteBatch(ctx context.Context, account string, ids []string) []model.ItemResult
	// Fetch returns specific items when ids are given, otherwise a full or
	// incremental scan by the since watermark.
	Fetch(ctx context.Context, account string, since *int64, ids []string) ([]model.VaultItem, error)
}

type ItemServiceImpl struct {
	items    storage.ItemStore
	maxBatch int
}

// NewItemService constructs ItemService with batch limits.
func NewItemService(items storage.ItemStore, maxBatch int) *ItemServiceImpl {
	if maxBatch <= 0 {
		maxBatch = 1000
	}
	return &ItemServiceImpl{items: items, maxBatch: maxBatch}
}

// validateItem rejects unknown type tags and structurally empty records at
// the boundary; nothing invalid is ever stored.
func validateItem(it *model.VaultItem) error {
	if it.ID == "" {
		return fmt.Errorf("%w: empty item id", errs.ErrValidation)
	}
	if !it.Type.Valid() {
		return fmt.Errorf("%w: %q", errs.ErrInvalidType, string(it.Type))
	}
	if it.Cipher == "" || it.IV == "" {
		return fmt.Errorf("%w: empty cipher/iv", errs.ErrValidation)
	}
	if it.Modified < 0 {
		return fmt.Errorf("%w: negative modified", errs.ErrValidation)
	}
	return nil
}

// Get fetches a single item by id.
func (s *ItemServiceImpl) Get(ctx context.Context, account, id string) (*model.VaultItem, error) {
	if account == "" || id == "" {
		return nil, fmt.Errorf("%w: empty account/id", errs.ErrValidation)
	}
	return s.items.Get(ctx, account, id)
}

// Set validates and upserts one item.
func (s *ItemServiceImpl) Set(ctx context.Context, it *model.VaultItem) error {
	if it.Account == "" {
		return fmt.Errorf("%w: empty account", errs.ErrValidation)
	}
	if err := validateItem(it); err != nil {
		return err
	}
	return s.items.Set(ctx, it)
}

// Delete removes one item; deleting a missing item is not an error.
func (s *ItemServiceImpl) Delete(ctx context.Context, account, id string) error {
	if account == "" || id == "" {
		return fmt.Errorf("%w: empty account/id", errs.ErrValidation)
	}
	return s.items.Delete(ctx, account, id)
}

// SetBatch stores each item independently and concurrently. One item's
// failure cannot block or abort its siblings.
func (s *ItemServiceImpl) SetBatch(ctx context.Context, account string, items []model.VaultItem) []model.ItemResult {
	results := make([]model.ItemResult, len(items))
	if len(items) > s.maxBatch {
		for i := range items {
			results[i] = model.ItemResult{Item: items[i].ID}
		}
		return results
	}
	var wg sync.WaitGroup
	for i := range items {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			it := items[i]
			it.Account = account
			err := s.Set(ctx, &it)
			results[i] = model.ItemResult{Item: it.ID, Success: err == nil}
		}(i)
	}
	wg.Wait()
	return results
}

// DeleteBatch deletes each id independently and concurrently.
func (s *ItemServiceImpl) DeleteBatch(ctx context.Context, account string, ids []string) []model.ItemResult {
	results := make([]model.ItemResult, len(ids))
	var wg sync.WaitGroup
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			err := s.Delete(ctx, account, ids[i])
			results[i] = model.ItemResult{Item: ids[i], Success: err == nil}
		}(i)
	}
	wg.Wait()
	return results
}

// Fetch dispatches between the exact-id batch read and the watermark scan.
// since is nil for a full snapshot; otherwise only items with modified
// strictly greater than since are returned.
func (s *ItemServiceImpl) Fetch(ctx context.Context, account string, since *int64, ids []string) ([]model.VaultItem, error) {
	if account == "" {
		return nil, fmt.Errorf("%w: empty account", errs.ErrValidation)
	}
	if len(ids) > 0 {
		return s.items.FetchMany(ctx, account, ids)
	}
	cursor := storage.FullScan
	if since != nil {
		if *since < 0 {
			return nil, fmt.Errorf("%w: negative since", errs.ErrValidation)
		}
		cursor = *since
	}
	return s.items.FetchAll(ctx, account, cursor)
}
