package sync

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/iota-pi/flock-sub001/internal/errs"
	"github.com/iota-pi/flock-sub001/internal/model"
)

// Engine drives the sync loop for one logged-in session. The core ordering
// invariant is write-then-confirm-then-advance: a pending local write is never
// clobbered by a pull, and the watermark only moves once the server has
// confirmed the data and every pulled record has decrypted.
type Engine struct {
	client  *Client
	session *Session
	cache   *Cache

	mu      sync.Mutex
	pending map[string]int64 // item id -> locally assigned modified, unconfirmed
}

// NewEngine constructs an engine over a logged-in client and its session.
func NewEngine(client *Client, session *Session) *Engine {
	return &Engine{
		client:  client,
		session: session,
		cache:   NewCache(),
		pending: map[string]int64{},
	}
}

// Cache exposes the engine's local cache for read access.
func (e *Engine) Cache() *Cache { return e.cache }

// Push encrypts each record independently and issues a batched write.
// Per-item success is first-class: the returned report covers every input
// record and the call fails wholesale only on a transport error. Records the
// server confirms are merged into the cache and cleared from pending.
func (e *Engine) Push(ctx context.Context, recs []Record) ([]model.ItemResult, error) {
	results := make([]model.ItemResult, len(recs))
	wire := make([]model.VaultItem, 0, len(recs))
	wireIdx := make([]int, 0, len(recs))

	for i, rec := range recs {
		results[i] = model.ItemResult{Item: rec.ID}
		it, err := e.session.EncryptRecord(rec)
		if err != nil {
			continue // reported as failed, siblings unaffected
		}
		wire = append(wire, it)
		wireIdx = append(wireIdx, i)
	}

	// Optimistic local write: the record lands in the cache immediately and is
	// tracked as pending until the server confirms it.
	e.mu.Lock()
	for _, i := range wireIdx {
		e.cache.Put(recs[i])
		e.pending[recs[i].ID] = recs[i].Modified
	}
	e.mu.Unlock()

	if len(wire) == 0 {
		return results, nil
	}

	details, err := e.client.PutItems(ctx, wire)
	if err != nil {
		// Transport failure: everything stays pending for a caller retry.
		return results, err
	}
	if len(details) != len(wire) {
		return results, fmt.Errorf("server returned %d details for %d items", len(details), len(wire))
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	for j, d := range details {
		i := wireIdx[j]
		results[i].Success = d.Success
		if !d.Success {
			continue
		}
		rec := recs[i]
		if p, ok := e.pending[rec.ID]; ok && p == rec.Modified {
			delete(e.pending, rec.ID)
		}
	}
	return results, nil
}

// Pull requests a full snapshot (first run) or an incremental delta, decrypts
// every returned item, merges into the cache, and only then advances the
// watermark. A single undecryptable item aborts the merge with the watermark
// untouched: silently advancing would permanently hide that item.
func (e *Engine) Pull(ctx context.Context) error {
	since := e.cache.Time()
	items, err := e.client.FetchItems(ctx, since, nil)
	if err != nil {
		return err
	}

	recs := make([]Record, len(items))
	for i, it := range items {
		rec, err := e.session.DecryptItem(it)
		if err != nil {
			if errors.Is(err, errs.ErrDecryption) || errors.Is(err, errs.ErrDeserialization) {
				return fmt.Errorf("item %s: %w", it.ID, err)
			}
			return err
		}
		recs[i] = rec
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	watermark := int64(0)
	if since != nil {
		watermark = *since
	}
	for _, rec := range recs {
		if rec.Modified > watermark {
			watermark = rec.Modified
		}
		// An unconfirmed local write at or past the server copy wins locally
		// until the server acknowledges it.
		if p, ok := e.pending[rec.ID]; ok && p >= rec.Modified {
			continue
		}
		e.cache.Put(rec)
	}
	e.cache.Advance(watermark)
	return nil
}

// Delete issues a batched delete with the same partial-failure reporting
// contract as Push. Confirmed ids leave the cache and the pending set.
func (e *Engine) Delete(ctx context.Context, ids []string) ([]model.ItemResult, error) {
	details, err := e.client.DeleteItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, d := range details {
		if d.Success {
			e.cache.Remove(d.Item)
			delete(e.pending, d.Item)
		}
	}
	return details, nil
}

// Flush retries the batch write for every pending record still in the cache.
// Used on teardown as a best-effort save; a failure here is reported, not
// retried.
func (e *Engine) Flush(ctx context.Context) ([]model.ItemResult, error) {
	e.mu.Lock()
	recs := make([]Record, 0, len(e.pending))
	for id := range e.pending {
		if rec, ok := e.cache.Get(id); ok {
			recs = append(recs, rec)
		}
	}
	e.mu.Unlock()
	if len(recs) == 0 {
		return nil, nil
	}
	return e.Push(ctx, recs)
}
