package sync

import "sync"

// Cache is the local decrypted item map plus the sync watermark. It is owned
// exclusively by the Engine and is a cache, never a source of truth.
type Cache struct {
	mu      sync.RWMutex
	records map[string]Record
	time    int64
	primed  bool
}

// NewCache constructs an empty cache with no watermark.
func NewCache() *Cache {
	return &Cache{records: map[string]Record{}}
}

// Time returns the current watermark, or nil before the first confirmed pull
// (which forces a full snapshot).
func (c *Cache) Time() *int64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if !c.primed {
		return nil
	}
	t := c.time
	return &t
}

// Advance raises the watermark. Never lowers it.
func (c *Cache) Advance(t int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.primed || t > c.time {
		c.time = t
	}
	c.primed = true
}

// Get returns a record by id.
func (c *Cache) Get(id string) (Record, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	rec, ok := c.records[id]
	return rec, ok
}

// Put stores a record, replacing any previous version.
func (c *Cache) Put(rec Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.records[rec.ID] = rec
}

// Remove drops a record after a confirmed delete.
func (c *Cache) Remove(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.records, id)
}

// All returns a snapshot of every cached record.
func (c *Cache) All() []Record {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]Record, 0, len(c.records))
	for _, rec := range c.records {
		out = append(out, rec)
	}
	return out
}

// Len reports the number of cached records.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.records)
}
