package limiter

import (
	"context"
	"sync"
	"time"
)

type memEntry struct {
	fails        int
	blockedUntil time.Time
	updatedAt    time.Time
}

// Memory is an in-process limiter used in dev mode and tests. Same sliding
// window and lockout semantics as the postgres implementation.
type Memory struct {
	mu       sync.Mutex
	entries  map[string]*memEntry
	window   time.Duration
	maxFails int
	blockFor time.Duration
}

// NewMemory constructs an in-process limiter.
func NewMemory(window time.Duration, maxFails int, blockFor time.Duration) *Memory {
	return &Memory{
		entries:  map[string]*memEntry{},
		window:   window,
		maxFails: maxFails,
		blockFor: blockFor,
	}
}

func memKey(account string, ipHash []byte) string {
	return account + "\x00" + string(ipHash)
}

// Allow reports whether login is currently allowed.
func (l *Memory) Allow(_ context.Context, account string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e, ok := l.entries[memKey(account, ipHash)]
	if !ok {
		return true, 0, nil
	}
	if e.blockedUntil.After(time.Now()) {
		return false, time.Until(e.blockedUntil), nil
	}
	return true, 0, nil
}

// Success resets counters for (account, ip).
func (l *Memory) Success(_ context.Context, account string, ipHash []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.entries, memKey(account, ipHash))
	return nil
}

// Failure records a failed attempt; may place a temporary block.
func (l *Memory) Failure(_ context.Context, account string, ipHash []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := time.Now()
	k := memKey(account, ipHash)
	e, ok := l.entries[k]
	if !ok || now.Sub(e.updatedAt) > l.window {
		e = &memEntry{}
		l.entries[k] = e
	}
	e.fails++
	e.updatedAt = now
	if e.fails >= l.maxFails {
		e.blockedUntil = now.Add(l.blockFor)
		return true, l.blockFor, nil
	}
	return false, 0, nil
}
