package replay

import (
	"context"
	"sync"
	"time"
)

// MemoryGuard is an in-process Guard for tests and local development.
// Expired entries are pruned lazily on access; there is no janitor goroutine
// because consumed nonce volumes in a single process are negligible.
type MemoryGuard struct {
	mu   sync.Mutex
	used map[string]time.Time
}

// NewMemoryGuard creates an empty in-memory guard.
func NewMemoryGuard() *MemoryGuard {
	return &MemoryGuard{used: make(map[string]time.Time)}
}

// CheckAndConsume implements Guard.
func (g *MemoryGuard) CheckAndConsume(_ context.Context, purpose, nonce string, ttl time.Duration) error {
	if nonce == "" {
		return ErrEmptyNonce
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	key := purpose + ":" + nonce
	now := time.Now()

	g.mu.Lock()
	defer g.mu.Unlock()

	if expiry, ok := g.used[key]; ok && expiry.After(now) {
		return ErrAlreadyUsed
	}
	g.used[key] = now.Add(ttl)

	// Drop whatever else already expired while the lock is held.
	for k, expiry := range g.used {
		if !expiry.After(now) {
			delete(g.used, k)
		}
	}

	return nil
}
