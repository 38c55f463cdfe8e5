package capture

// cache.go holds the read-through snapshot cache for catalog, history and
// limit reads.
//
// The three datasets change rarely within a capture session and are always
// consumed together, so they are loaded and expire as one snapshot. The
// clock is injectable for tests. Invalidate is called after every
// successful commit: starting-odometer resolution must never reuse a
// pre-commit history snapshot.

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// Snapshot is one consistent read of the reference datasets.
type Snapshot struct {
	Catalog []Vehicle
	History map[string]float64 // unit → max recorded ending odometer
	Limits  LimitTable
}

// SnapshotLoader fetches a fresh snapshot from the backing store.
type SnapshotLoader func(ctx context.Context) (*Snapshot, error)

// SnapshotCache is a read-through cache with TTL expiry and explicit
// invalidation.
type SnapshotCache struct {
	load SnapshotLoader
	ttl  time.Duration
	now  func() time.Time

	mu       sync.Mutex
	snap     *Snapshot
	loadedAt time.Time
}

// NewSnapshotCache creates a cache over the given loader. A nil now
// function defaults to time.Now; a non-positive ttl disables caching
// (every Get reloads).
func NewSnapshotCache(load SnapshotLoader, ttl time.Duration, now func() time.Time) *SnapshotCache {
	if now == nil {
		now = time.Now
	}
	return &SnapshotCache{load: load, ttl: ttl, now: now}
}

// Get returns the cached snapshot, reloading it when absent or expired.
func (c *SnapshotCache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.snap != nil && c.ttl > 0 && c.now().Sub(c.loadedAt) < c.ttl {
		return c.snap, nil
	}

	snap, err := c.load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	c.snap = snap
	c.loadedAt = c.now()
	return snap, nil
}

// Invalidate drops the cached snapshot so the next Get reloads.
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}
