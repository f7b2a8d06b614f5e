package reconcile

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// SnapshotCache caches the last built snapshot with a TTL and collapses
// concurrent rebuilds into one. It is an explicitly constructed component
// passed to its callers; there is no process-wide instance, so tests can
// run isolated caches against temp directories.
type SnapshotCache struct {
	src Sources
	ttl time.Duration

	mu   sync.RWMutex
	snap *Snapshot
	sf   singleflight.Group
}

// NewSnapshotCache creates a cache over the given sources. A zero TTL
// disables caching: every Get rebuilds.
func NewSnapshotCache(src Sources, ttl time.Duration) *SnapshotCache {
	return &SnapshotCache{src: src, ttl: ttl}
}

// Get returns the cached snapshot, rebuilding when expired or absent.
// Concurrent callers share a single rebuild.
func (c *SnapshotCache) Get(ctx context.Context) (*Snapshot, error) {
	c.mu.RLock()
	snap := c.snap
	c.mu.RUnlock()

	if snap != nil && !snap.IsExpired() {
		return snap, nil
	}

	v, err, _ := c.sf.Do("snapshot", func() (any, error) {
		// Another waiter may have refreshed while we queued.
		c.mu.RLock()
		cur := c.snap
		c.mu.RUnlock()
		if cur != nil && !cur.IsExpired() {
			return cur, nil
		}

		built, err := BuildSnapshot(ctx, c.src)
		if err != nil {
			return nil, err
		}
		built.TTL = c.ttl

		c.mu.Lock()
		c.snap = built
		c.mu.Unlock()
		return built, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Snapshot), nil
}

// Invalidate drops the cached snapshot. Called after every mutating
// operation so the next read reflects the new state; readers that raced
// the mutation simply see the previous pass (last reconciliation wins).
func (c *SnapshotCache) Invalidate() {
	c.mu.Lock()
	c.snap = nil
	c.mu.Unlock()
}

func newSnapshot(fs map[string]FSEntry, script map[string]ScriptEntry, index map[string]IndexEntry) *Snapshot {
	return &Snapshot{
		FS:     fs,
		Script: script,
		Index:  index,
		Built:  time.Now(),
	}
}
