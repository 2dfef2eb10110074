// Package cache provides a string-keyed LRU cache with single-flight
// load de-duplication, shared by the font and glyph tiers of the
// rendering engine.
package cache

import (
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// Stats is a point-in-time snapshot of a cache's state.
// Snapshots are advisory: they never block on in-flight loads and are
// not used for correctness decisions.
type Stats struct {
	Capacity int
	Entries  int
	Hits     uint64
	Misses   uint64
}

// Cache is a thread-safe LRU cache keyed by string.
//
// Lookups that miss run the supplied loader at most once per key across
// all concurrent callers (single-flight): callers that arrive while a
// load for the same key is in flight wait for that load instead of
// duplicating the work. This keeps redundant font parsing and
// rasterization off the hot path when many jobs reference the same
// resource at once.
//
// A capacity of zero disables the cache: every lookup runs a fresh
// load and nothing is retained. Values are plain references; evicting
// an entry only drops the cache's reference, so in-flight holders of an
// evicted value are unaffected.
type Cache[V any] struct {
	mu       sync.Mutex
	capacity int
	entries  map[string]*cacheEntry[V]
	lru      lruList

	group singleflight.Group

	// Statistics (atomic for non-blocking snapshots).
	hits   atomic.Uint64
	misses atomic.Uint64
}

// cacheEntry holds a cached value with its LRU node.
type cacheEntry[V any] struct {
	value V
	node  *lruNode
}

// New creates a cache holding at most capacity entries.
// A capacity of zero disables caching; negative capacities are treated
// as zero.
func New[V any](capacity int) *Cache[V] {
	if capacity < 0 {
		capacity = 0
	}
	return &Cache[V]{
		capacity: capacity,
		entries:  make(map[string]*cacheEntry[V]),
	}
}

// GetOrLoad returns the value for key, loading it if absent.
//
// On a hit the entry is promoted to most-recently-used. On a miss the
// loader runs under single-flight: at most one loader per key executes
// at a time, and concurrent callers for the same key share its result.
// A loader error is propagated to every waiter and nothing is inserted.
func (c *Cache[V]) GetOrLoad(key string, loader func() (V, error)) (V, error) {
	if v, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return v, nil
	}
	c.misses.Add(1)

	// Disabled tier: always a fresh load, no retention, no sharing.
	if c.Capacity() == 0 {
		return loader()
	}

	res, err, _ := c.group.Do(key, func() (any, error) {
		// A single-flight winner may have inserted the value between
		// our lookup above and this call.
		if v, ok := c.lookup(key); ok {
			return v, nil
		}
		v, err := loader()
		if err != nil {
			return nil, err
		}
		c.insert(key, v)
		return v, nil
	})
	if err != nil {
		var zero V
		return zero, err
	}
	return res.(V), nil
}

// Get returns the cached value for key without loading, promoting the
// entry to most-recently-used on a hit.
func (c *Cache[V]) Get(key string) (V, bool) {
	v, ok := c.lookup(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	return v, ok
}

// lookup reads an entry and promotes it, without touching counters.
func (c *Cache[V]) lookup(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	c.lru.MoveToFront(e.node)
	return e.value, true
}

// insert stores a value, evicting least-recently-used entries when the
// cache is over capacity. A zero-capacity cache inserts nothing.
func (c *Cache[V]) insert(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.capacity == 0 {
		return
	}

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.lru.MoveToFront(e.node)
		return
	}

	for c.lru.Len() >= c.capacity {
		oldest, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		delete(c.entries, oldest)
	}

	node := c.lru.PushFront(key)
	c.entries[key] = &cacheEntry[V]{value: value, node: node}
}

// SetCapacity changes the cache's capacity.
//
// Shrinking evicts least-recently-used entries down to n. Growing never
// evicts. Setting n to zero disables the cache and drops all entries.
// Safe to call concurrently with in-flight loads: entries currently
// held by a caller survive eviction until that caller releases them.
func (c *Cache[V]) SetCapacity(n int) {
	if n < 0 {
		n = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	c.capacity = n
	if n == 0 {
		c.entries = make(map[string]*cacheEntry[V])
		c.lru.Clear()
		return
	}
	for c.lru.Len() > n {
		oldest, ok := c.lru.RemoveOldest()
		if !ok {
			break
		}
		delete(c.entries, oldest)
	}
}

// Clear drops all entries without changing the capacity.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*cacheEntry[V])
	c.lru.Clear()
}

// Len returns the current number of entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the current capacity.
func (c *Cache[V]) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// Stats returns a point-in-time snapshot of the cache state.
// It never blocks on in-flight loads.
func (c *Cache[V]) Stats() Stats {
	c.mu.Lock()
	capacity := c.capacity
	entries := len(c.entries)
	c.mu.Unlock()

	return Stats{
		Capacity: capacity,
		Entries:  entries,
		Hits:     c.hits.Load(),
		Misses:   c.misses.Load(),
	}
}
