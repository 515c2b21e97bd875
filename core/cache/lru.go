package cache

import (
	"container/list"
	"math"
	"sync"
	"time"
)

// DefaultMaxSize is the capacity used when none is configured.
const DefaultMaxSize = 1000

// Stats is a point-in-time snapshot of cache effectiveness counters.
type Stats struct {
	Size           int     `json:"size"`
	MaxSize        int     `json:"max_size"`
	Hits           uint64  `json:"hits"`
	Misses         uint64  `json:"misses"`
	HitRatePercent float64 `json:"hit_rate_percent"`
}

// LRUCache is a thread-safe, size-limited cache with least-recently-used
// eviction and per-entry TTL. All operations share a single mutex; the lock
// is held for the full check-then-act sequence so concurrent Get/Set on the
// same key cannot race.
type LRUCache[K comparable, V any] struct {
	mu         sync.Mutex
	capacity   int
	defaultTTL time.Duration
	ll         *list.List
	items      map[K]*list.Element
	hits       uint64
	misses     uint64
	now        func() time.Time
	onEvict    func(K, V)
}

// entry is the list payload. A zero expiresAt means the entry never expires.
type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time
}

// LRUOption configures an LRUCache.
type LRUOption[K comparable, V any] func(*LRUCache[K, V])

// WithDefaultTTL sets the TTL applied by Set. Zero or negative means entries
// never expire unless given an explicit TTL.
func WithDefaultTTL[K comparable, V any](ttl time.Duration) LRUOption[K, V] {
	return func(c *LRUCache[K, V]) {
		c.defaultTTL = ttl
	}
}

// WithEvictCallback registers a callback invoked when an entry is removed by
// capacity eviction or expiry. The callback runs while the cache lock is
// held; keep it short.
func WithEvictCallback[K comparable, V any](fn func(K, V)) LRUOption[K, V] {
	return func(c *LRUCache[K, V]) {
		c.onEvict = fn
	}
}

// WithClock overrides the time source. Intended for TTL tests.
func WithClock[K comparable, V any](now func() time.Time) LRUOption[K, V] {
	return func(c *LRUCache[K, V]) {
		if now != nil {
			c.now = now
		}
	}
}

// NewLRUCache creates a cache holding at most capacity entries.
// Non-positive capacity falls back to DefaultMaxSize.
func NewLRUCache[K comparable, V any](capacity int, opts ...LRUOption[K, V]) *LRUCache[K, V] {
	if capacity <= 0 {
		capacity = DefaultMaxSize
	}

	c := &LRUCache[K, V]{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[K]*list.Element),
		now:      time.Now,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Get returns the value for key if present and unexpired, marking the entry
// most recently used. An expired entry is removed and counted as a miss.
func (c *LRUCache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V

	el, ok := c.items[key]
	if !ok {
		c.misses++
		return zero, false
	}

	ent := el.Value.(*entry[K, V])
	if c.expired(ent) {
		c.removeElement(el, true)
		c.misses++
		return zero, false
	}

	c.ll.MoveToFront(el)
	c.hits++
	return ent.value, true
}

// Set inserts or replaces the entry for key using the cache-wide default TTL.
func (c *LRUCache[K, V]) Set(key K, value V) {
	c.SetWithTTL(key, value, 0)
}

// SetWithTTL inserts or replaces the entry for key. A non-positive ttl falls
// back to the default TTL. The entry is marked most recently used; if the
// cache exceeds capacity afterwards, least-recently-used entries are evicted.
func (c *LRUCache[K, V]) SetWithTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if ttl <= 0 {
		ttl = c.defaultTTL
	}

	var expiresAt time.Time
	if ttl > 0 {
		expiresAt = c.now().Add(ttl)
	}

	if el, ok := c.items[key]; ok {
		ent := el.Value.(*entry[K, V])
		ent.value = value
		ent.expiresAt = expiresAt
		c.ll.MoveToFront(el)
		return
	}

	el := c.ll.PushFront(&entry[K, V]{key: key, value: value, expiresAt: expiresAt})
	c.items[key] = el

	for c.ll.Len() > c.capacity {
		if oldest := c.ll.Back(); oldest != nil {
			c.removeElement(oldest, true)
		}
	}
}

// Remove deletes the entry for key and returns its value if it was present.
func (c *LRUCache[K, V]) Remove(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var zero V

	el, ok := c.items[key]
	if !ok {
		return zero, false
	}

	ent := el.Value.(*entry[K, V])
	c.removeElement(el, false)
	return ent.value, true
}

// Clear empties the cache. Statistics counters are preserved.
func (c *LRUCache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.ll.Init()
	c.items = make(map[K]*list.Element)
}

// CleanupExpired proactively removes all currently-expired entries and
// returns the number removed. O(n) in the current size; intended to be
// driven by a periodic janitor, not required for correctness.
func (c *LRUCache[K, V]) CleanupExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for el := c.ll.Front(); el != nil; {
		next := el.Next()
		if c.expired(el.Value.(*entry[K, V])) {
			c.removeElement(el, true)
			removed++
		}
		el = next
	}
	return removed
}

// Len returns the current number of entries, including not-yet-collected
// expired ones.
func (c *LRUCache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.ll.Len()
}

// Cap returns the configured capacity.
func (c *LRUCache[K, V]) Cap() int {
	return c.capacity
}

// Stats returns a snapshot of size and hit/miss counters. The hit rate is
// reported as a percentage rounded to two decimals, and as 0 when no
// operations have occurred.
func (c *LRUCache[K, V]) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	var hitRate float64
	if total := c.hits + c.misses; total > 0 {
		hitRate = math.Round(float64(c.hits)/float64(total)*100*100) / 100
	}

	return Stats{
		Size:           c.ll.Len(),
		MaxSize:        c.capacity,
		Hits:           c.hits,
		Misses:         c.misses,
		HitRatePercent: hitRate,
	}
}

func (c *LRUCache[K, V]) expired(ent *entry[K, V]) bool {
	return !ent.expiresAt.IsZero() && c.now().After(ent.expiresAt)
}

// removeElement must be called with the lock held.
func (c *LRUCache[K, V]) removeElement(el *list.Element, evicted bool) {
	ent := el.Value.(*entry[K, V])
	c.ll.Remove(el)
	delete(c.items, ent.key)

	if evicted && c.onEvict != nil {
		c.onEvict(ent.key, ent.value)
	}
}
