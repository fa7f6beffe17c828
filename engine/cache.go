package engine

import (
	"container/list"
	"sync"
)

// DefaultCacheSize bounds the compiled-pattern cache.
const DefaultCacheSize = 1000

// Cache maps resolved regex literals to compiled patterns with bounded
// least-recently-used eviction. Literals that fail to parse are never
// cached.
type Cache struct {
	mu       sync.Mutex
	capacity int
	order    *list.List // front is most recently used
	entries  map[string]*list.Element

	hits      uint64
	misses    uint64
	evictions uint64
}

type cacheEntry struct {
	key      string
	compiled *Compiled
}

// NewCache returns a cache holding at most capacity patterns. A capacity of
// zero or less falls back to DefaultCacheSize.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		capacity: capacity,
		order:    list.New(),
		entries:  make(map[string]*list.Element),
	}
}

// Get returns the compiled form of a resolved regex literal, compiling and
// caching it on first use. A hit refreshes the entry to most-recently-used.
// It returns nil when the literal does not parse; failures are not cached.
func (c *Cache) Get(literal string) *Compiled {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[literal]; ok {
		c.hits++
		c.order.MoveToFront(el)
		return el.Value.(*cacheEntry).compiled
	}

	c.misses++
	compiled, err := Compile(literal)
	if err != nil {
		return nil
	}
	if c.order.Len() >= c.capacity {
		oldest := c.order.Back()
		if oldest != nil {
			c.order.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
			c.evictions++
		}
	}
	c.entries[literal] = c.order.PushFront(&cacheEntry{key: literal, compiled: compiled})
	return compiled
}

// Clear empties the cache. Used when external data that patterns might
// reference changes in ways that invalidate assumptions.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.order.Init()
	c.entries = make(map[string]*list.Element)
}

// CacheStats is a point-in-time snapshot of cache activity.
type CacheStats struct {
	Size      int    `json:"size"`
	Capacity  int    `json:"capacity"`
	Hits      uint64 `json:"hits"`
	Misses    uint64 `json:"misses"`
	Evictions uint64 `json:"evictions"`
}

// Stats reports current cache usage.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Size:      len(c.entries),
		Capacity:  c.capacity,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
