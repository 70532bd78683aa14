// Package cache provides a thread-safe LRU cache of compiled expressions keyed
// by source text.
//
// A session recompiles the same few formulas over and over as the user edits
// and reverts the input; caching avoids re-parsing them. Failed compilations
// are never cached.
//
// # Example
//
//	c := cache.New(64)
//	expr, err := c.GetOrCompile("z^2", func() (*types.Expression, error) {
//	    return parser.Compile("z^2")
//	})
package cache

import (
	"container/list"
	"sync"

	"github.com/imagicomplex/imagicomplex/pkg/types"
)

// DefaultCapacity is used when New is given a non-positive capacity.
const DefaultCapacity = 256

// entry is a cache entry stored in the doubly-linked list.
type entry struct {
	key  string
	expr *types.Expression
}

// Stats reports cache effectiveness.
type Stats struct {
	Hits      uint64 `json:"hits" yaml:"hits"`
	Misses    uint64 `json:"misses" yaml:"misses"`
	Evictions uint64 `json:"evictions" yaml:"evictions"`
}

// Cache is a thread-safe LRU (Least Recently Used) cache for compiled expressions.
// Once the capacity is reached, the least recently accessed entry is evicted.
type Cache struct {
	mu       sync.Mutex
	capacity int
	ll       *list.List
	items    map[string]*list.Element
	stats    Stats
}

// New creates a new LRU cache with the given capacity.
func New(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Cache{
		capacity: capacity,
		ll:       list.New(),
		items:    make(map[string]*list.Element, capacity),
	}
}

// Get returns the expression compiled from source and marks it most recently used.
func (c *Cache) Get(source string) (*types.Expression, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[source]
	if !ok {
		c.stats.Misses++
		return nil, false
	}
	c.stats.Hits++
	c.ll.MoveToFront(el)
	return el.Value.(*entry).expr, true
}

// Set inserts or replaces the expression for source.
func (c *Cache) Set(source string, expr *types.Expression) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[source]; ok {
		el.Value.(*entry).expr = expr
		c.ll.MoveToFront(el)
		return
	}

	if c.ll.Len() >= c.capacity {
		c.evictLocked()
	}

	c.items[source] = c.ll.PushFront(&entry{key: source, expr: expr})
}

// GetOrCompile returns the cached expression for source or calls compile and
// caches its result. Errors are returned as-is and not cached.
func (c *Cache) GetOrCompile(source string, compile func() (*types.Expression, error)) (*types.Expression, error) {
	if expr, ok := c.Get(source); ok {
		return expr, nil
	}
	expr, err := compile()
	if err != nil {
		return nil, err
	}
	c.Set(source, expr)
	return expr, nil
}

// Len returns the number of entries currently in the cache.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Capacity returns the maximum number of entries the cache can hold.
func (c *Cache) Capacity() int {
	return c.capacity
}

// Stats returns a snapshot of the hit, miss and eviction counters.
func (c *Cache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}

// Invalidate removes the entry for source.
func (c *Cache) Invalidate(source string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[source]; ok {
		c.ll.Remove(el)
		delete(c.items, source)
	}
}

// Clear removes all entries. Counters are kept.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element, c.capacity)
}

// evictLocked removes the least recently used entry.
// Must be called with c.mu held.
func (c *Cache) evictLocked() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	c.ll.Remove(el)
	delete(c.items, el.Value.(*entry).key)
	c.stats.Evictions++
}
