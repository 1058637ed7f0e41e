// Package cache provides a bounded, expiring cache for upstream lookups.
package cache

import (
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Observer is told about every lookup. name identifies the cache.
type Observer func(name string, hit bool)

// Stats counts lookups since creation.
type Stats struct {
	Hits   uint64 `json:"hits"`
	Misses uint64 `json:"misses"`
	Items  int    `json:"items"`
}

// TTLCache is an LRU cache whose entries also expire after a fixed TTL.
// It is safe for concurrent use.
type TTLCache[K comparable, V any] struct {
	name    string
	lru     *expirable.LRU[K, V]
	observe Observer

	hits   atomic.Uint64
	misses atomic.Uint64
}

// NewTTLCache creates a cache holding at most maxItems entries for ttl each.
// maxItems <= 0 means unbounded; ttl <= 0 means entries never expire.
// observe may be nil.
func NewTTLCache[K comparable, V any](name string, ttl time.Duration, maxItems int, observe Observer) *TTLCache[K, V] {
	if maxItems < 0 {
		maxItems = 0
	}
	return &TTLCache[K, V]{
		name:    name,
		lru:     expirable.NewLRU[K, V](maxItems, nil, ttl),
		observe: observe,
	}
}

// Get returns the cached value for key.
func (c *TTLCache[K, V]) Get(key K) (V, bool) {
	v, ok := c.lru.Get(key)
	if ok {
		c.hits.Add(1)
	} else {
		c.misses.Add(1)
	}
	if c.observe != nil {
		c.observe(c.name, ok)
	}
	return v, ok
}

// Set stores value under key, evicting the least recently used entry when full.
func (c *TTLCache[K, V]) Set(key K, value V) {
	c.lru.Add(key, value)
}

// Delete removes key.
func (c *TTLCache[K, V]) Delete(key K) {
	c.lru.Remove(key)
}

// Count returns the number of live entries.
func (c *TTLCache[K, V]) Count() int {
	return c.lru.Len()
}

// Clear drops every entry.
func (c *TTLCache[K, V]) Clear() {
	c.lru.Purge()
}

// Name returns the cache name given at construction.
func (c *TTLCache[K, V]) Name() string {
	return c.name
}

// Stats returns lookup counters.
func (c *TTLCache[K, V]) Stats() Stats {
	return Stats{
		Hits:   c.hits.Load(),
		Misses: c.misses.Load(),
		Items:  c.lru.Len(),
	}
}
