/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package lrucache

import (
	"fmt"
	"sync"

	lru "github.com/hashicorp/golang-lru"
)

// LRUCache is a fixed-size cache that evicts the least recently used entry when it is full.
// Hits, misses, evictions and the number of entries are reported to MetricsCollector.
type LRUCache[K comparable, V any] struct {
	mu      sync.Mutex
	cache   *lru.Cache
	metrics MetricsCollector
}

// New creates a new LRUCache for at most maxEntries entries.
// metrics may be nil, in this case metrics are disabled.
func New[K comparable, V any](maxEntries int, metrics MetricsCollector) (*LRUCache[K, V], error) {
	if maxEntries <= 0 {
		return nil, fmt.Errorf("maxEntries must be greater than 0")
	}
	cache, err := lru.New(maxEntries)
	if err != nil {
		return nil, err
	}
	if metrics == nil {
		metrics = disabledMetrics{}
	}
	return &LRUCache[K, V]{cache: cache, metrics: metrics}, nil
}

// Get returns the value stored by the key and marks the entry as recently used.
func (c *LRUCache[K, V]) Get(key K) (value V, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.get(key)
}

// Add stores the value by the key. The least recently used entry is evicted if the cache is full.
func (c *LRUCache[K, V]) Add(key K, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.add(key, value)
}

// GetOrAdd returns the value stored by the key.
// If there is no such entry, the value is created by valueProvider and stored.
// valueProvider is called at most once.
func (c *LRUCache[K, V]) GetOrAdd(key K, valueProvider func() V) (value V, exists bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if value, exists = c.get(key); exists {
		return value, true
	}
	value = valueProvider()
	c.add(key, value)
	return value, false
}

// Remove deletes the entry by the key and reports whether it was present.
func (c *LRUCache[K, V]) Remove(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	present := c.cache.Remove(key)
	c.metrics.SetAmount(c.cache.Len())
	return present
}

// Purge deletes all entries. Deleted entries are not counted as evictions.
func (c *LRUCache[K, V]) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cache.Purge()
	c.metrics.SetAmount(0)
}

// Len returns the number of entries in the cache.
func (c *LRUCache[K, V]) Len() int {
	return c.cache.Len()
}

func (c *LRUCache[K, V]) get(key K) (value V, ok bool) {
	val, hit := c.cache.Get(key)
	if !hit {
		c.metrics.IncMisses()
		return value, false
	}
	c.metrics.IncHits()
	return val.(V), true
}

func (c *LRUCache[K, V]) add(key K, value V) {
	if evicted := c.cache.Add(key, value); evicted {
		c.metrics.AddEvictions(1)
	}
	c.metrics.SetAmount(c.cache.Len())
}
