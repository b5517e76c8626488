/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"fmt"

	"github.com/acronis/go-funnel/lrucache"
)

// keysStore returns a per-key state, creating it on the first access.
// Least recently used keys are evicted when the store is full.
type keysStore[T any] struct {
	cache  *lrucache.LRUCache[string, T]
	single T
	newFn  func() T
}

// newKeysStore creates a store for maxKeys keys. Zero maxKeys means all keys share a single state.
func newKeysStore[T any](maxKeys int, newFn func() T, metrics lrucache.MetricsCollector) (*keysStore[T], error) {
	if maxKeys == 0 {
		return &keysStore[T]{single: newFn(), newFn: newFn}, nil
	}
	cache, err := lrucache.New[string, T](maxKeys, metrics)
	if err != nil {
		return nil, fmt.Errorf("new LRU in-memory store for keys: %w", err)
	}
	return &keysStore[T]{cache: cache, newFn: newFn}, nil
}

func (s *keysStore[T]) get(key string) T {
	if s.cache == nil {
		return s.single
	}
	val, _ := s.cache.GetOrAdd(key, s.newFn)
	return val
}

func (s *keysStore[T]) len() int {
	if s.cache == nil {
		return 1
	}
	return s.cache.Len()
}
