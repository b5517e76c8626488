/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package lrucache provides a typed LRU cache with Prometheus metrics.
// It is used to bound per-key state, such as rate limiting windows and buckets kept for every caller.
package lrucache
