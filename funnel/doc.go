/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package funnel provides the request admission scheduler that every API request passes through
// after transport decoding and before business-logic execution.
//
// The Funnel bounds the number of concurrently executing requests, defers excess requests
// to a bounded FIFO queue and replays them in arrival order as capacity frees up,
// rejects requests of rate-limited callers, and drains in-flight and queued work on shutdown.
// BatchRunner applies the same admission discipline to operations that fan out
// into many sub-operations and aggregates their partial failures.
//
// Key features:
//   - Concurrency limit with a bounded pending queue ("reject newest when full")
//   - Sticky overload state cleared only when the pending queue is fully drained
//   - Rate-limited overload notifications
//   - Exactly-once completion callbacks
//   - Graceful drain (Accepting -> Draining -> Terminated)
//   - Prometheus metrics
package funnel
