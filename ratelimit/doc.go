/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package ratelimit provides rate limiting of Funnel requests.
//
// Three algorithms are available behind the Limiter interface:
// leaky bucket (GCRA, github.com/throttled/throttled/v2), sliding window (github.com/RussellLuo/slidingwindow)
// and token bucket (golang.org/x/time/rate). RequestLimiter extracts a caller key from a request
// (user identity, connection or a single global key), skips exempt controller:action pairs and implements
// funnel.RateLimiter on top of a Limiter.
package ratelimit
