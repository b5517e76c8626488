/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/time/rate"
)

// TokenBucketLimiter implements token bucket rate limiting algorithm.
// The bucket holds maxBurst+1 tokens and is refilled at the given rate.
type TokenBucketLimiter struct {
	store *keysStore[*rate.Limiter]
}

// NewTokenBucketLimiter creates a new token bucket rate limiter.
// maxKeys bounds the number of tracked keys, zero means a single bucket for all keys.
func NewTokenBucketLimiter(maxRate Rate, maxBurst, maxKeys int) (*TokenBucketLimiter, error) {
	return NewTokenBucketLimiterWithOpts(maxRate, maxBurst, maxKeys, LimiterOpts{})
}

// NewTokenBucketLimiterWithOpts creates a new token bucket rate limiter with the provided options.
func NewTokenBucketLimiterWithOpts(maxRate Rate, maxBurst, maxKeys int, opts LimiterOpts) (*TokenBucketLimiter, error) {
	if maxRate.Count <= 0 || maxRate.Duration <= 0 {
		return nil, fmt.Errorf("invalid rate %q", maxRate.String())
	}
	limit := rate.Every(maxRate.Duration / time.Duration(maxRate.Count))
	store, err := newKeysStore(maxKeys, func() *rate.Limiter {
		return rate.NewLimiter(limit, maxBurst+1)
	}, opts.KeysMetrics)
	if err != nil {
		return nil, err
	}
	return &TokenBucketLimiter{store: store}, nil
}

// Allow checks if the request should be allowed based on the rate limit.
func (l *TokenBucketLimiter) Allow(_ context.Context, key string) (allow bool, retryAfter time.Duration, err error) {
	now := time.Now()
	reservation := l.store.get(key).ReserveN(now, 1)
	if !reservation.OK() {
		return false, 0, nil
	}
	if delay := reservation.DelayFrom(now); delay > 0 {
		reservation.CancelAt(now)
		return false, delay, nil
	}
	return true, 0, nil
}
