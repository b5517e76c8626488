/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/RussellLuo/slidingwindow"
)

// SlidingWindowLimiter implements sliding window rate limiting algorithm.
type SlidingWindowLimiter struct {
	store   *keysStore[*slidingwindow.Limiter]
	maxRate Rate
}

// NewSlidingWindowLimiter creates a new sliding window rate limiter.
// maxKeys bounds the number of tracked keys, zero means a single window for all keys.
func NewSlidingWindowLimiter(maxRate Rate, maxKeys int) (*SlidingWindowLimiter, error) {
	return NewSlidingWindowLimiterWithOpts(maxRate, maxKeys, LimiterOpts{})
}

// NewSlidingWindowLimiterWithOpts creates a new sliding window rate limiter with the provided options.
func NewSlidingWindowLimiterWithOpts(maxRate Rate, maxKeys int, opts LimiterOpts) (*SlidingWindowLimiter, error) {
	if maxRate.Count <= 0 || maxRate.Duration <= 0 {
		return nil, fmt.Errorf("invalid rate %q", maxRate.String())
	}
	newWindow := func() (slidingwindow.Window, slidingwindow.StopFunc) {
		return slidingwindow.NewLocalWindow()
	}
	// Local windows never fail, so the error is checked once here and not for every key.
	if _, err := slidingwindow.NewLimiter(maxRate.Duration, int64(maxRate.Count), newWindow); err != nil {
		return nil, fmt.Errorf("new sliding window: %w", err)
	}
	store, err := newKeysStore(maxKeys, func() *slidingwindow.Limiter {
		lim, _ := slidingwindow.NewLimiter(maxRate.Duration, int64(maxRate.Count), newWindow)
		return lim
	}, opts.KeysMetrics)
	if err != nil {
		return nil, err
	}
	return &SlidingWindowLimiter{store: store, maxRate: maxRate}, nil
}

// Allow checks if the request should be allowed based on the rate limit.
func (l *SlidingWindowLimiter) Allow(_ context.Context, key string) (allow bool, retryAfter time.Duration, err error) {
	if l.store.get(key).Allow() {
		return true, 0, nil
	}
	now := time.Now()
	retryAfter = now.Truncate(l.maxRate.Duration).Add(l.maxRate.Duration).Sub(now)
	return false, retryAfter, nil
}
