/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"context"
	"fmt"

	"github.com/vasayxtx/go-glob"

	"github.com/acronis/go-funnel/funnel"
	"github.com/acronis/go-funnel/log"
)

// KeyType is a type of the key by which requests are rate limited.
type KeyType string

// Key types.
const (
	// KeyTypeNoKey means that all requests share a single limit.
	KeyTypeNoKey KeyType = ""

	// KeyTypeIdentity limits requests per authenticated user, falling back to the connection for anonymous ones.
	KeyTypeIdentity KeyType = "identity"

	// KeyTypeConnection limits requests per client connection.
	KeyTypeConnection KeyType = "connection"
)

// RequestLimiterOpts represents options for RequestLimiter.
type RequestLimiterOpts struct {
	// KeyType determines the key by which requests are rate limited.
	KeyType KeyType

	// Exempt is a list of "controller:action" glob patterns (e.g. "server:*") of requests that are never limited.
	Exempt []string

	// ExcludedKeys is a list of key glob patterns (e.g. "admin-*") that are never limited.
	ExcludedKeys []string

	Logger log.FieldLogger
}

// RequestLimiter implements funnel.RateLimiter on top of a Limiter.
type RequestLimiter struct {
	limiter      Limiter
	keyType      KeyType
	exempt       []func(s string) bool
	excludedKeys []func(s string) bool
	logger       log.FieldLogger
}

var _ funnel.RateLimiter = (*RequestLimiter)(nil)

// NewRequestLimiter creates a new RequestLimiter.
func NewRequestLimiter(limiter Limiter, opts RequestLimiterOpts) (*RequestLimiter, error) {
	switch opts.KeyType {
	case KeyTypeNoKey, KeyTypeIdentity, KeyTypeConnection:
	default:
		return nil, fmt.Errorf("unknown key type %q", opts.KeyType)
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	return &RequestLimiter{
		limiter:      limiter,
		keyType:      opts.KeyType,
		exempt:       compileGlobs(opts.Exempt),
		excludedKeys: compileGlobs(opts.ExcludedKeys),
		logger:       opts.Logger,
	}, nil
}

// IsAllowed checks whether the caller of the request may issue a request right now.
// A Limiter failure is returned as an error and never as a denial.
func (rl *RequestLimiter) IsAllowed(ctx context.Context, req *funnel.Request) (bool, error) {
	if matchAny(rl.exempt, req.Input.Controller+":"+req.Input.Action) {
		return true, nil
	}

	key, bypass := rl.getKey(req)
	if bypass {
		return true, nil
	}

	allow, retryAfter, err := rl.limiter.Allow(ctx, key)
	if err != nil {
		return false, fmt.Errorf("rate limit request by key %q: %w", key, err)
	}
	if !allow {
		rl.logger.Debug("request is rate limited",
			log.String("request_id", req.InternalID),
			log.String("rate_limit_key", key),
			log.Duration("retry_after", retryAfter))
	}
	return allow, nil
}

func (rl *RequestLimiter) getKey(req *funnel.Request) (key string, bypass bool) {
	switch rl.keyType {
	case KeyTypeIdentity:
		key = req.CallerKey()
	case KeyTypeConnection:
		key = req.Context.ConnectionID
	default:
		return "", false
	}
	if key == "" {
		return "", true
	}
	return key, matchAny(rl.excludedKeys, key)
}

func compileGlobs(patterns []string) []func(s string) bool {
	compiled := make([]func(s string) bool, 0, len(patterns))
	for _, pattern := range patterns {
		compiled = append(compiled, glob.Compile(pattern))
	}
	return compiled
}

func matchAny(matchers []func(s string) bool, s string) bool {
	for i := range matchers {
		if matchers[i](s) {
			return true
		}
	}
	return false
}
