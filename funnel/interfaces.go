/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package funnel

import "context"

// Callback receives the final outcome of a request. err equals req.Error.
type Callback func(err error, req *Request)

// RateLimiter decides whether the caller of the request may issue a request right now.
// A non-nil error means the decision could not be made and is reported
// as ErrRateLimiterFailure, never as ErrTooManyRequests.
type RateLimiter interface {
	IsAllowed(ctx context.Context, req *Request) (bool, error)
}

// RightsChecker authorizes an admitted request before execution.
// A returned error is the request's own error.
type RightsChecker interface {
	Check(ctx context.Context, req *Request) error
}

// Executor runs the business handler of an admitted and authorized request.
type Executor interface {
	Run(ctx context.Context, req *Request) (interface{}, error)
}

// ConnectionChecker reports whether the connection a request came from is still alive.
type ConnectionChecker interface {
	IsConnectionAlive(connectionID string) bool
}

// RateLimiterFunc is an adapter to allow the use of ordinary functions as RateLimiter.
type RateLimiterFunc func(ctx context.Context, req *Request) (bool, error)

// IsAllowed implements RateLimiter.
func (f RateLimiterFunc) IsAllowed(ctx context.Context, req *Request) (bool, error) {
	return f(ctx, req)
}

// RightsCheckerFunc is an adapter to allow the use of ordinary functions as RightsChecker.
type RightsCheckerFunc func(ctx context.Context, req *Request) error

// Check implements RightsChecker.
func (f RightsCheckerFunc) Check(ctx context.Context, req *Request) error {
	return f(ctx, req)
}

// ExecutorFunc is an adapter to allow the use of ordinary functions as Executor.
type ExecutorFunc func(ctx context.Context, req *Request) (interface{}, error)

// Run implements Executor.
func (f ExecutorFunc) Run(ctx context.Context, req *Request) (interface{}, error) {
	return f(ctx, req)
}

// ConnectionCheckerFunc is an adapter to allow the use of ordinary functions as ConnectionChecker.
type ConnectionCheckerFunc func(connectionID string) bool

// IsConnectionAlive implements ConnectionChecker.
func (f ConnectionCheckerFunc) IsConnectionAlive(connectionID string) bool {
	return f(connectionID)
}
