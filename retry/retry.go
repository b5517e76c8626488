/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/acronis/go-funnel/funnel"
)

// IsRetryable defines a func that can tell if error is retryable as opposed to persistent.
type IsRetryable func(error) bool

// RetryableFunc is function that does some work and can be potentially retried.
type RetryableFunc func(ctx context.Context) error

// Notify is called on every retry with the error and the delay before the next attempt.
type Notify func(err error, delay time.Duration)

// DoWithRetry executes fn with retry according to policy p and with respect to context ctx.
// isRetryable defines which errors lead to retry attempt (can be nil for any error).
// notify can be nil if no notifications required.
func DoWithRetry(ctx context.Context, p Policy, isRetryable IsRetryable, notify Notify, fn RetryableFunc) error {
	bctx := backoff.WithContext(p.NewBackOff(), ctx)
	op := func() error {
		err := fn(bctx.Context())
		if err != nil && isRetryable != nil && !isRetryable(err) {
			return backoff.Permanent(err)
		}
		return err
	}
	return backoff.RetryNotify(op, bctx, backoff.Notify(notify))
}

// IsRetryableRejection reports whether the Funnel rejected the request for a transient reason:
// the pending queue was full or the caller exceeded the rate limit.
// Shutdown, malformed request and dropped connection are persistent.
func IsRetryableRejection(err error) bool {
	return errors.Is(err, funnel.ErrOverloaded) || errors.Is(err, funnel.ErrTooManyRequests)
}

// Process submits requests built by newRequest to the Funnel until one is not rejected with a retryable error.
// Every attempt uses a fresh request since a rejected one is already completed.
func Process(
	ctx context.Context, f *funnel.Funnel, p Policy, notify Notify, newRequest func() *funnel.Request,
) (*funnel.Request, error) {
	var req *funnel.Request
	err := DoWithRetry(ctx, p, IsRetryableRejection, notify, func(ctx context.Context) error {
		var processErr error
		req, processErr = f.Process(ctx, newRequest())
		return processErr
	})
	return req, err
}
