/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package retry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/acronis/go-funnel/funnel"
)

func TestDoWithRetry(t *testing.T) {
	errTransient := errors.New("transient")
	errPersistent := errors.New("persistent")
	isRetryable := func(err error) bool { return errors.Is(err, errTransient) }

	t.Run("retried until success", func(t *testing.T) {
		attempts := 0
		var notified []error
		err := DoWithRetry(context.Background(), NewConstantBackoffPolicy(time.Millisecond, 5), isRetryable,
			func(err error, _ time.Duration) { notified = append(notified, err) },
			func(context.Context) error {
				attempts++
				if attempts < 3 {
					return errTransient
				}
				return nil
			})
		require.NoError(t, err)
		require.Equal(t, 3, attempts)
		require.Equal(t, []error{errTransient, errTransient}, notified)
	})

	t.Run("persistent error is not retried", func(t *testing.T) {
		attempts := 0
		err := DoWithRetry(context.Background(), NewConstantBackoffPolicy(time.Millisecond, 5), isRetryable, nil,
			func(context.Context) error {
				attempts++
				return errPersistent
			})
		require.ErrorIs(t, err, errPersistent)
		require.Equal(t, 1, attempts)
	})

	t.Run("max attempts", func(t *testing.T) {
		attempts := 0
		err := DoWithRetry(context.Background(), NewExponentialBackoffPolicy(time.Millisecond, 2), nil, nil,
			func(context.Context) error {
				attempts++
				return errTransient
			})
		require.ErrorIs(t, err, errTransient)
		require.Equal(t, 3, attempts)
	})
}

func TestIsRetryableRejection(t *testing.T) {
	require.True(t, IsRetryableRejection(funnel.NewError(funnel.ErrOverloaded, "")))
	require.True(t, IsRetryableRejection(funnel.NewError(funnel.ErrTooManyRequests, "")))
	require.False(t, IsRetryableRejection(funnel.NewError(funnel.ErrShuttingDown, "")))
	require.False(t, IsRetryableRejection(funnel.NewError(funnel.ErrMissingArgument, "")))
	require.False(t, IsRetryableRejection(errors.New("unexpected")))
}

func TestProcess(t *testing.T) {
	attempts := atomic.NewInt32(0)
	f, err := funnel.New(nil, funnel.Opts{
		Executor: funnel.ExecutorFunc(func(context.Context, *funnel.Request) (interface{}, error) {
			return "created", nil
		}),
		RateLimiter: funnel.RateLimiterFunc(func(context.Context, *funnel.Request) (bool, error) {
			return attempts.Inc() > 2, nil
		}),
	})
	require.NoError(t, err)

	req, err := Process(context.Background(), f, NewConstantBackoffPolicy(time.Millisecond, 5), nil,
		func() *funnel.Request { return funnel.NewRequest("document", "create") })
	require.NoError(t, err)
	require.Equal(t, "created", req.Result)
	require.Equal(t, int32(3), attempts.Load())

	f.Shutdown()
	_, err = Process(context.Background(), f, NewConstantBackoffPolicy(time.Millisecond, 5), nil,
		func() *funnel.Request { return funnel.NewRequest("document", "create") })
	require.ErrorIs(t, err, funnel.ErrShuttingDown)
}
