/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWorkerUnit(t *testing.T) {
	t.Run("graceful stop waits for worker", func(t *testing.T) {
		stopped := make(chan struct{})
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			<-ctx.Done()
			time.Sleep(50 * time.Millisecond)
			close(stopped)
			return ctx.Err()
		}), WorkerUnitOpts{})

		fatalErr := make(chan error, 1)
		go unit.Start(fatalErr)
		time.Sleep(10 * time.Millisecond)

		require.NoError(t, unit.Stop(true))
		select {
		case <-stopped:
		default:
			require.Fail(t, "worker must be stopped before Stop returns")
		}
		require.Empty(t, fatalErr)
	})

	t.Run("stop timeout", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			<-release
			return nil
		}), WorkerUnitOpts{StopTimeout: 20 * time.Millisecond})

		go unit.Start(make(chan error, 1))
		time.Sleep(10 * time.Millisecond)
		require.ErrorIs(t, unit.Stop(true), ErrWorkerStopTimeoutExceeded)
	})

	t.Run("worker error is fatal", func(t *testing.T) {
		errWorker := errors.New("worker failed")
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			return errWorker
		}), WorkerUnitOpts{})

		fatalErr := make(chan error, 1)
		unit.Start(fatalErr)
		require.ErrorIs(t, <-fatalErr, errWorker)
		require.NoError(t, unit.Stop(true))
	})

	t.Run("stop without start", func(t *testing.T) {
		var called bool
		unit := NewWorkerUnit(WorkerFunc(func(ctx context.Context) error {
			called = true
			return nil
		}), WorkerUnitOpts{})

		require.NoError(t, unit.Stop(true))
		unit.Start(make(chan error, 1))
		require.False(t, called)
	})
}
