/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package funnel

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-funnel/testutil"
)

func TestUnit_Stop(t *testing.T) {
	t.Run("graceful stop waits for pending requests", func(t *testing.T) {
		executor := newGatedExecutor()
		f, err := New(newTestConfig(1, 10), Opts{Executor: executor})
		require.NoError(t, err)
		unit := NewUnit(f, UnitOpts{})
		unit.Start(nil)

		reqA, gateA := newGatedRequest("a")
		f.Execute(context.Background(), reqA, nil)
		testutil.RequireReceive(t, executor.started, waitTimeout)

		stopErr := make(chan error, 1)
		go func() { stopErr <- unit.Stop(true) }()
		testutil.RequireNoReceive(t, stopErr, 50*time.Millisecond)
		require.Equal(t, StateDraining, f.State())

		close(gateA)
		require.NoError(t, testutil.RequireReceive(t, stopErr, waitTimeout))
		require.Equal(t, StateTerminated, f.State())
	})

	t.Run("graceful stop is bounded by drain timeout", func(t *testing.T) {
		executor := newGatedExecutor()
		f, err := New(newTestConfig(1, 10), Opts{Executor: executor})
		require.NoError(t, err)
		unit := NewUnit(f, UnitOpts{DrainTimeout: 50 * time.Millisecond})

		reqA, gateA := newGatedRequest("a")
		defer close(gateA)
		f.Execute(context.Background(), reqA, nil)
		testutil.RequireReceive(t, executor.started, waitTimeout)

		require.ErrorIs(t, unit.Stop(true), ErrDrainTimeoutExceeded)
		require.Equal(t, StateDraining, f.State())
	})

	t.Run("non-graceful stop does not wait", func(t *testing.T) {
		executor := newGatedExecutor()
		f, err := New(newTestConfig(1, 10), Opts{Executor: executor})
		require.NoError(t, err)
		unit := NewUnit(f, UnitOpts{})

		reqA, gateA := newGatedRequest("a")
		defer close(gateA)
		f.Execute(context.Background(), reqA, nil)
		testutil.RequireReceive(t, executor.started, waitTimeout)

		require.NoError(t, unit.Stop(false))
		require.Equal(t, StateDraining, f.State())
	})
}

func TestUnit_Metrics(t *testing.T) {
	metrics := NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{Namespace: "unit_test"})
	f, err := New(nil, Opts{Executor: newGatedExecutor(), Metrics: metrics})
	require.NoError(t, err)
	unit := NewUnit(f, UnitOpts{Metrics: metrics})

	unit.MustRegisterMetrics()
	unit.UnregisterMetrics()
	require.NotPanics(t, func() {
		unit.MustRegisterMetrics()
		unit.UnregisterMetrics()
	})
}
