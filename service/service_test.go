/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-funnel/log/logtest"
)

type mockUnit struct {
	name     string
	startErr error
	stopLog  *stopLog

	mu                      sync.Mutex
	started                 bool
	stopCalled              int
	stopGracefullyCalled    int
	registerMetricsCalled   int
	unregisterMetricsCalled int
}

type stopLog struct {
	mu    sync.Mutex
	names []string
}

func (sl *stopLog) add(name string) {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	sl.names = append(sl.names, name)
}

func (sl *stopLog) get() []string {
	sl.mu.Lock()
	defer sl.mu.Unlock()
	return append([]string(nil), sl.names...)
}

func (u *mockUnit) Start(fatalErr chan<- error) {
	if u.startErr != nil {
		fatalErr <- u.startErr
		return
	}
	u.mu.Lock()
	u.started = true
	u.mu.Unlock()
}

func (u *mockUnit) Stop(gracefully bool) error {
	u.mu.Lock()
	u.stopCalled++
	if gracefully {
		u.stopGracefullyCalled++
	}
	u.mu.Unlock()
	if u.stopLog != nil {
		u.stopLog.add(u.name)
	}
	return nil
}

func (u *mockUnit) MustRegisterMetrics() {
	u.mu.Lock()
	u.registerMetricsCalled++
	u.mu.Unlock()
}

func (u *mockUnit) UnregisterMetrics() {
	u.mu.Lock()
	u.unregisterMetricsCalled++
	u.mu.Unlock()
}

func (u *mockUnit) isStarted() bool {
	u.mu.Lock()
	defer u.mu.Unlock()
	return u.started
}

func TestService_StartStopBySignal(t *testing.T) {
	unit := &mockUnit{name: "funnel"}
	svc := New(logtest.NewRecorder(), unit)

	done := make(chan error, 1)
	go func() { done <- svc.Start() }()
	require.Eventually(t, unit.isStarted, time.Second*3, time.Millisecond*10)

	svc.Signals <- os.Interrupt

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second * 3):
		t.Fatal("service was not stopped")
	}
	require.Equal(t, 1, unit.registerMetricsCalled)
	require.Equal(t, 1, unit.unregisterMetricsCalled)
	require.Equal(t, 1, unit.stopGracefullyCalled)
}

func TestService_StartContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	unit := &mockUnit{name: "funnel"}
	svc := New(logtest.NewRecorder(), unit)

	done := make(chan error, 1)
	go func() { done <- svc.StartContext(ctx) }()
	require.Eventually(t, unit.isStarted, time.Second*3, time.Millisecond*10)

	cancel()

	require.NoError(t, <-done)
	require.Equal(t, 1, unit.stopGracefullyCalled)
}

func TestService_FatalError(t *testing.T) {
	startErr := errors.New("listen failed")
	logRecorder := logtest.NewRecorder()
	svc := New(logRecorder, &mockUnit{name: "admin", startErr: startErr})

	err := svc.Start()
	require.ErrorIs(t, err, startErr)
	_, found := logRecorder.FindEntry("service fatal error")
	require.True(t, found)
}

func TestCompositeUnit_StopInReverseOrder(t *testing.T) {
	sl := &stopLog{}
	first := &mockUnit{name: "admin", stopLog: sl}
	second := &mockUnit{name: "funnel", stopLog: sl}
	cu := NewCompositeUnit(first, second)

	fatalErr := make(chan error, 1)
	cu.Start(fatalErr)
	require.Len(t, fatalErr, 0)

	cu.MustRegisterMetrics()
	require.Equal(t, 1, first.registerMetricsCalled)
	require.Equal(t, 1, second.registerMetricsCalled)

	require.NoError(t, cu.Stop(true))
	require.Equal(t, []string{"funnel", "admin"}, sl.get())
}

func TestCompositeUnit_StartFailure(t *testing.T) {
	startErr := errors.New("listen failed")
	ok := &mockUnit{name: "funnel"}
	cu := NewCompositeUnit(ok, &mockUnit{name: "admin", startErr: startErr})

	fatalErr := make(chan error, 1)
	cu.Start(fatalErr)

	err := <-fatalErr
	var cuErr *CompositeUnitError
	require.ErrorAs(t, err, &cuErr)
	require.ErrorIs(t, err, startErr)
	require.Equal(t, 1, ok.stopCalled)
	require.Equal(t, 0, ok.stopGracefullyCalled)
}
