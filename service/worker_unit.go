/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package service

import (
	"context"
	"errors"
	"sync"
	"time"
)

// ErrWorkerStopTimeoutExceeded is returned by WorkerUnit.Stop when the worker does not return in time.
var ErrWorkerStopTimeoutExceeded = errors.New("worker stop timeout exceeded")

// Worker performs long-running work until its context is canceled.
type Worker interface {
	Run(ctx context.Context) error
}

// WorkerFunc is an adapter to allow the use of ordinary functions as Worker.
type WorkerFunc func(ctx context.Context) error

// Run implements Worker.
func (f WorkerFunc) Run(ctx context.Context) error {
	return f(ctx)
}

// WorkerUnitOpts contains optional parameters for WorkerUnit.
type WorkerUnitOpts struct {
	// StopTimeout bounds waiting for Run to return on graceful stop. Zero means no limit.
	StopTimeout time.Duration
}

// WorkerUnit presents Worker as Unit. Start blocks while the worker runs.
type WorkerUnit struct {
	worker Worker
	opts   WorkerUnitOpts

	ctx       context.Context
	ctxCancel context.CancelFunc
	done      chan struct{}
	startOnce sync.Once
}

var _ Unit = (*WorkerUnit)(nil)

// NewWorkerUnit creates a new instance of WorkerUnit.
func NewWorkerUnit(worker Worker, opts WorkerUnitOpts) *WorkerUnit {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerUnit{worker: worker, opts: opts, ctx: ctx, ctxCancel: cancel, done: make(chan struct{})}
}

// Start runs the worker. An error returned by the worker is reported as fatal.
func (u *WorkerUnit) Start(fatalErr chan<- error) {
	u.startOnce.Do(func() {
		defer close(u.done)
		if err := u.worker.Run(u.ctx); err != nil && !errors.Is(err, context.Canceled) {
			fatalErr <- err
		}
	})
}

// Stop cancels the worker's context and, if gracefully, waits until Run returns.
func (u *WorkerUnit) Stop(gracefully bool) error {
	u.ctxCancel()
	u.startOnce.Do(func() { close(u.done) }) // never started
	if !gracefully {
		return nil
	}
	var timeout <-chan time.Time
	if u.opts.StopTimeout > 0 {
		t := time.NewTimer(u.opts.StopTimeout)
		defer t.Stop()
		timeout = t.C
	}
	select {
	case <-u.done:
		return nil
	case <-timeout:
		return ErrWorkerStopTimeoutExceeded
	}
}
