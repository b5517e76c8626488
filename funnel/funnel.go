/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package funnel

import (
	"context"
	"fmt"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/acronis/go-funnel/log"
)

// State is a state of the Funnel lifecycle.
type State int

// Funnel states. Transitions go only forward: Accepting -> Draining -> Terminated.
const (
	StateAccepting State = iota
	StateDraining
	StateTerminated
)

// String returns a string representation of the state.
func (s State) String() string {
	switch s {
	case StateAccepting:
		return "accepting"
	case StateDraining:
		return "draining"
	case StateTerminated:
		return "terminated"
	default:
		return fmt.Sprintf("unknown(%d)", int(s))
	}
}

// Stats is a snapshot of the Funnel runtime state.
type Stats struct {
	ConcurrentRequests int
	PendingRequests    int
	RemainingRequests  int
	Overloaded         bool
	ShuttingDown       bool
}

// Opts represents options for the Funnel.
type Opts struct {
	// Executor runs admitted requests. Required.
	Executor Executor

	// RightsChecker authorizes admitted requests before execution. Nil allows everything.
	RightsChecker RightsChecker

	// RateLimiter is asked before admission. Nil allows everything.
	RateLimiter RateLimiter

	// ConnectionChecker reports liveness of client connections. Nil treats every connection as alive.
	ConnectionChecker ConnectionChecker

	Logger  log.FieldLogger
	Metrics MetricsCollector

	// OnOverload is called when the Funnel enters the overloaded state,
	// at most once per Config.OverloadWarningInterval.
	OnOverload func()

	// OnTerminate is called exactly once when the Funnel is drained after Shutdown.
	OnTerminate func()
}

// Funnel is a request-admission scheduler.
// It bounds the number of concurrently executed requests, defers excess ones to a bounded FIFO queue,
// replays them as capacity frees up, applies rate limiting and drains pending work on shutdown.
type Funnel struct {
	cfg Config

	executor          Executor
	rightsChecker     RightsChecker
	rateLimiter       RateLimiter
	connectionChecker ConnectionChecker
	logger            log.FieldLogger
	metrics           MetricsCollector
	onOverload        func()
	onTerminate       func()

	mu              sync.Mutex
	concurrent      int
	remaining       int
	queue           *pendingQueue
	overloaded      bool
	lastWarningTime time.Time
	shuttingDown    bool
	drained         bool
	// completing counts finished requests whose callbacks are running. Their slots are free,
	// but queued items are not replayed into them until the callbacks return.
	completing int
	// resumers are parents of running batches waiting to get their slots back.
	resumers []chan struct{}

	terminated *atomic.Bool
	done       chan struct{}
}

// New creates a new Funnel.
func New(cfg *Config, opts Opts) (*Funnel, error) {
	if cfg == nil {
		cfg = NewDefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	if opts.Executor == nil {
		return nil, fmt.Errorf("executor is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.NewDisabledLogger()
	}
	if opts.Metrics == nil {
		opts.Metrics = disabledMetrics{}
	}
	return &Funnel{
		cfg:               *cfg,
		executor:          opts.Executor,
		rightsChecker:     opts.RightsChecker,
		rateLimiter:       opts.RateLimiter,
		connectionChecker: opts.ConnectionChecker,
		logger:            opts.Logger,
		metrics:           opts.Metrics,
		onOverload:        opts.OnOverload,
		onTerminate:       opts.OnTerminate,
		queue:             newPendingQueue(),
		terminated:        atomic.NewBool(false),
		done:              make(chan struct{}),
	}, nil
}

// Config returns a copy of the Funnel configuration.
func (f *Funnel) Config() Config {
	return f.cfg
}

// Execute admits the request and eventually calls cb with its outcome.
//
// The request is rejected right away if its connection is gone, the Funnel is shutting down,
// the request is malformed, the rate limiter denies it or the pending queue is full.
// Otherwise, it is executed immediately or queued until capacity frees up.
// cb is called exactly once, except when the same request is already waiting in the queue:
// such a re-submission is ignored.
//
// ctx is used for the rate limiter call and is passed (without its cancellation) to RightsChecker and Executor.
func (f *Funnel) Execute(ctx context.Context, req *Request, cb Callback) {
	if f.isQueued(req) {
		return
	}
	callback := newOnceCallback(cb)

	if !f.isConnectionAlive(req) {
		f.reject(req, NewError(ErrConnectionDropped, ""), RejectReasonConnectionDropped, callback)
		return
	}

	if f.isShuttingDown() {
		f.reject(req, NewError(ErrShuttingDown, ""), RejectReasonShuttingDown, callback)
		return
	}

	if err := req.validate(); err != nil {
		f.reject(req, err, RejectReasonBadRequest, callback)
		return
	}

	if f.rateLimiter != nil {
		allowed, err := f.rateLimiter.IsAllowed(ctx, req)
		if err != nil {
			f.logger.Error("rate limiter failed, request is rejected",
				log.String("request_id", req.InternalID), log.Error(err))
			f.reject(req, WrapError(ErrRateLimiterFailure, err), RejectReasonRateLimiterFailure, callback)
			return
		}
		if !allowed {
			f.reject(req, NewError(ErrTooManyRequests, ""), RejectReasonRateLimited, callback)
			return
		}
	}

	f.admit(&pendingItem{
		kind:     pendingKindExecute,
		ctx:      ctx,
		req:      req,
		run:      f.checkRightsAndRun,
		callback: callback,
	})
}

// Process is a blocking variant of Execute.
// It returns the request and its error once the request is completed.
// If ctx is done earlier, ctx.Err() is returned while the request keeps its place in the pipeline.
func (f *Funnel) Process(ctx context.Context, req *Request) (*Request, error) {
	errCh := make(chan error, 1)
	f.Execute(ctx, req, func(err error, _ *Request) {
		errCh <- err
	})
	select {
	case err := <-errCh:
		return req, err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Shutdown switches the Funnel to the draining state.
// New requests are rejected with ErrShuttingDown while admitted and queued ones run to completion.
// Done is closed when the last of them completes (or right away if there are none).
// Calling Shutdown more than once has no effect.
func (f *Funnel) Shutdown() {
	f.mu.Lock()
	if f.shuttingDown {
		f.mu.Unlock()
		return
	}
	f.shuttingDown = true
	remaining := f.remaining
	terminate := f.markDrainedIfNeededLocked()
	f.mu.Unlock()

	f.logger.Info("funnel is shutting down", log.Int("remaining_requests", remaining))
	if terminate {
		f.terminate()
	}
}

// Done returns a channel that is closed when the Funnel is terminated.
func (f *Funnel) Done() <-chan struct{} {
	return f.done
}

// State returns the current state of the Funnel.
func (f *Funnel) State() State {
	if f.terminated.Load() {
		return StateTerminated
	}
	if f.isShuttingDown() {
		return StateDraining
	}
	return StateAccepting
}

// Stats returns a snapshot of the Funnel runtime state.
func (f *Funnel) Stats() Stats {
	f.mu.Lock()
	defer f.mu.Unlock()
	return Stats{
		ConcurrentRequests: f.concurrent,
		PendingRequests:    f.queue.len(),
		RemainingRequests:  f.remaining,
		Overloaded:         f.overloaded,
		ShuttingDown:       f.shuttingDown,
	}
}

func (f *Funnel) isConnectionAlive(req *Request) bool {
	if f.connectionChecker == nil || req.Context.ConnectionID == "" {
		return true
	}
	return f.connectionChecker.IsConnectionAlive(req.Context.ConnectionID)
}

func (f *Funnel) isQueued(req *Request) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.has(req.InternalID)
}

func (f *Funnel) isShuttingDown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shuttingDown
}

func (f *Funnel) reject(req *Request, err error, reason string, callback Callback) {
	req.SetError(err)
	f.metrics.IncRejects(reason)
	callback(err, req)
}

// admit runs the item immediately if there is a free slot, or puts it into the pending queue.
func (f *Funnel) admit(item *pendingItem) {
	f.mu.Lock()

	if f.drained || (item.kind == pendingKindExecute && f.shuttingDown) {
		f.mu.Unlock()
		f.reject(item.req, NewError(ErrShuttingDown, ""), RejectReasonShuttingDown, item.callback)
		return
	}

	if !f.overloaded && f.concurrent < f.cfg.ConcurrentRequests {
		f.concurrent++
		f.remaining++
		concurrent := f.concurrent
		f.mu.Unlock()

		f.metrics.SetConcurrentRequests(concurrent)
		go f.process(item, false)
		return
	}

	if f.queue.has(item.req.InternalID) {
		f.mu.Unlock()
		return
	}

	if f.queue.len() >= f.cfg.RequestsBufferSize {
		f.mu.Unlock()
		f.reject(item.req, NewError(ErrOverloaded, ""), RejectReasonOverloaded, item.callback)
		return
	}

	item.enqueuedAt = time.Now()
	f.queue.push(item)
	f.remaining++

	notify := false
	if !f.overloaded {
		f.overloaded = true
		if now := time.Now(); now.Sub(f.lastWarningTime) >= f.cfg.OverloadWarningInterval {
			f.lastWarningTime = now
			notify = true
		}
	}
	pending := f.queue.len()
	f.replayPendingLocked()
	f.mu.Unlock()

	f.metrics.SetPendingRequests(pending)
	if notify {
		f.notifyOverload(pending)
	}
}

func (f *Funnel) notifyOverload(pending int) {
	f.logger.Warn("funnel is overloaded, requests are queued",
		log.Int("pending_requests", pending),
		log.Int("concurrent_requests_limit", f.cfg.ConcurrentRequests),
		log.Int("requests_buffer_size", f.cfg.RequestsBufferSize))
	f.metrics.IncOverloadNotifications()
	if f.onOverload != nil {
		f.onOverload()
	}
}

// replayPendingLocked hands free slots to waiting batch parents first and then to queued items.
// Popping under the lock guarantees that an item is replayed only once.
// The overloaded flag is reset only when the queue is observed empty.
func (f *Funnel) replayPendingLocked() {
	for len(f.resumers) != 0 && f.concurrent < f.cfg.ConcurrentRequests {
		f.concurrent++
		close(f.resumers[0])
		f.resumers = f.resumers[1:]
	}
	for f.concurrent+f.completing < f.cfg.ConcurrentRequests {
		item := f.queue.pop()
		if item == nil {
			break
		}
		f.concurrent++
		go f.process(item, true)
	}
	if f.queue.len() == 0 {
		f.overloaded = false
	}
	f.metrics.SetConcurrentRequests(f.concurrent)
	f.metrics.SetPendingRequests(f.queue.len())
}

// process executes the admitted item and completes it.
func (f *Funnel) process(item *pendingItem, replayed bool) {
	if replayed && item.kind == pendingKindExecute && !f.isConnectionAlive(item.req) {
		item.req.SetError(NewError(ErrConnectionDropped, ""))
		f.metrics.IncRejects(RejectReasonConnectionDropped)
		f.complete(item)
		return
	}

	startTime := time.Now()
	f.run(item)
	f.metrics.ObserveRequestDuration(time.Since(startTime))
	f.complete(item)
}

func (f *Funnel) run(item *pendingItem) {
	ctx := NewContextWithRequest(context.WithoutCancel(item.ctx), item.req)
	ctx = context.WithValue(ctx, ctxKeySlot, &executionSlot{funnel: f})
	result, err := f.safeRun(ctx, item)
	if err != nil {
		item.req.SetError(err)
		return
	}
	item.req.Error = nil
	item.req.Result = result
	if item.req.Status == StatusPending {
		item.req.Status = http.StatusOK
	}
}

func (f *Funnel) safeRun(ctx context.Context, item *pendingItem) (result interface{}, err error) {
	defer func() {
		if p := recover(); p != nil {
			f.logger.Error("panic while executing request",
				log.String("request_id", item.req.InternalID),
				log.String("controller", item.req.Input.Controller),
				log.String("action", item.req.Input.Action),
				log.Any("panic", p),
				log.Bytes("stack", debug.Stack()))
			result, err = nil, WrapError(ErrInternal, fmt.Errorf("panic: %v", p))
		}
	}()
	return item.run(ctx, item.req)
}

func (f *Funnel) checkRightsAndRun(ctx context.Context, req *Request) (interface{}, error) {
	if f.rightsChecker != nil {
		if err := f.rightsChecker.Check(ctx, req); err != nil {
			return nil, err
		}
	}
	return f.executor.Run(ctx, req)
}

// complete frees the slot, delivers the outcome and then replays pending items.
// The callback sees the request already accounted as completed, so it may submit a follow-up request.
// Termination is signaled only after the callback of the last request returns.
func (f *Funnel) complete(item *pendingItem) {
	f.mu.Lock()
	f.concurrent--
	f.remaining--
	f.completing++
	concurrent := f.concurrent
	f.mu.Unlock()
	f.metrics.SetConcurrentRequests(concurrent)

	item.callback(item.req.Error, item.req)

	f.mu.Lock()
	f.completing--
	f.replayPendingLocked()
	terminate := f.markDrainedIfNeededLocked()
	f.mu.Unlock()

	if terminate {
		f.terminate()
	}
}

// releaseSlot frees the slot of a running request while it waits for its batch items.
func (f *Funnel) releaseSlot() {
	f.mu.Lock()
	f.concurrent--
	f.replayPendingLocked()
	f.mu.Unlock()
}

// reacquireSlot blocks until the running request gets a slot back.
// Waiting parents take free slots before queued items.
func (f *Funnel) reacquireSlot() {
	f.mu.Lock()
	if len(f.resumers) == 0 && f.concurrent+f.completing < f.cfg.ConcurrentRequests {
		f.concurrent++
		concurrent := f.concurrent
		f.mu.Unlock()
		f.metrics.SetConcurrentRequests(concurrent)
		return
	}
	ch := make(chan struct{})
	f.resumers = append(f.resumers, ch)
	f.mu.Unlock()
	<-ch
}

func (f *Funnel) markDrainedIfNeededLocked() bool {
	if !f.shuttingDown || f.remaining != 0 || f.completing != 0 || f.drained {
		return false
	}
	f.drained = true
	return true
}

func (f *Funnel) terminate() {
	if !f.terminated.CompareAndSwap(false, true) {
		return
	}
	f.logger.Info("funnel is drained, all remaining requests are completed")
	if f.onTerminate != nil {
		f.onTerminate()
	}
	close(f.done)
}

func newOnceCallback(cb Callback) Callback {
	called := atomic.NewBool(false)
	return func(err error, req *Request) {
		if called.CompareAndSwap(false, true) && cb != nil {
			cb(err, req)
		}
	}
}
