/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package funnel

import (
	"errors"
	"time"

	"github.com/acronis/go-funnel/service"
)

// ErrDrainTimeoutExceeded is returned by Unit.Stop when pending requests are not completed in time.
var ErrDrainTimeoutExceeded = errors.New("funnel drain timeout exceeded")

// UnitOpts represents options for Unit.
type UnitOpts struct {
	// DrainTimeout bounds the graceful stop. Zero means waiting until every request is completed.
	DrainTimeout time.Duration

	// Metrics is registered by MustRegisterMetrics if not nil.
	Metrics *PrometheusMetrics
}

// Unit allows using the Funnel as a service.Unit.
type Unit struct {
	funnel *Funnel
	opts   UnitOpts
}

var _ service.Unit = (*Unit)(nil)
var _ service.MetricsRegisterer = (*Unit)(nil)

// NewUnit creates a new Unit for the Funnel.
func NewUnit(f *Funnel, opts UnitOpts) *Unit {
	return &Unit{funnel: f, opts: opts}
}

// Start does nothing since the Funnel accepts requests right after creation.
func (u *Unit) Start(_ chan<- error) {}

// Stop switches the Funnel to the draining state.
// If gracefully is true, it waits until all admitted and queued requests are completed.
func (u *Unit) Stop(gracefully bool) error {
	u.funnel.Shutdown()
	if !gracefully {
		return nil
	}
	if u.opts.DrainTimeout <= 0 {
		<-u.funnel.Done()
		return nil
	}
	timer := time.NewTimer(u.opts.DrainTimeout)
	defer timer.Stop()
	select {
	case <-u.funnel.Done():
		return nil
	case <-timer.C:
		return ErrDrainTimeoutExceeded
	}
}

// MustRegisterMetrics registers the Funnel metrics in Prometheus.
func (u *Unit) MustRegisterMetrics() {
	if u.opts.Metrics != nil {
		u.opts.Metrics.MustRegister()
	}
}

// UnregisterMetrics unregisters the Funnel metrics in Prometheus.
func (u *Unit) UnregisterMetrics() {
	if u.opts.Metrics != nil {
		u.opts.Metrics.Unregister()
	}
}
