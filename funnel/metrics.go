/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package funnel

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/acronis/go-funnel/internal/libinfo"
)

// Reasons of request rejects used as the "reason" label value.
const (
	RejectReasonConnectionDropped  = "connection_dropped"
	RejectReasonShuttingDown       = "shutting_down"
	RejectReasonBadRequest         = "bad_request"
	RejectReasonRateLimited        = "rate_limited"
	RejectReasonRateLimiterFailure = "rate_limiter_failure"
	RejectReasonOverloaded         = "overloaded"
)

const metricsLabelReason = "reason"

// MetricsCollector represents a collector of metrics for the Funnel.
type MetricsCollector interface {
	// SetConcurrentRequests sets the number of requests being executed.
	SetConcurrentRequests(n int)

	// SetPendingRequests sets the number of requests waiting in the pending queue.
	SetPendingRequests(n int)

	// IncRejects increments the number of rejected requests for the given reason.
	IncRejects(reason string)

	// IncOverloadNotifications increments the number of emitted overload notifications.
	IncOverloadNotifications()

	// ObserveRequestDuration observes the execution time of an admitted request.
	ObserveRequestDuration(d time.Duration)
}

// PrometheusMetricsOpts represents options for PrometheusMetrics.
type PrometheusMetricsOpts struct {
	// Namespace is a namespace for metrics. It will be prepended to all metric names.
	Namespace string

	// ConstLabels is a set of labels that will be applied to all metrics.
	ConstLabels prometheus.Labels

	// DurationBuckets is a list of buckets for the request duration histogram.
	// prometheus.DefBuckets is used if empty.
	DurationBuckets []float64
}

// PrometheusMetrics represents Prometheus metrics for the Funnel.
type PrometheusMetrics struct {
	ConcurrentRequests    prometheus.Gauge
	PendingRequests       prometheus.Gauge
	RejectsTotal          *prometheus.CounterVec
	OverloadNotifications prometheus.Counter
	RequestDuration       prometheus.Histogram
}

var _ MetricsCollector = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics creates a new instance of PrometheusMetrics with default options.
func NewPrometheusMetrics() *PrometheusMetrics {
	return NewPrometheusMetricsWithOpts(PrometheusMetricsOpts{})
}

// NewPrometheusMetricsWithOpts creates a new instance of PrometheusMetrics with the provided options.
func NewPrometheusMetricsWithOpts(opts PrometheusMetricsOpts) *PrometheusMetrics {
	buckets := opts.DurationBuckets
	if len(buckets) == 0 {
		buckets = prometheus.DefBuckets
	}
	constLabels := libinfo.WithVersionLabel(opts.ConstLabels)
	return &PrometheusMetrics{
		ConcurrentRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "funnel_concurrent_requests",
			Help:        "Number of requests being executed.",
			ConstLabels: constLabels,
		}),
		PendingRequests: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace:   opts.Namespace,
			Name:        "funnel_pending_requests",
			Help:        "Number of requests waiting in the pending queue.",
			ConstLabels: constLabels,
		}),
		RejectsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "funnel_rejects_total",
			Help:        "Number of rejected requests.",
			ConstLabels: constLabels,
		}, []string{metricsLabelReason}),
		OverloadNotifications: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace:   opts.Namespace,
			Name:        "funnel_overload_notifications_total",
			Help:        "Number of emitted overload notifications.",
			ConstLabels: constLabels,
		}),
		RequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace:   opts.Namespace,
			Name:        "funnel_request_duration_seconds",
			Help:        "Execution time of admitted requests.",
			ConstLabels: constLabels,
			Buckets:     buckets,
		}),
	}
}

// MustRegister does registration of metrics collector in Prometheus and panics if any error occurs.
func (pm *PrometheusMetrics) MustRegister() {
	prometheus.MustRegister(
		pm.ConcurrentRequests,
		pm.PendingRequests,
		pm.RejectsTotal,
		pm.OverloadNotifications,
		pm.RequestDuration,
	)
}

// Unregister cancels registration of metrics collector in Prometheus.
func (pm *PrometheusMetrics) Unregister() {
	prometheus.Unregister(pm.ConcurrentRequests)
	prometheus.Unregister(pm.PendingRequests)
	prometheus.Unregister(pm.RejectsTotal)
	prometheus.Unregister(pm.OverloadNotifications)
	prometheus.Unregister(pm.RequestDuration)
}

// SetConcurrentRequests sets the number of requests being executed.
func (pm *PrometheusMetrics) SetConcurrentRequests(n int) {
	pm.ConcurrentRequests.Set(float64(n))
}

// SetPendingRequests sets the number of requests waiting in the pending queue.
func (pm *PrometheusMetrics) SetPendingRequests(n int) {
	pm.PendingRequests.Set(float64(n))
}

// IncRejects increments the number of rejected requests for the given reason.
func (pm *PrometheusMetrics) IncRejects(reason string) {
	pm.RejectsTotal.With(prometheus.Labels{metricsLabelReason: reason}).Inc()
}

// IncOverloadNotifications increments the number of emitted overload notifications.
func (pm *PrometheusMetrics) IncOverloadNotifications() {
	pm.OverloadNotifications.Inc()
}

// ObserveRequestDuration observes the execution time of an admitted request.
func (pm *PrometheusMetrics) ObserveRequestDuration(d time.Duration) {
	pm.RequestDuration.Observe(d.Seconds())
}

type disabledMetrics struct{}

func (disabledMetrics) SetConcurrentRequests(int)            {}
func (disabledMetrics) SetPendingRequests(int)               {}
func (disabledMetrics) IncRejects(string)                    {}
func (disabledMetrics) IncOverloadNotifications()            {}
func (disabledMetrics) ObserveRequestDuration(time.Duration) {}
