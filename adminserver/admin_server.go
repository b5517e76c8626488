/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Package adminserver provides a side HTTP server exposing health and Prometheus metrics of the Funnel.
package adminserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/acronis/go-funnel/funnel"
	"github.com/acronis/go-funnel/internal/libinfo"
	"github.com/acronis/go-funnel/log"
	"github.com/acronis/go-funnel/service"
)

// StateProvider reports the lifecycle state and runtime stats of the Funnel.
type StateProvider interface {
	State() funnel.State
	Stats() funnel.Stats
}

// Opts represents options for AdminServer.
type Opts struct {
	// Gatherer is used for /metrics. prometheus.DefaultGatherer is used if nil.
	Gatherer prometheus.Gatherer
}

// AdminServer represents HTTP server with /healthz and /metrics endpoints.
// It implements service.Unit interface.
type AdminServer struct {
	URL             string
	HTTPServer      *http.Server
	Logger          log.FieldLogger
	shutdownTimeout time.Duration
	httpServerDone  chan struct{}
}

var _ service.Unit = (*AdminServer)(nil)

type healthResponse struct {
	State              string `json:"state"`
	ConcurrentRequests int    `json:"concurrentRequests"`
	PendingRequests    int    `json:"pendingRequests"`
	Overloaded         bool   `json:"overloaded"`
	Version            string `json:"version"`
}

// New creates a new admin HTTP server.
func New(cfg *Config, stateProvider StateProvider, logger log.FieldLogger, opts Opts) *AdminServer {
	gatherer := opts.Gatherer
	if gatherer == nil {
		gatherer = prometheus.DefaultGatherer
	}

	router := chi.NewRouter()
	router.Use(chimiddleware.RequestID, chimiddleware.Recoverer)
	router.Get("/healthz", newHealthHandler(stateProvider, logger))
	router.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	if cfg.Profiling {
		router.Mount("/debug", chimiddleware.Profiler())
	}

	httpServer := &http.Server{
		Addr:              cfg.Address,
		Handler:           router,
		ReadHeaderTimeout: time.Second * 5,
	}
	return &AdminServer{
		URL:             "http://" + httpServer.Addr,
		HTTPServer:      httpServer,
		Logger:          logger,
		shutdownTimeout: cfg.ShutdownTimeout,
		httpServerDone:  make(chan struct{}),
	}
}

// newHealthHandler responds with 200 while the Funnel accepts requests and with 503 once it is draining,
// so load balancers stop routing new traffic during shutdown.
func newHealthHandler(stateProvider StateProvider, logger log.FieldLogger) http.HandlerFunc {
	return func(rw http.ResponseWriter, _ *http.Request) {
		state := stateProvider.State()
		stats := stateProvider.Stats()
		status := http.StatusOK
		if state != funnel.StateAccepting {
			status = http.StatusServiceUnavailable
		}
		rw.Header().Set("Content-Type", "application/json")
		rw.WriteHeader(status)
		if err := json.NewEncoder(rw).Encode(healthResponse{
			State:              state.String(),
			ConcurrentRequests: stats.ConcurrentRequests,
			PendingRequests:    stats.PendingRequests,
			Overloaded:         stats.Overloaded,
			Version:            libinfo.Version(),
		}); err != nil {
			logger.Error("error while writing health response", log.Error(err))
		}
	}
}

// Start starts admin HTTP server in a blocking way. Supposed this methods will be called in a separate goroutine.
// If a fatal error occurs, it's sent into passed fatalError channel and should be processed outside.
func (s *AdminServer) Start(fatalError chan<- error) {
	defer close(s.httpServerDone)

	logger := s.Logger.With(log.String("address", s.HTTPServer.Addr))
	logger.Info("starting admin HTTP server...")
	if err := s.HTTPServer.ListenAndServe(); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			logger.Info("admin HTTP server closed")
			return
		}
		logger.Error("admin HTTP server listening error", log.Error(err))
		fatalError <- err
		return
	}
}

// Stop stops admin HTTP server.
// Graceful stop waits for active connections up to the configured shutdown timeout.
func (s *AdminServer) Stop(gracefully bool) error {
	s.Logger.Info("closing admin HTTP server...", log.Bool("gracefully", gracefully))
	var err error
	if gracefully {
		ctx := context.Background()
		if s.shutdownTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
			defer cancel()
		}
		err = s.HTTPServer.Shutdown(ctx)
	} else {
		err = s.HTTPServer.Close()
	}
	if err != nil {
		s.Logger.Error("admin HTTP server closing error", log.Error(err))
		return err
	}
	<-s.httpServerDone // Wait closing of listener.
	return nil
}
