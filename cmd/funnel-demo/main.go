/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

// Command funnel-demo runs the Funnel under a synthetic load.
// Simulated clients submit single and batch requests through the Funnel, resubmitting throttled ones,
// while the admin server exposes health and Prometheus metrics. SIGINT/SIGTERM drains pending requests.
package main

import (
	"errors"
	"fmt"
	golog "log"
	"os"

	"github.com/spf13/pflag"

	"github.com/acronis/go-funnel/adminserver"
	"github.com/acronis/go-funnel/config"
	"github.com/acronis/go-funnel/funnel"
	"github.com/acronis/go-funnel/log"
	"github.com/acronis/go-funnel/lrucache"
	"github.com/acronis/go-funnel/ratelimit"
	"github.com/acronis/go-funnel/service"
)

const envVarsPrefix = "funnel"

func main() {
	if err := runApp(os.Args[1:]); err != nil {
		golog.Fatal(err)
	}
}

func runApp(args []string) error {
	flags := pflag.NewFlagSet("funnel-demo", pflag.ContinueOnError)
	cfgPath := flags.StringP("config", "c", "", "path to YAML configuration file (defaults and FUNNEL_* env vars are used if empty)")
	if err := flags.Parse(args); err != nil {
		return err
	}

	cfg, err := loadAppConfig(*cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, loggerClose := log.NewLogger(cfg.Log)
	defer loggerClose()

	keysMetrics := lrucache.NewPrometheusMetricsWithOpts(lrucache.PrometheusMetricsOpts{Namespace: "ratelimit"})
	keysMetrics.MustRegister()
	defer keysMetrics.Unregister()

	rateLimiter, err := ratelimit.NewFromConfigWithOpts(cfg.RateLimit, logger, ratelimit.LimiterOpts{KeysMetrics: keysMetrics})
	if err != nil {
		return fmt.Errorf("create rate limiter: %w", err)
	}

	connections := newConnectionRegistry()
	funnelMetrics := funnel.NewPrometheusMetrics()
	app := newDemoApp(cfg.Demo, logger)
	f, err := funnel.New(cfg.Funnel, funnel.Opts{
		Executor:          app,
		RightsChecker:     funnel.RightsCheckerFunc(checkRights),
		RateLimiter:       rateLimiter,
		ConnectionChecker: connections,
		Logger:            logger,
		Metrics:           funnelMetrics,
	})
	if err != nil {
		return fmt.Errorf("create funnel: %w", err)
	}
	app.batchRunner = funnel.NewBatchRunner(f)

	var serviceUnits []service.Unit
	if cfg.AdminServer.Enabled {
		serviceUnits = append(serviceUnits, adminserver.New(cfg.AdminServer, f, logger, adminserver.Opts{}))
	}
	serviceUnits = append(serviceUnits,
		funnel.NewUnit(f, funnel.UnitOpts{DrainTimeout: cfg.Demo.DrainTimeout, Metrics: funnelMetrics}),
		service.NewWorkerUnit(newLoadGenerator(cfg.Demo, f, connections, logger), service.WorkerUnitOpts{}),
	)

	// Units are stopped in reverse order: load is stopped first, then the funnel is drained.
	return service.New(logger, service.NewCompositeUnit(serviceUnits...)).Start()
}

func loadAppConfig(path string) (*AppConfig, error) {
	cfgLoader := config.NewDefaultLoader(envVarsPrefix)
	cfg := NewAppConfig()
	first, rest := cfg.all()
	if path == "" {
		return cfg, cfgLoader.LoadDefaults(first, rest...)
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file %q does not exist", path)
		}
		return nil, err
	}
	return cfg, cfgLoader.LoadFromFile(path, config.DataTypeYAML, first, rest...)
}
