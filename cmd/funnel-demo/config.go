/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package main

import (
	"fmt"
	"time"

	"github.com/acronis/go-funnel/adminserver"
	"github.com/acronis/go-funnel/config"
	"github.com/acronis/go-funnel/funnel"
	"github.com/acronis/go-funnel/log"
	"github.com/acronis/go-funnel/ratelimit"
)

// AppConfig is the configuration of the demo application.
type AppConfig struct {
	Log         *log.Config
	Funnel      *funnel.Config
	RateLimit   *ratelimit.Config
	AdminServer *adminserver.Config
	Demo        *DemoConfig
}

// NewAppConfig creates a new instance of the AppConfig.
func NewAppConfig() *AppConfig {
	return &AppConfig{
		Log:         log.NewConfig(),
		Funnel:      funnel.NewConfig(),
		RateLimit:   ratelimit.NewConfig(),
		AdminServer: adminserver.NewConfig(),
		Demo:        &DemoConfig{},
	}
}

func (c *AppConfig) all() (config.Config, []config.Config) {
	return c.Log, []config.Config{c.Funnel, c.RateLimit, c.AdminServer, c.Demo}
}

const (
	cfgKeyDemoClients        = "clients"
	cfgKeyDemoInterval       = "requestInterval"
	cfgKeyDemoExecutionTime  = "executionTime"
	cfgKeyDemoBatchSize      = "batchSize"
	cfgKeyDemoDropRate       = "connectionDropRate"
	cfgKeyDemoRetryAttempts  = "retryAttempts"
	cfgKeyDemoDrainTimeout   = "drainTimeout"
	cfgKeyDemoLockedItemRate = "lockedItemRate"
)

// DemoConfig represents parameters of the synthetic load.
type DemoConfig struct {
	Clients            int
	RequestInterval    time.Duration
	ExecutionTime      time.Duration
	BatchSize          int
	ConnectionDropRate float64
	LockedItemRate     float64
	RetryAttempts      int
	DrainTimeout       time.Duration
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *DemoConfig) KeyPrefix() string {
	return "demo"
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *DemoConfig) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyDemoClients, 8)
	dp.SetDefault(cfgKeyDemoInterval, 10*time.Millisecond)
	dp.SetDefault(cfgKeyDemoExecutionTime, 50*time.Millisecond)
	dp.SetDefault(cfgKeyDemoBatchSize, 5)
	dp.SetDefault(cfgKeyDemoDropRate, 0.01)
	dp.SetDefault(cfgKeyDemoLockedItemRate, 0.1)
	dp.SetDefault(cfgKeyDemoRetryAttempts, 3)
	dp.SetDefault(cfgKeyDemoDrainTimeout, 30*time.Second)
}

// Set sets configuration values from config.DataProvider.
func (c *DemoConfig) Set(dp config.DataProvider) error {
	var err error
	if c.Clients, err = dp.GetInt(cfgKeyDemoClients); err != nil {
		return err
	}
	if c.Clients <= 0 {
		return dp.WrapKeyErr(cfgKeyDemoClients, fmt.Errorf("must be positive"))
	}
	if c.RequestInterval, err = dp.GetDuration(cfgKeyDemoInterval); err != nil {
		return err
	}
	if c.RequestInterval <= 0 {
		return dp.WrapKeyErr(cfgKeyDemoInterval, fmt.Errorf("must be positive"))
	}
	if c.ExecutionTime, err = dp.GetDuration(cfgKeyDemoExecutionTime); err != nil {
		return err
	}
	if c.BatchSize, err = dp.GetInt(cfgKeyDemoBatchSize); err != nil {
		return err
	}
	if c.ConnectionDropRate, err = getRate(dp, cfgKeyDemoDropRate); err != nil {
		return err
	}
	if c.LockedItemRate, err = getRate(dp, cfgKeyDemoLockedItemRate); err != nil {
		return err
	}
	if c.RetryAttempts, err = dp.GetInt(cfgKeyDemoRetryAttempts); err != nil {
		return err
	}
	if c.DrainTimeout, err = dp.GetDuration(cfgKeyDemoDrainTimeout); err != nil {
		return err
	}
	return nil
}

func getRate(dp config.DataProvider, key string) (float64, error) {
	val, err := dp.GetFloat64(key)
	if err != nil {
		return 0, err
	}
	if val < 0 || val > 1 {
		return 0, dp.WrapKeyErr(key, fmt.Errorf("must be in [0, 1]"))
	}
	return val, nil
}
