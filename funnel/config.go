/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package funnel

import (
	"fmt"
	"time"

	"github.com/acronis/go-funnel/config"
)

const cfgDefaultKeyPrefix = "funnel"

const (
	cfgKeyLimitsConcurrentRequests      = "limits.concurrentRequests"
	cfgKeyLimitsRequestsBufferSize      = "limits.requestsBufferSize"
	cfgKeyLimitsBatchSize               = "limits.batchSize"
	cfgKeyLimitsOverloadWarningInterval = "limits.overloadWarningInterval"
)

// Default values.
const (
	DefaultConcurrentRequests      = 100
	DefaultRequestsBufferSize      = 50000
	DefaultBatchSize               = 200
	DefaultOverloadWarningInterval = 500 * time.Millisecond
)

// Config represents a set of configuration parameters for the Funnel.
type Config struct {
	// ConcurrentRequests is the maximum number of requests executed simultaneously.
	// Zero means every request goes to the pending queue and, with zero buffer, is rejected.
	ConcurrentRequests int

	// RequestsBufferSize is the maximum number of pending requests.
	RequestsBufferSize int

	// BatchSize is the maximum number of items in one batch operation.
	BatchSize int

	// OverloadWarningInterval is the minimal interval between two overload notifications.
	OverloadWarningInterval time.Duration

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)
var _ config.Validator = (*Config)(nil)

// NewConfig creates a new instance of the Config.
func NewConfig() *Config {
	return NewConfigWithKeyPrefix(cfgDefaultKeyPrefix)
}

// NewConfigWithKeyPrefix creates a new instance of the Config.
// Allows specifying key prefix which will be used for parsing configuration parameters.
func NewConfigWithKeyPrefix(keyPrefix string) *Config {
	return &Config{keyPrefix: keyPrefix}
}

// NewDefaultConfig creates a new instance of the Config with default values.
func NewDefaultConfig() *Config {
	return &Config{
		ConcurrentRequests:      DefaultConcurrentRequests,
		RequestsBufferSize:      DefaultRequestsBufferSize,
		BatchSize:               DefaultBatchSize,
		OverloadWarningInterval: DefaultOverloadWarningInterval,
		keyPrefix:               cfgDefaultKeyPrefix,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	if c.keyPrefix == "" {
		return cfgDefaultKeyPrefix
	}
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyLimitsConcurrentRequests, DefaultConcurrentRequests)
	dp.SetDefault(cfgKeyLimitsRequestsBufferSize, DefaultRequestsBufferSize)
	dp.SetDefault(cfgKeyLimitsBatchSize, DefaultBatchSize)
	dp.SetDefault(cfgKeyLimitsOverloadWarningInterval, DefaultOverloadWarningInterval)
}

// Set sets configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.ConcurrentRequests, err = dp.GetInt(cfgKeyLimitsConcurrentRequests); err != nil {
		return err
	}
	if c.ConcurrentRequests < 0 {
		return dp.WrapKeyErr(cfgKeyLimitsConcurrentRequests, fmt.Errorf("cannot be negative"))
	}

	if c.RequestsBufferSize, err = dp.GetInt(cfgKeyLimitsRequestsBufferSize); err != nil {
		return err
	}
	if c.RequestsBufferSize < 0 {
		return dp.WrapKeyErr(cfgKeyLimitsRequestsBufferSize, fmt.Errorf("cannot be negative"))
	}

	if c.BatchSize, err = dp.GetInt(cfgKeyLimitsBatchSize); err != nil {
		return err
	}
	if c.BatchSize <= 0 {
		return dp.WrapKeyErr(cfgKeyLimitsBatchSize, fmt.Errorf("must be positive"))
	}

	if c.OverloadWarningInterval, err = dp.GetDuration(cfgKeyLimitsOverloadWarningInterval); err != nil {
		return err
	}
	if c.OverloadWarningInterval <= 0 {
		return dp.WrapKeyErr(cfgKeyLimitsOverloadWarningInterval, fmt.Errorf("must be positive"))
	}

	return nil
}

// Validate checks that the configuration values are consistent.
// It is called by New, so configs built in code are checked as well as loaded ones.
func (c *Config) Validate() error {
	if c.ConcurrentRequests < 0 {
		return config.WrapKeyErr(c.fullKey(cfgKeyLimitsConcurrentRequests), fmt.Errorf("cannot be negative"))
	}
	if c.RequestsBufferSize < 0 {
		return config.WrapKeyErr(c.fullKey(cfgKeyLimitsRequestsBufferSize), fmt.Errorf("cannot be negative"))
	}
	if c.BatchSize <= 0 {
		return config.WrapKeyErr(c.fullKey(cfgKeyLimitsBatchSize), fmt.Errorf("must be positive"))
	}
	if c.OverloadWarningInterval <= 0 {
		return config.WrapKeyErr(c.fullKey(cfgKeyLimitsOverloadWarningInterval), fmt.Errorf("must be positive"))
	}
	return nil
}

func (c *Config) fullKey(key string) string {
	return c.KeyPrefix() + "." + key
}
