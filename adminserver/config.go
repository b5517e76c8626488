/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"fmt"
	"time"

	"github.com/acronis/go-funnel/config"
)

const cfgDefaultKeyPrefix = "adminServer"

const (
	cfgKeyEnabled         = "enabled"
	cfgKeyAddress         = "address"
	cfgKeyProfiling       = "profiling"
	cfgKeyShutdownTimeout = "shutdownTimeout"
)

// Default values.
const (
	DefaultAddress         = ":9090"
	DefaultShutdownTimeout = 5 * time.Second
)

// Config represents a set of configuration parameters for the admin server.
type Config struct {
	Enabled bool
	Address string

	// Profiling enables pprof handlers under /debug.
	Profiling bool

	ShutdownTimeout time.Duration

	keyPrefix string
}

var _ config.Config = (*Config)(nil)
var _ config.KeyPrefixProvider = (*Config)(nil)

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
		Enabled:         true,
		Address:         DefaultAddress,
		ShutdownTimeout: DefaultShutdownTimeout,
		keyPrefix:       cfgDefaultKeyPrefix,
	}
}

// KeyPrefix returns a key prefix with which all configuration parameters should be presented.
func (c *Config) KeyPrefix() string {
	return c.keyPrefix
}

// SetProviderDefaults sets default configuration values for admin server in config.DataProvider.
func (c *Config) SetProviderDefaults(dp config.DataProvider) {
	dp.SetDefault(cfgKeyEnabled, true)
	dp.SetDefault(cfgKeyAddress, DefaultAddress)
	dp.SetDefault(cfgKeyProfiling, false)
	dp.SetDefault(cfgKeyShutdownTimeout, DefaultShutdownTimeout)
}

// Set sets admin server configuration values from config.DataProvider.
func (c *Config) Set(dp config.DataProvider) error {
	var err error

	if c.Enabled, err = dp.GetBool(cfgKeyEnabled); err != nil {
		return err
	}
	if c.Address, err = dp.GetString(cfgKeyAddress); err != nil {
		return err
	}
	if c.Enabled && c.Address == "" {
		return dp.WrapKeyErr(cfgKeyAddress, fmt.Errorf("cannot be empty"))
	}
	if c.Profiling, err = dp.GetBool(cfgKeyProfiling); err != nil {
		return err
	}
	if c.ShutdownTimeout, err = dp.GetDuration(cfgKeyShutdownTimeout); err != nil {
		return err
	}
	if c.ShutdownTimeout < 0 {
		return dp.WrapKeyErr(cfgKeyShutdownTimeout, fmt.Errorf("cannot be negative"))
	}
	return nil
}
