/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type testLimitsConfig struct {
	Concurrency int
	Interval    time.Duration
	Patterns    []string
	invalid     bool
}

func (c *testLimitsConfig) KeyPrefix() string {
	return "limits"
}

func (c *testLimitsConfig) SetProviderDefaults(dp DataProvider) {
	dp.SetDefault("concurrency", 10)
	dp.SetDefault("interval", "500ms")
}

func (c *testLimitsConfig) Set(dp DataProvider) error {
	var err error
	if c.Concurrency, err = dp.GetInt("concurrency"); err != nil {
		return err
	}
	if c.Interval, err = dp.GetDuration("interval"); err != nil {
		return err
	}
	if c.Patterns, err = dp.GetStringSlice("patterns"); err != nil {
		return err
	}
	return nil
}

func (c *testLimitsConfig) Validate() error {
	if c.invalid || c.Concurrency < 0 {
		return errors.New("invalid limits")
	}
	return nil
}

func TestLoader_LoadFromReader(t *testing.T) {
	t.Run("defaults are used", func(t *testing.T) {
		cfg := &testLimitsConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(`{}`), DataTypeJSON, cfg)
		require.NoError(t, err)
		require.Equal(t, 10, cfg.Concurrency)
		require.Equal(t, 500*time.Millisecond, cfg.Interval)
		require.Empty(t, cfg.Patterns)
	})

	t.Run("values from yaml", func(t *testing.T) {
		cfg := &testLimitsConfig{}
		cfgData := `
limits:
  concurrency: 3
  interval: 2s
  patterns: ["auth:*", "server:now"]
`
		err := NewLoader(NewViperAdapter()).LoadFromReader(bytes.NewBufferString(cfgData), DataTypeYAML, cfg)
		require.NoError(t, err)
		require.Equal(t, 3, cfg.Concurrency)
		require.Equal(t, 2*time.Second, cfg.Interval)
		require.Equal(t, []string{"auth:*", "server:now"}, cfg.Patterns)
	})

	t.Run("validation error is returned", func(t *testing.T) {
		cfg := &testLimitsConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`{"limits":{"concurrency":-1}}`), DataTypeJSON, cfg)
		require.EqualError(t, err, "invalid limits")
	})

	t.Run("type error contains key", func(t *testing.T) {
		cfg := &testLimitsConfig{}
		err := NewLoader(NewViperAdapter()).LoadFromReader(
			bytes.NewBufferString(`{"limits":{"concurrency":"many"}}`), DataTypeJSON, cfg)
		require.Error(t, err)
		require.Contains(t, err.Error(), "limits.concurrency")
	})
}

func TestLoader_LoadFromFile(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "config.yml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("limits:\n  concurrency: 42\n"), 0o600))

	cfg := &testLimitsConfig{}
	require.NoError(t, NewLoader(NewViperAdapter()).LoadFromFile(cfgPath, DataTypeYAML, cfg))
	require.Equal(t, 42, cfg.Concurrency)
}

func TestLoader_EnvVars(t *testing.T) {
	t.Setenv("FUNNELTEST_LIMITS_CONCURRENCY", "7")
	t.Setenv("FUNNELTEST_LIMITS_PATTERNS", "a:*, b:c")

	cfg := &testLimitsConfig{}
	require.NoError(t, NewDefaultLoader("funneltest").LoadDefaults(cfg))
	require.Equal(t, 7, cfg.Concurrency)
	require.Equal(t, []string{"a:*", "b:c"}, cfg.Patterns)
}
