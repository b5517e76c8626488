/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package adminserver

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-funnel/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name        string
		cfgDataType config.DataType
		cfgData     string
		expectedCfg func() *Config
	}{
		{
			name:        "default values",
			cfgDataType: config.DataTypeYAML,
			cfgData:     ``,
			expectedCfg: NewDefaultConfig,
		},
		{
			name:        "yaml config",
			cfgDataType: config.DataTypeYAML,
			cfgData: `
adminServer:
  enabled: true
  address: "0.0.0.0:9191"
  profiling: true
  shutdownTimeout: 1s
`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.Address = "0.0.0.0:9191"
				cfg.Profiling = true
				cfg.ShutdownTimeout = time.Second
				return cfg
			},
		},
		{
			name:        "json config",
			cfgDataType: config.DataTypeJSON,
			cfgData: `
{
	"adminServer": {
		"enabled": false,
		"address": ""
	}
}`,
			expectedCfg: func() *Config {
				cfg := NewDefaultConfig()
				cfg.Enabled = false
				cfg.Address = ""
				return cfg
			},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.cfgData), tt.cfgDataType, cfg)
			require.NoError(t, err)
			require.Equal(t, tt.expectedCfg(), cfg)
		})
	}
}

func TestConfigValidationErrors(t *testing.T) {
	tests := []struct {
		name           string
		yamlData       string
		expectedErrMsg string
	}{
		{
			name: "error, empty address",
			yamlData: `
adminServer:
  address: ""
`,
			expectedErrMsg: `adminServer.address: cannot be empty`,
		},
		{
			name: "error, negative shutdown timeout",
			yamlData: `
adminServer:
  shutdownTimeout: -1s
`,
			expectedErrMsg: `adminServer.shutdownTimeout: cannot be negative`,
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.yamlData), config.DataTypeYAML, cfg)
			require.EqualError(t, err, tt.expectedErrMsg)
		})
	}
}
