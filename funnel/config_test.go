/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package funnel

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-funnel/config"
)

func TestConfig(t *testing.T) {
	tests := []struct {
		name    string
		cfgData string
		wantCfg *Config
		wantErr string
	}{
		{
			name:    "default values",
			cfgData: ``,
			wantCfg: NewDefaultConfig(),
		},
		{
			name: "custom values",
			cfgData: `
funnel:
  limits:
    concurrentRequests: 5
    requestsBufferSize: 0
    batchSize: 10
    overloadWarningInterval: 2s
`,
			wantCfg: &Config{
				ConcurrentRequests:      5,
				RequestsBufferSize:      0,
				BatchSize:               10,
				OverloadWarningInterval: 2 * time.Second,
				keyPrefix:               cfgDefaultKeyPrefix,
			},
		},
		{
			name: "negative concurrent requests",
			cfgData: `
funnel:
  limits:
    concurrentRequests: -1
`,
			wantErr: "funnel.limits.concurrentRequests: cannot be negative",
		},
		{
			name: "negative buffer size",
			cfgData: `
funnel:
  limits:
    requestsBufferSize: -10
`,
			wantErr: "funnel.limits.requestsBufferSize: cannot be negative",
		},
		{
			name: "zero batch size",
			cfgData: `
funnel:
  limits:
    batchSize: 0
`,
			wantErr: "funnel.limits.batchSize: must be positive",
		},
		{
			name: "invalid interval",
			cfgData: `
funnel:
  limits:
    overloadWarningInterval: soon
`,
			wantErr: "funnel.limits.overloadWarningInterval",
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewConfig()
			err := config.NewDefaultLoader("").LoadFromReader(bytes.NewBufferString(tt.cfgData), config.DataTypeYAML, cfg)
			if tt.wantErr != "" {
				require.ErrorContains(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.wantCfg, cfg)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := NewDefaultConfig()
	require.NoError(t, cfg.Validate())

	cfg.OverloadWarningInterval = 0
	require.EqualError(t, cfg.Validate(), "funnel.limits.overloadWarningInterval: must be positive")

	cfg = NewConfigWithKeyPrefix("scheduler")
	require.EqualError(t, cfg.Validate(), "scheduler.limits.batchSize: must be positive")
}
