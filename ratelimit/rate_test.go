/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package ratelimit

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestRate_UnmarshalText(t *testing.T) {
	tests := []struct {
		text    string
		want    Rate
		wantErr bool
	}{
		{text: "10/s", want: Rate{Count: 10, Duration: time.Second}},
		{text: "100/M", want: Rate{Count: 100, Duration: time.Minute}},
		{text: " 1000/h ", want: Rate{Count: 1000, Duration: time.Hour}},
		{text: "", want: Rate{}},
		{text: "10", wantErr: true},
		{text: "ten/s", wantErr: true},
		{text: "0/s", wantErr: true},
		{text: "10/d", wantErr: true},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.text, func(t *testing.T) {
			var got Rate
			err := got.UnmarshalText([]byte(tt.text))
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestRate_Codecs(t *testing.T) {
	type limits struct {
		Rate Rate `json:"rate" yaml:"rate"`
	}

	var fromJSON limits
	require.NoError(t, json.Unmarshal([]byte(`{"rate":"5/m"}`), &fromJSON))
	require.Equal(t, Rate{Count: 5, Duration: time.Minute}, fromJSON.Rate)
	jsonData, err := json.Marshal(fromJSON)
	require.NoError(t, err)
	require.JSONEq(t, `{"rate":"5/m"}`, string(jsonData))

	var fromYAML limits
	require.NoError(t, yaml.Unmarshal([]byte("rate: 20/s\n"), &fromYAML))
	require.Equal(t, Rate{Count: 20, Duration: time.Second}, fromYAML.Rate)
	yamlData, err := yaml.Marshal(fromYAML)
	require.NoError(t, err)
	require.Equal(t, "rate: 20/s\n", string(yamlData))

	require.Error(t, yaml.Unmarshal([]byte("rate: fast\n"), &fromYAML))
}
