/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestViperAdapter_GetStringFromSet(t *testing.T) {
	va := NewViperAdapter()
	va.Set("format", "JSON")

	val, err := va.GetStringFromSet("format", []string{"json", "text"}, true)
	require.NoError(t, err)
	require.Equal(t, "JSON", val)

	_, err = va.GetStringFromSet("format", []string{"json", "text"}, false)
	require.EqualError(t, err, `format: unknown value "JSON", should be one of [json text]`)
}

func TestViperAdapter_GetByteSize(t *testing.T) {
	tests := []struct {
		name    string
		val     interface{}
		want    ByteSize
		wantErr bool
	}{
		{name: "human-readable string", val: "250M", want: 250 * 1024 * 1024},
		{name: "k8s suffix", val: "1Gi", want: 1024 * 1024 * 1024},
		{name: "integer", val: 1024, want: 1024},
		{name: "negative integer", val: -1, wantErr: true},
		{name: "garbage", val: "a lot", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			va := NewViperAdapter()
			va.Set("size", tt.val)
			got, err := va.GetByteSize("size")
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tt.want, got)
		})
	}
}

func TestViperAdapter_GetFloat64(t *testing.T) {
	va := NewViperAdapter()
	va.Set("ratio", "0.25")
	va.Set("bad", "quarter")

	val, err := va.GetFloat64("ratio")
	require.NoError(t, err)
	require.Equal(t, 0.25, val)

	_, err = va.GetFloat64("bad")
	require.ErrorContains(t, err, "bad: ")
}

func TestKeyPrefixedDataProvider(t *testing.T) {
	va := NewViperAdapter()
	va.Set("funnel.limits.batchSize", 5)

	dp := NewKeyPrefixedDataProvider(va, "funnel")
	require.True(t, dp.IsSet("limits.batchSize"))
	val, err := dp.GetInt("limits.batchSize")
	require.NoError(t, err)
	require.Equal(t, 5, val)

	require.EqualError(t, dp.WrapKeyErr("limits.batchSize", errSample), "funnel.limits.batchSize: sample")
}

type sampleError struct{}

func (sampleError) Error() string { return "sample" }

var errSample = sampleError{}
