/*
Copyright © 2026 Acronis International GmbH.

Released under MIT license.
*/

package logtest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/acronis/go-funnel/log"
)

func TestRecorder(t *testing.T) {
	recorder := NewRecorder()
	logger := recorder.With(log.String("component", "funnel"))
	logger.Warn("overloaded", log.Int("pending_requests", 3))
	logger.Infof("draining %d requests", 2)

	require.Len(t, recorder.Entries(), 2)

	entry, found := recorder.FindEntry("overloaded")
	require.True(t, found)
	require.Equal(t, log.LevelWarn, entry.Level)
	field, found := entry.FindField("pending_requests")
	require.True(t, found)
	require.EqualValues(t, 3, field.Int)
	_, found = entry.FindField("component")
	require.True(t, found)

	require.Len(t, recorder.FindAllEntries("draining 2 requests"), 1)

	recorder.Reset()
	require.Empty(t, recorder.Entries())
}
