package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestNewJSON writes one entry and decodes it back to check the encoder and
// structured fields.
func TestNewJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := New(Options{Level: "debug", Format: "json", Output: &buf})
	require.NoError(t, err)

	log.Debug("loader: source read", zap.String("source", "orders"), zap.Int("rows", 3))
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	require.Equal(t, "loader: source read", entry["msg"])
	require.Equal(t, "orders", entry["source"])
	require.EqualValues(t, 3, entry["rows"])
}

// TestNewLevelFilters checks that entries below the level are dropped.
func TestNewLevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log, err := New(Options{Level: "warn", Output: &buf})
	require.NoError(t, err)

	log.Info("hidden")
	log.Warn("shown")

	out := buf.String()
	require.NotContains(t, out, "hidden")
	require.True(t, strings.Contains(out, "WARN") && strings.Contains(out, "shown"), out)
}

func TestNewRejectsBadOptions(t *testing.T) {
	t.Parallel()

	_, err := New(Options{Level: "loud"})
	require.Error(t, err)

	_, err = New(Options{Format: "xml"})
	require.Error(t, err)
}
