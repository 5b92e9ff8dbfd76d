package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriterJSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "production", "INFO")
	require.NoError(t, err)

	logger.Debug().Msg("hidden")
	logger.Info().Str("k", "v").Msg("shown")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "namematch", entry["service"])
	assert.Equal(t, "shown", entry["message"])
	assert.Equal(t, "v", entry["k"])
}

func TestNewWithWriterConsole(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWithWriter(&buf, "local", "debug")
	require.NoError(t, err)
	logger.Debug().Msg("hello")
	assert.Contains(t, buf.String(), "hello")
	assert.NotContains(t, buf.String(), `"message"`)
}

func TestNewWithWriterPanes(t *testing.T) {
	var out, pane bytes.Buffer
	logger, err := NewWithWriter(&out, "production", "info", &pane)
	require.NoError(t, err)
	logger.Info().Str("file", "staff.csv").Msg("loaded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(out.Bytes()), &entry))
	assert.Equal(t, "loaded", entry["message"])

	assert.Contains(t, pane.String(), "loaded")
	assert.Contains(t, pane.String(), "file=staff.csv")
	assert.NotContains(t, pane.String(), "\x1b[")
	assert.NotContains(t, pane.String(), `"message"`)
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("local", "loud")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "LOG_LEVEL")
}
