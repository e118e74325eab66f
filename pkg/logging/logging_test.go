package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goalt/pkg/config"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"", slog.LevelInfo},
		{"debug", slog.LevelDebug},
		{"INFO", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got, tt.in)
	}

	_, err := ParseLevel("loud")
	assert.Error(t, err)
}

func TestNewWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, config.LogConfig{Level: "warn", Format: "json"}, "altimeterd")
	require.NoError(t, err)

	logger.Info("dropped")
	logger.Warn("kept", "cm", 120)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "kept", rec["msg"])
	assert.Equal(t, "altimeterd", rec["app"])
	assert.Equal(t, float64(120), rec["cm"])
}

func TestNewWriter_Text(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewWriter(&buf, config.LogConfig{Level: "info", Format: "text"}, "altsim")
	require.NoError(t, err)

	logger.Debug("dropped")
	logger.Info("calibrated")

	assert.Contains(t, buf.String(), "calibrated")
	assert.NotContains(t, buf.String(), "dropped")
}

func TestNewWriter_BadFormat(t *testing.T) {
	_, err := NewWriter(&bytes.Buffer{}, config.LogConfig{Format: "xml"}, "x")
	assert.Error(t, err)
}
