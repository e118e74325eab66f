package display

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLog_ShowsClampedNumber(t *testing.T) {
	var buf bytes.Buffer
	d := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, d.ShowNumber(12345))
	assert.Equal(t, "9999", d.Text())
	assert.Contains(t, buf.String(), "cm=9999")

	require.NoError(t, d.ShowNumber(-5000))
	assert.Equal(t, "-999", d.Text())
}

func TestLog_OnlyLogsChanges(t *testing.T) {
	var buf bytes.Buffer
	d := NewLog(slog.New(slog.NewTextHandler(&buf, nil)))

	require.NoError(t, d.ShowString(LabelCalibrating))
	require.NoError(t, d.ShowString(LabelCalibrating))
	require.NoError(t, d.ShowNumber(42))
	require.NoError(t, d.ShowNumber(42))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	assert.Len(t, lines, 2)
	assert.Equal(t, "  42", d.Text())
}
