package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/lmittmann/tint"

	"github.com/itohio/goalt/pkg/config"
)

// Formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// New builds the application logger. Text output goes through tint, json is
// meant for log shippers.
func New(cfg config.LogConfig, appName string) (*slog.Logger, error) {
	return NewWriter(os.Stderr, cfg, appName)
}

// NewWriter is New with an explicit destination.
func NewWriter(w io.Writer, cfg config.LogConfig, appName string) (*slog.Logger, error) {
	level, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	var h slog.Handler
	switch strings.ToLower(cfg.Format) {
	case "", FormatText:
		h = tint.NewHandler(w, &tint.Options{
			Level:      level,
			AddSource:  level == slog.LevelDebug,
			TimeFormat: time.StampMilli,
		})
	case FormatJSON:
		h = slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level: level,
		})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return slog.New(h).With("app", appName), nil
}

// ParseLevel accepts debug, info, warn or error in any case.
func ParseLevel(s string) (slog.Level, error) {
	if s == "" {
		return slog.LevelInfo, nil
	}
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("log level %q: %w", s, err)
	}
	return level, nil
}
