// Package display defines the numeric display the altimeter drives.
package display

import (
	"log/slog"
	"sync"

	"github.com/itohio/goalt/pkg/display/segment"
)

// Status labels.
const (
	LabelInit        = "INIT"
	LabelCalibrating = "CAL "
	LabelDone        = "Done"
	LabelError       = "Err "
)

// Display shows a signed centimetre value or a short status label.
type Display interface {
	// ShowNumber shows n, clamped to [-999, 9999].
	ShowNumber(n int) error
	// ShowString shows a label of up to four characters.
	ShowString(label string) error
}

// Log is a Display that writes what it would show to a logger, only when the
// content changes.
type Log struct {
	logger *slog.Logger

	mu   sync.Mutex
	text string
}

// Ensure Log implements Display.
var _ Display = (*Log)(nil)

// NewLog creates a logging display.
func NewLog(logger *slog.Logger) *Log {
	if logger == nil {
		logger = slog.Default()
	}
	return &Log{logger: logger.With("component", "display")}
}

// ShowNumber logs the clamped number.
func (d *Log) ShowNumber(n int) error {
	n = segment.Clamp(n)
	text := segment.FormatNumber(n)
	if d.swap(text) {
		d.logger.Info("altitude", "cm", n)
	}
	return nil
}

// ShowString logs the label.
func (d *Log) ShowString(label string) error {
	if d.swap(label) {
		d.logger.Info("status", "label", label)
	}
	return nil
}

// Text returns what is currently shown.
func (d *Log) Text() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.text
}

func (d *Log) swap(text string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.text == text {
		return false
	}
	d.text = text
	return true
}
