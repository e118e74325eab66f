// Package tm1637 drives a TM1637 4-digit 7-segment module through periph GPIO.
package tm1637

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/devices/v3/tm1637"
	"periph.io/x/host/v3"

	"github.com/itohio/goalt/pkg/display"
	"github.com/itohio/goalt/pkg/display/segment"
)

// MaxBrightness is the highest of the 8 TM1637 duty levels.
const MaxBrightness = 7

// writer is the part of *tm1637.Dev the display uses.
type writer interface {
	Write(seg []byte) (int, error)
}

// Display is a display.Display on a TM1637.
type Display struct {
	mu   sync.Mutex
	dev  writer
	last []byte
}

// Ensure Display implements display.Display.
var _ display.Display = (*Display)(nil)

// Open initializes periph, looks the pins up by name and configures brightness (0-7).
func Open(clkPin, dioPin string, brightness int) (*Display, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}

	clk := gpioreg.ByName(clkPin)
	if clk == nil {
		return nil, fmt.Errorf("clock pin %q not found", clkPin)
	}
	dio := gpioreg.ByName(dioPin)
	if dio == nil {
		return nil, fmt.Errorf("data pin %q not found", dioPin)
	}

	dev, err := tm1637.New(clk, dio)
	if err != nil {
		return nil, fmt.Errorf("tm1637 init: %w", err)
	}
	if err := dev.SetBrightness(Brightness(brightness)); err != nil {
		return nil, fmt.Errorf("tm1637 brightness: %w", err)
	}

	return &Display{dev: dev}, nil
}

// Brightness maps a 0-7 level onto the TM1637 display-on command.
func Brightness(level int) tm1637.Brightness {
	level = max(0, min(level, MaxBrightness))
	return tm1637.Brightness(0x88 | level)
}

// ShowNumber shows n, clamped and right-aligned.
func (d *Display) ShowNumber(n int) error {
	return d.write(segment.Encode(segment.FormatNumber(n)))
}

// ShowString shows a 4-character label.
func (d *Display) ShowString(label string) error {
	return d.write(segment.Encode(label))
}

func (d *Display) write(seg []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if string(seg) == string(d.last) {
		return nil
	}
	if _, err := d.dev.Write(seg); err != nil {
		return fmt.Errorf("tm1637 write: %w", err)
	}
	d.last = seg
	return nil
}
