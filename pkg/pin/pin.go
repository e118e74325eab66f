// Package pin drives the alarm line and watches the calibration button.
package pin

import (
	"context"
	"fmt"
	"sync"
	"time"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Output is a binary signal line.
type Output interface {
	Set(on bool) error
}

// Nop is an Output that only remembers its level.
type Nop struct {
	mu sync.Mutex
	on bool
}

// Set records the level.
func (n *Nop) Set(on bool) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.on = on
	return nil
}

// On returns the last level set.
func (n *Nop) On() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.on
}

// GPIO is an Output on a periph pin. Unchanged levels are not rewritten.
type GPIO struct {
	pin   gpio.PinOut
	level gpio.Level
	init  bool
}

// OpenOutput looks up a pin by name, configures it as output and drives it low.
func OpenOutput(name string) (*GPIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("pin %q not found", name)
	}
	o := &GPIO{pin: p}
	if err := o.Set(false); err != nil {
		return nil, err
	}
	return o, nil
}

// Set drives the pin high when on.
func (o *GPIO) Set(on bool) error {
	level := gpio.Level(on)
	if o.init && level == o.level {
		return nil
	}
	if err := o.pin.Out(level); err != nil {
		return fmt.Errorf("set %s: %w", o.pin, err)
	}
	o.level = level
	o.init = true
	return nil
}

// EdgeWaiter is the part of gpio.PinIn the button watcher needs.
type EdgeWaiter interface {
	WaitForEdge(timeout time.Duration) bool
}

// OpenButton looks up a pin by name and configures it as a pulled-up input
// that reports falling edges (button to ground).
func OpenButton(name string) (gpio.PinIO, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("periph host init: %w", err)
	}
	p := gpioreg.ByName(name)
	if p == nil {
		return nil, fmt.Errorf("pin %q not found", name)
	}
	if err := p.In(gpio.PullUp, gpio.FallingEdge); err != nil {
		return nil, fmt.Errorf("configure %s: %w", name, err)
	}
	return p, nil
}

// WatchButton calls onEdge for every edge reported by p until ctx is done.
// onEdge runs on the watcher goroutine and must not block.
func WatchButton(ctx context.Context, p EdgeWaiter, poll time.Duration, onEdge func()) {
	if poll <= 0 {
		poll = 100 * time.Millisecond
	}
	for ctx.Err() == nil {
		if p.WaitForEdge(poll) && ctx.Err() == nil {
			onEdge()
		}
	}
}
