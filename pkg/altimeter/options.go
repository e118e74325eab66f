package altimeter

import (
	"time"

	"github.com/itohio/goalt/pkg/calibration"
)

// Clock returns monotonic time since an arbitrary fixed origin.
type Clock func() time.Duration

// MonotonicClock returns a Clock counting from now on the runtime's monotonic clock.
func MonotonicClock() Clock {
	origin := time.Now()
	return func() time.Duration {
		return time.Since(origin)
	}
}

// Option configures an Altimeter.
type Option func(*Altimeter)

// WithClock sets the time source used for task scheduling, blink phase and debouncing.
func WithClock(clock Clock) Option {
	return func(a *Altimeter) {
		if clock != nil {
			a.clock = clock
		}
	}
}

// WithSleeper sets the wait between calibration samples.
func WithSleeper(sleep calibration.Sleeper) Option {
	return func(a *Altimeter) {
		if sleep != nil {
			a.sleep = sleep
		}
	}
}
