// Package trace keeps a sliding time window of altimeter readings for plotting.
package trace

import (
	"sync"
	"time"

	"github.com/itohio/goalt/pkg/altimeter"
)

// DefaultWindow is the history kept when none is given.
const DefaultWindow = 30 * time.Second

// Recorder is a FIFO of readings ordered oldest first. Readings older than the
// window, measured on Reading.Uptime, are dropped as new ones arrive.
type Recorder struct {
	window time.Duration

	mu       sync.RWMutex
	readings []altimeter.Reading

	callbacks []func(readings []altimeter.Reading)
	cbMu      sync.RWMutex
}

// New creates a Recorder keeping window of history.
func New(window time.Duration) *Recorder {
	if window <= 0 {
		window = DefaultWindow
	}
	return &Recorder{window: window}
}

// Window returns the history length.
func (r *Recorder) Window() time.Duration {
	return r.window
}

// Add appends a reading. It matches altimeter.Altimeter.OnUpdate.
func (r *Recorder) Add(rd altimeter.Reading) {
	r.mu.Lock()

	// Uptime going backwards means a new run; start over.
	if n := len(r.readings); n > 0 && rd.Uptime < r.readings[n-1].Uptime {
		r.readings = r.readings[:0]
	}

	r.readings = append(r.readings, rd)

	cutoff := rd.Uptime - r.window
	drop := 0
	for drop < len(r.readings) && r.readings[drop].Uptime <= cutoff {
		drop++
	}
	if drop > 0 {
		r.readings = append(r.readings[:0], r.readings[drop:]...)
	}

	readings := r.snapshot()
	r.mu.Unlock()

	r.notifyCallbacks(readings)
}

// Clear drops all history.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.readings = r.readings[:0]
}

// Readings returns a copy of the history, oldest first.
func (r *Recorder) Readings() []altimeter.Reading {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.snapshot()
}

// OnUpdate registers a callback invoked after every Add with a copy of the
// history. Callbacks run on the caller of Add.
func (r *Recorder) OnUpdate(callback func(readings []altimeter.Reading)) {
	r.cbMu.Lock()
	defer r.cbMu.Unlock()
	r.callbacks = append(r.callbacks, callback)
}

// snapshot must be called with mu held.
func (r *Recorder) snapshot() []altimeter.Reading {
	readings := make([]altimeter.Reading, len(r.readings))
	copy(readings, r.readings)
	return readings
}

func (r *Recorder) notifyCallbacks(readings []altimeter.Reading) {
	r.cbMu.RLock()
	callbacks := make([]func([]altimeter.Reading), len(r.callbacks))
	copy(callbacks, r.callbacks)
	r.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(readings)
		}
	}
}
