package baro

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/goalt/pkg/altitude"
	"github.com/itohio/goalt/pkg/config"
)

// Mock simulates a pressure sensor for testing and development.
type Mock struct {
	cfg *config.MockConfig

	mu      sync.Mutex
	started bool
	closed  bool

	// Simulation state
	altitude float32 // Simulated altitude above BasePressure (m)
	reads    int
	start    time.Time
}

// NewMock creates a new mocked sensor instance.
func NewMock(cfg *config.MockConfig) *Mock {
	if cfg == nil {
		cfg = &config.MockConfig{
			BasePressure: 1013.25,
			NoiseLevel:   0.02,
		}
	}

	return &Mock{
		cfg:      cfg,
		altitude: cfg.Altitude,
	}
}

// Begin simulates probing the sensor.
func (m *Mock) Begin() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.cfg.Absent {
		return fmt.Errorf("%w: mock configured absent", ErrSensorAbsent)
	}
	m.started = true
	m.closed = false
	m.start = time.Now()
	return nil
}

// Close stops the mocked sensor.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// SetAltitude moves the simulated sensor to altitude metres above BasePressure.
// Safe to call from any goroutine.
func (m *Mock) SetAltitude(alt float32) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.altitude = alt
}

// Altitude returns the simulated altitude.
func (m *Mock) Altitude() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.altitude
}

// Reads returns the number of Read calls so far.
func (m *Mock) Reads() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.reads
}

// Read generates a single simulated pressure sample.
func (m *Mock) Read() (float32, error) {
	if m.cfg.Latency > 0 {
		time.Sleep(m.cfg.Latency)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.started || m.closed {
		return 0, fmt.Errorf("%w: mock not started", ErrSensorRead)
	}

	m.reads++
	if m.cfg.FailEvery > 0 && m.reads%m.cfg.FailEvery == 0 {
		return 0, fmt.Errorf("%w: simulated bus error on read %d", ErrSensorRead, m.reads)
	}

	p := altitude.Pressure(m.altitude, m.cfg.BasePressure)

	// Deterministic noise: two incommensurate tones
	n := float64(m.reads)
	noise := (math.Sin(n*0.7) + math.Cos(n*1.3)) * 0.5
	p += float32(noise) * m.cfg.NoiseLevel

	// Single-sample glitch
	if m.cfg.SpikeEvery > 0 && m.reads%m.cfg.SpikeEvery == 0 {
		p -= m.cfg.SpikeMagnitude
	}

	return CheckPressure(p)
}
