// Package calibration establishes the zero-altitude reference pressure from an
// averaged burst of sensor readings.
package calibration

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/itohio/goalt/pkg/altitude"
)

const (
	DefaultSamples     = 75
	DefaultInterval    = 30 * time.Millisecond
	DefaultMinPressure = 300
	DefaultMaxPressure = 1100
)

// Labels shown on the indicator while calibrating.
const (
	LabelCalibrating = "CAL "
	LabelDone        = "Done"
	LabelError       = "Err "
)

var (
	// ErrCalibrationFailed wraps every reason a calibration did not commit a reference.
	ErrCalibrationFailed = errors.New("calibration failed")
	// ErrImplausible is returned when the averaged pressure is outside the accepted range.
	ErrImplausible = errors.New("implausible reference pressure")
)

// Sampler yields one pressure reading in mbar per call.
type Sampler interface {
	Read() (float32, error)
}

// Resetter is state that must start over once a new reference is committed.
type Resetter interface {
	Reset()
}

// Indicator shows short status labels to the user.
type Indicator interface {
	ShowString(label string) error
}

// Sleeper waits for d or until ctx is done.
type Sleeper func(ctx context.Context, d time.Duration) error

// Options tune a Manager.
type Options struct {
	Samples  int
	Interval time.Duration
	// Validate enables the [MinPressure, MaxPressure] plausibility check.
	Validate    bool
	MinPressure float32
	MaxPressure float32
}

// DefaultOptions returns 75 samples 30 ms apart with the plausibility check on.
func DefaultOptions() Options {
	return Options{
		Samples:     DefaultSamples,
		Interval:    DefaultInterval,
		Validate:    true,
		MinPressure: DefaultMinPressure,
		MaxPressure: DefaultMaxPressure,
	}
}

// Manager owns the reference pressure.
//
// Calibrate aborts on the first failed read, leaving the previous reference (if
// any) in force.
type Manager struct {
	sampler   Sampler
	reset     Resetter
	indicator Indicator
	sleep     Sleeper
	opts      Options

	reference  float32
	calibrated bool
}

// New creates a Manager. reset and indicator may be nil.
func New(sampler Sampler, reset Resetter, indicator Indicator, opts Options) *Manager {
	if opts.Samples <= 0 {
		opts.Samples = DefaultSamples
	}
	if opts.Interval < 0 {
		opts.Interval = 0
	}
	return &Manager{
		sampler:   sampler,
		reset:     reset,
		indicator: indicator,
		sleep:     Sleep,
		opts:      opts,
	}
}

// SetSleeper replaces the inter-sample wait.
func (m *Manager) SetSleeper(s Sleeper) {
	if s != nil {
		m.sleep = s
	}
}

// Reference returns the committed reference pressure and whether one exists.
func (m *Manager) Reference() (float32, bool) {
	return m.reference, m.calibrated
}

// Calibrated reports whether a reference pressure has been committed.
func (m *Manager) Calibrated() bool {
	return m.calibrated
}

// Options returns the effective options.
func (m *Manager) Options() Options {
	return m.opts
}

// Duration is the upper bound of one calibration run.
func (m *Manager) Duration() time.Duration {
	return time.Duration(m.opts.Samples) * m.opts.Interval
}

// Calibrate takes Samples readings spaced by Interval, averages them and commits
// the mean as the new reference, then resets the filter state.
func (m *Manager) Calibrate(ctx context.Context) (float32, error) {
	m.show(LabelCalibrating)

	ref, err := m.collect(ctx)
	if err != nil {
		m.show(LabelError)
		return 0, err
	}

	m.reference = ref
	m.calibrated = true
	if m.reset != nil {
		m.reset.Reset()
	}

	m.show(LabelDone)
	return ref, nil
}

func (m *Manager) collect(ctx context.Context) (float32, error) {
	var sum float64
	for i := range m.opts.Samples {
		if i > 0 && m.opts.Interval > 0 {
			if err := m.sleep(ctx, m.opts.Interval); err != nil {
				return 0, fmt.Errorf("%w: %w", ErrCalibrationFailed, err)
			}
		}

		p, err := m.sampler.Read()
		if err != nil {
			return 0, fmt.Errorf("%w: sample %d: %w", ErrCalibrationFailed, i, err)
		}
		if !altitude.Valid(p) {
			return 0, fmt.Errorf("%w: sample %d: %w: %v mbar", ErrCalibrationFailed, i, altitude.ErrInvalidPressure, p)
		}
		sum += float64(p)
	}

	ref := float32(sum / float64(m.opts.Samples))
	if m.opts.Validate && (ref < m.opts.MinPressure || ref > m.opts.MaxPressure) {
		return 0, fmt.Errorf("%w: %w: %.2f mbar outside [%.0f, %.0f]",
			ErrCalibrationFailed, ErrImplausible, ref, m.opts.MinPressure, m.opts.MaxPressure)
	}
	return ref, nil
}

func (m *Manager) show(label string) {
	if m.indicator == nil {
		return
	}
	// Status labels are best effort; a display fault must not fail calibration.
	_ = m.indicator.ShowString(label)
}

// Sleep is the default Sleeper.
func Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
