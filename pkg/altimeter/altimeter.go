// Package altimeter runs the altitude estimation loop: it samples the
// barometer, filters the altitude, drives the alarm line and refreshes the
// display from two cooperative periodic tasks on one goroutine.
package altimeter

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/itohio/goalt/pkg/alarm"
	"github.com/itohio/goalt/pkg/altitude"
	"github.com/itohio/goalt/pkg/baro"
	"github.com/itohio/goalt/pkg/calibration"
	"github.com/itohio/goalt/pkg/config"
	"github.com/itohio/goalt/pkg/display"
	"github.com/itohio/goalt/pkg/filter"
	"github.com/itohio/goalt/pkg/pin"
)

// idleSleep keeps the loop from spinning between task deadlines.
const idleSleep = time.Millisecond

// Reading is the outcome of one sensor tick.
type Reading struct {
	Timestamp time.Time
	Uptime    time.Duration
	Pressure  float32    // mbar
	Reference float32    // mbar
	Raw       float32    // unfiltered altitude, m
	Median    float32    // rolling median, m
	Smoothed  float32    // low-pass output, m
	Zone      alarm.Zone // zone of Smoothed
	Alarm     bool       // alarm line level
}

// Altimeter owns all estimation state. Apart from RequestCalibration and
// OnUpdate, its methods must be called from the goroutine running the loop.
type Altimeter struct {
	cfg     *config.Config
	sensor  baro.Sensor
	display display.Display
	out     pin.Output
	logger  *slog.Logger
	clock   Clock
	sleep   calibration.Sleeper

	filter  *filter.Filter
	alarm   alarm.Alarm
	calib   *calibration.Manager
	trigger *calibration.Trigger

	lastSensor  time.Duration
	lastDisplay time.Duration
	sensorRan   bool
	displayRan  bool

	last         Reading
	haveReading  bool
	shownCm      int
	shownNumber  bool
	readFailures int

	callbacks []func(Reading)
	cbMu      sync.RWMutex
}

// New creates an Altimeter. out may be nil when there is no alarm line.
func New(cfg *config.Config, sensor baro.Sensor, disp display.Display, out pin.Output, logger *slog.Logger, options ...Option) *Altimeter {
	if cfg == nil {
		cfg = config.Default()
	}
	if out == nil {
		out = &pin.Nop{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	if disp == nil {
		disp = display.NewLog(logger)
	}

	a := &Altimeter{
		cfg:     cfg,
		sensor:  sensor,
		display: disp,
		out:     out,
		logger:  logger.With("component", "altimeter"),
		clock:   MonotonicClock(),
		sleep:   calibration.Sleep,
		filter:  filter.New(cfg.Filter.MedianSize, cfg.Filter.Alpha),
		alarm:   alarm.New(cfg.Alarm.Thresholds, cfg.Alarm.WarnPeriod),
		trigger: calibration.NewTrigger(cfg.Calibration.Lockout),
	}

	for _, opt := range options {
		opt(a)
	}

	a.calib = calibration.New(sensor, a.filter, disp, calibration.Options{
		Samples:     cfg.Calibration.Samples,
		Interval:    cfg.Calibration.Interval,
		Validate:    cfg.Calibration.Validate,
		MinPressure: cfg.Calibration.MinPressure,
		MaxPressure: cfg.Calibration.MaxPressure,
	})
	a.calib.SetSleeper(a.sleep)

	return a
}

// Start probes the sensor and runs the startup calibration.
// It fails only with baro.ErrSensorAbsent; a failed startup calibration leaves
// the altimeter running uncalibrated until a calibration request succeeds.
func (a *Altimeter) Start(ctx context.Context) error {
	a.showString(display.LabelInit)

	if err := a.sensor.Begin(); err != nil {
		a.showString(display.LabelError)
		if !errors.Is(err, baro.ErrSensorAbsent) {
			err = fmt.Errorf("%w: %w", baro.ErrSensorAbsent, err)
		}
		a.logger.Error("sensor not detected", "error", err)
		return err
	}

	a.calibrate(ctx)
	return nil
}

// Run starts the altimeter and loops until ctx is done.
func (a *Altimeter) Run(ctx context.Context) error {
	if err := a.Start(ctx); err != nil {
		return err
	}

	a.logger.Info("altimeter running",
		"sensor_interval", a.cfg.Scheduler.SensorInterval,
		"display_interval", a.cfg.Scheduler.DisplayInterval)

	for {
		if err := ctx.Err(); err != nil {
			_ = a.out.Set(false)
			return nil
		}
		a.Step(ctx)
		time.Sleep(idleSleep)
	}
}

// Step runs one loop iteration: a pending calibration, then whichever tasks are due.
func (a *Altimeter) Step(ctx context.Context) {
	if a.trigger.Take() {
		a.calibrate(ctx)
	}

	now := a.clock()

	if !a.sensorRan || now-a.lastSensor >= a.cfg.Scheduler.SensorInterval {
		a.lastSensor = now
		a.sensorRan = true
		a.sensorTick(now)
	}

	if !a.displayRan || now-a.lastDisplay >= a.cfg.Scheduler.DisplayInterval {
		a.lastDisplay = now
		a.displayRan = true
		a.displayTick()
	}
}

// RequestCalibration asks the loop to recalibrate. It is safe to call from
// any goroutine, including an edge interrupt handler, and only touches the
// debounced request flag.
func (a *Altimeter) RequestCalibration() bool {
	accepted := a.trigger.Request(a.clock())
	if accepted {
		a.logger.Debug("calibration requested")
	}
	return accepted
}

// OnUpdate registers a callback invoked with every Reading. Callbacks run on
// the loop goroutine and must return quickly.
func (a *Altimeter) OnUpdate(callback func(Reading)) {
	a.cbMu.Lock()
	defer a.cbMu.Unlock()
	a.callbacks = append(a.callbacks, callback)
}

// Smoothed returns the filtered altitude in metres.
func (a *Altimeter) Smoothed() float32 {
	return a.filter.Value()
}

// Reference returns the reference pressure and whether calibration has succeeded.
func (a *Altimeter) Reference() (float32, bool) {
	return a.calib.Reference()
}

// Last returns the most recent Reading and whether there is one.
func (a *Altimeter) Last() (Reading, bool) {
	return a.last, a.haveReading
}

// ReadFailures returns the number of consecutive failed sensor ticks.
func (a *Altimeter) ReadFailures() int {
	return a.readFailures
}

func (a *Altimeter) calibrate(ctx context.Context) {
	_ = a.out.Set(false)
	a.shownNumber = false

	start := a.clock()
	ref, err := a.calib.Calibrate(ctx)
	if err != nil {
		if prev, ok := a.calib.Reference(); ok {
			a.logger.Warn("calibration failed, keeping previous reference", "error", err, "reference_mbar", prev)
		} else {
			a.logger.Error("calibration failed, no reference", "error", err)
		}
		return
	}

	a.haveReading = false
	a.readFailures = 0
	// Restart both tasks from the end of the blocking calibration.
	a.sensorRan = false
	a.displayRan = false
	a.logger.Info("calibrated", "reference_mbar", ref, "took", a.clock()-start)
}

// sensorTick samples once. A failed read skips the tick and keeps the smoothed altitude.
func (a *Altimeter) sensorTick(now time.Duration) {
	ref, ok := a.calib.Reference()
	if !ok {
		_ = a.out.Set(false)
		return
	}

	p, err := a.sensor.Read()
	if err != nil {
		a.readFailures++
		if a.readFailures == 1 || a.readFailures%100 == 0 {
			a.logger.Warn("sensor read failed, skipping tick", "error", err, "consecutive", a.readFailures)
		}
		// Keep the blink phase running on the last known zone.
		if a.haveReading {
			_ = a.out.Set(a.alarm.Render(a.last.Zone, now))
		}
		return
	}
	if a.readFailures > 0 {
		a.logger.Info("sensor read recovered", "after", a.readFailures)
		a.readFailures = 0
	}

	raw := altitude.Convert(p, ref)
	smoothed := a.filter.Update(raw)
	zone, on := a.alarm.Signal(smoothed, now)
	if err := a.out.Set(on); err != nil {
		a.logger.Warn("alarm output failed", "error", err)
	}

	a.last = Reading{
		Timestamp: time.Now(),
		Uptime:    now,
		Pressure:  p,
		Reference: ref,
		Raw:       raw,
		Median:    a.filter.Median(),
		Smoothed:  smoothed,
		Zone:      zone,
		Alarm:     on,
	}
	a.haveReading = true
	a.notifyCallbacks(a.last)
}

// displayTick shows the smoothed altitude in centimetres, redrawing only on change.
func (a *Altimeter) displayTick() {
	if !a.calib.Calibrated() {
		a.showString(display.LabelError)
		a.shownNumber = false
		return
	}
	if !a.haveReading {
		return
	}

	cm := altitude.Centimeters(a.filter.Value())
	if a.shownNumber && cm == a.shownCm {
		return
	}
	if err := a.display.ShowNumber(cm); err != nil {
		a.logger.Warn("display update failed", "error", err)
		return
	}
	a.shownCm = cm
	a.shownNumber = true
}

func (a *Altimeter) showString(label string) {
	if err := a.display.ShowString(label); err != nil {
		a.logger.Warn("display update failed", "label", label, "error", err)
	}
}

// notifyCallbacks invokes all registered callbacks with r.
func (a *Altimeter) notifyCallbacks(r Reading) {
	a.cbMu.RLock()
	callbacks := make([]func(Reading), len(a.callbacks))
	copy(callbacks, a.callbacks)
	a.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(r)
		}
	}
}
