package altimeter

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/itohio/goalt/pkg/alarm"
	"github.com/itohio/goalt/pkg/altitude"
	"github.com/itohio/goalt/pkg/baro"
	"github.com/itohio/goalt/pkg/config"
	"github.com/itohio/goalt/pkg/display"
	"github.com/itohio/goalt/pkg/pin"
)

const groundPressure = float32(1013.25)

type fakeSensor struct {
	mu       sync.Mutex
	beginErr error
	readErr  error
	pressure float32
	reads    int
}

func (s *fakeSensor) Begin() error { return s.beginErr }
func (s *fakeSensor) Close() error { return nil }

func (s *fakeSensor) Read() (float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	if s.readErr != nil {
		return 0, s.readErr
	}
	return s.pressure, nil
}

func (s *fakeSensor) setAltitude(m float32) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pressure = altitude.Pressure(m, groundPressure)
}

func (s *fakeSensor) setErr(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.readErr = err
}

type fakeDisplay struct {
	labels  []string
	numbers []int
	text    string
}

func (d *fakeDisplay) ShowNumber(n int) error {
	d.numbers = append(d.numbers, n)
	d.text = ""
	return nil
}

func (d *fakeDisplay) ShowString(label string) error {
	d.labels = append(d.labels, label)
	d.text = label
	return nil
}

func (d *fakeDisplay) count(label string) int {
	n := 0
	for _, l := range d.labels {
		if l == label {
			n++
		}
	}
	return n
}

type fakeClock struct {
	now time.Duration
}

func (c *fakeClock) Now() time.Duration { return c.now }

func (c *fakeClock) Sleep(_ context.Context, d time.Duration) error {
	c.now += d
	return nil
}

type fixture struct {
	alt     *Altimeter
	sensor  *fakeSensor
	display *fakeDisplay
	out     *pin.Nop
	clock   *fakeClock
	cfg     *config.Config
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	cfg := config.Default()
	cfg.Calibration.Samples = 10

	f := &fixture{
		sensor:  &fakeSensor{pressure: groundPressure},
		display: &fakeDisplay{},
		out:     &pin.Nop{},
		clock:   &fakeClock{},
		cfg:     cfg,
	}
	f.alt = New(cfg, f.sensor, f.display, f.out, nil, WithClock(f.clock.Now), WithSleeper(f.clock.Sleep))
	return f
}

// run advances the clock by one sensor period per step.
func (f *fixture) run(n int) {
	for range n {
		f.clock.now += f.cfg.Scheduler.SensorInterval
		f.alt.Step(context.Background())
	}
}

func TestStart_Calibrates(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.alt.Start(context.Background()))

	ref, ok := f.alt.Reference()
	require.True(t, ok)
	assert.InDelta(t, groundPressure, ref, 1e-3)
	assert.Equal(t, float32(0), f.alt.Smoothed())
	assert.Equal(t, []string{display.LabelInit, display.LabelCalibrating, display.LabelDone}, f.display.labels)
	assert.Equal(t, 10, f.sensor.reads)
	assert.Equal(t, 9*f.cfg.Calibration.Interval, f.clock.now)
}

func TestStart_SensorAbsent(t *testing.T) {
	f := newFixture(t)
	f.sensor.beginErr = errors.New("no ack")

	err := f.alt.Start(context.Background())
	assert.ErrorIs(t, err, baro.ErrSensorAbsent)
	assert.Equal(t, display.LabelError, f.display.text)
	assert.Zero(t, f.sensor.reads)

	_, ok := f.alt.Reference()
	assert.False(t, ok)
}

func TestRun_SensorAbsent(t *testing.T) {
	f := newFixture(t)
	f.sensor.beginErr = baro.ErrSensorAbsent

	err := f.alt.Run(context.Background())
	assert.ErrorIs(t, err, baro.ErrSensorAbsent)
}

func TestStep_TracksAltitude(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.alt.Start(context.Background()))

	f.sensor.setAltitude(20)
	f.run(1000)

	assert.InDelta(t, 20, f.alt.Smoothed(), 0.05)

	r, ok := f.alt.Last()
	require.True(t, ok)
	assert.InDelta(t, 20, r.Raw, 0.05)
	assert.InDelta(t, 20, r.Median, 0.05)
	assert.Equal(t, alarm.Normal, r.Zone)
	assert.False(t, r.Alarm)
	assert.False(t, f.out.On())
	assert.InDelta(t, groundPressure, r.Reference, 1e-3)

	require.NotEmpty(t, f.display.numbers)
	assert.InDelta(t, 2000, f.display.numbers[len(f.display.numbers)-1], 5)
}

func TestStep_SmoothedIsSlow(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.alt.Start(context.Background()))

	f.sensor.setAltitude(20)
	f.run(10)

	// Ten ticks at alpha 0.03 cover well under half of a step.
	assert.Less(t, f.alt.Smoothed(), float32(10))
	assert.Greater(t, f.alt.Smoothed(), float32(0))
}

func TestStep_SpikeRejected(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.alt.Start(context.Background()))

	f.run(50)
	f.sensor.setAltitude(500)
	f.run(1)
	f.sensor.setAltitude(0)
	f.run(1)

	assert.InDelta(t, 0, f.alt.Smoothed(), 1e-3)
}

func TestStep_Danger(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.alt.Start(context.Background()))

	f.sensor.setAltitude(60)
	f.run(1000)

	r, ok := f.alt.Last()
	require.True(t, ok)
	assert.Equal(t, alarm.Danger, r.Zone)
	assert.True(t, r.Alarm)
	assert.True(t, f.out.On())
}

func TestStep_WarnBlinks(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.alt.Start(context.Background()))

	f.sensor.setAltitude(35)
	f.run(1000)

	seen := map[bool]int{}
	for range 120 {
		f.run(1)
		r, ok := f.alt.Last()
		require.True(t, ok)
		require.Equal(t, alarm.Warn, r.Zone)
		assert.Equal(t, r.Uptime%f.cfg.Alarm.WarnPeriod < f.cfg.Alarm.WarnPeriod/2, r.Alarm)
		assert.Equal(t, r.Alarm, f.out.On())
		seen[r.Alarm]++
	}
	assert.Positive(t, seen[true])
	assert.Positive(t, seen[false])
}

func TestStep_ReadFailureSkipsTick(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.alt.Start(context.Background()))

	f.sensor.setAltitude(20)
	f.run(100)
	before := f.alt.Smoothed()
	last, _ := f.alt.Last()

	f.sensor.setErr(baro.ErrSensorRead)
	f.run(5)

	assert.Equal(t, before, f.alt.Smoothed())
	assert.Equal(t, 5, f.alt.ReadFailures())
	r, _ := f.alt.Last()
	assert.Equal(t, last, r)

	f.sensor.setErr(nil)
	f.run(1)
	assert.Zero(t, f.alt.ReadFailures())
	assert.Greater(t, f.alt.Smoothed(), before)
}

func TestStep_DisplayRedrawsOnlyOnChange(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.alt.Start(context.Background()))

	// Constant ground pressure keeps the altitude at 0 cm.
	f.run(500)

	assert.Equal(t, []int{0}, f.display.numbers)
}

func TestStep_DisplayIntervals(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.alt.Start(context.Background()))

	f.sensor.setAltitude(10)
	f.run(250) // 5 s

	// At most one redraw per display period.
	assert.LessOrEqual(t, len(f.display.numbers), 21)
	assert.Greater(t, len(f.display.numbers), 5)
}

func TestRequestCalibration_Collapses(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.alt.Start(context.Background()))
	f.run(10)

	assert.True(t, f.alt.RequestCalibration())
	for range 5 {
		assert.False(t, f.alt.RequestCalibration())
	}

	f.run(1)
	f.run(20)
	assert.Equal(t, 2, f.display.count(display.LabelCalibrating))
}

func TestRequestCalibration_ResetsToZero(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.alt.Start(context.Background()))

	f.sensor.setAltitude(20)
	f.run(1000)
	require.InDelta(t, 20, f.alt.Smoothed(), 0.05)

	require.True(t, f.alt.RequestCalibration())
	f.run(1)

	ref, ok := f.alt.Reference()
	require.True(t, ok)
	assert.InDelta(t, altitude.Pressure(20, groundPressure), ref, 1e-3)
	assert.InDelta(t, 0, f.alt.Smoothed(), 1e-3)

	f.run(100)
	assert.Equal(t, 0, f.display.numbers[len(f.display.numbers)-1])
}

func TestRequestCalibration_FailureKeepsReference(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.alt.Start(context.Background()))
	f.run(20)

	f.sensor.setErr(baro.ErrSensorRead)
	require.True(t, f.alt.RequestCalibration())
	f.run(1)
	assert.Equal(t, 1, f.display.count(display.LabelError))

	ref, ok := f.alt.Reference()
	require.True(t, ok)
	assert.InDelta(t, groundPressure, ref, 1e-3)

	f.sensor.setErr(nil)
	f.run(50)
	assert.Empty(t, f.display.text)
	assert.Equal(t, 0, f.display.numbers[len(f.display.numbers)-1])
}

func TestStep_Uncalibrated(t *testing.T) {
	f := newFixture(t)
	f.sensor.setErr(baro.ErrSensorRead)

	require.NoError(t, f.alt.Start(context.Background()))
	_, ok := f.alt.Reference()
	require.False(t, ok)

	f.run(50)
	assert.Equal(t, display.LabelError, f.display.text)
	assert.Empty(t, f.display.numbers)
	assert.False(t, f.out.On())
	_, ok = f.alt.Last()
	assert.False(t, ok)

	// A later successful calibration brings the altimeter up.
	f.sensor.setErr(nil)
	require.True(t, f.alt.RequestCalibration())
	f.run(50)
	_, ok = f.alt.Reference()
	assert.True(t, ok)
	assert.Equal(t, 0, f.display.numbers[len(f.display.numbers)-1])
}

func TestOnUpdate(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.alt.Start(context.Background()))

	var got []Reading
	f.alt.OnUpdate(func(r Reading) { got = append(got, r) })

	f.run(10)
	require.Len(t, got, 10)
	for i := 1; i < len(got); i++ {
		assert.Greater(t, got[i].Uptime, got[i-1].Uptime)
	}
}

func TestRun_StopsOnCancel(t *testing.T) {
	cfg := config.Default()
	cfg.Calibration.Samples = 2
	cfg.Calibration.Interval = time.Millisecond
	sensor := &fakeSensor{pressure: groundPressure}
	out := &pin.Nop{}
	a := New(cfg, sensor, &fakeDisplay{}, out, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- a.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, out.On())
}
