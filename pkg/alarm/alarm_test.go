package alarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testThresholds = Thresholds{WarnHigh: 30, WarnLow: -10, DangerHigh: 40, DangerLow: -15}

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		altitude float32
		want     Zone
	}{
		{0, Normal},
		{29.9, Normal},
		{30.0, Warn},
		{39.99, Warn},
		{40.0, Danger},
		{1000, Danger},
		{-9.9, Normal},
		{-10.0, Warn},
		{-14.9, Warn},
		{-15.0, Danger},
		{-200, Danger},
	}
	for _, tt := range tests {
		t.Run(tt.want.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, testThresholds.Classify(tt.altitude), "altitude %v", tt.altitude)
		})
	}
}

func TestClassify_DangerHasPriority(t *testing.T) {
	// Overlapping bands: the outer bound wins.
	th := Thresholds{WarnHigh: 10, WarnLow: -10, DangerHigh: 10, DangerLow: -10}
	assert.Equal(t, Danger, th.Classify(10))
	assert.Equal(t, Danger, th.Classify(-10))
}

func TestRender_WarnBlink(t *testing.T) {
	a := New(testThresholds, 1200*time.Millisecond)

	assert.True(t, a.Render(Warn, 0))
	assert.True(t, a.Render(Warn, 599*time.Millisecond))
	assert.False(t, a.Render(Warn, 600*time.Millisecond))
	assert.False(t, a.Render(Warn, 700*time.Millisecond))
	assert.True(t, a.Render(Warn, 1200*time.Millisecond))
	assert.False(t, a.Render(Warn, 1900*time.Millisecond))
}

func TestRender_DangerAndNormal(t *testing.T) {
	a := New(testThresholds, 0)
	assert.Equal(t, DefaultWarnPeriod, a.WarnPeriod)
	for _, ms := range []int{0, 150, 600, 700, 1199, 5000} {
		ts := time.Duration(ms) * time.Millisecond
		assert.True(t, a.Render(Danger, ts))
		assert.False(t, a.Render(Normal, ts))
	}
}

func TestSignal(t *testing.T) {
	a := New(testThresholds, 1200*time.Millisecond)

	zone, on := a.Signal(35, 700*time.Millisecond)
	assert.Equal(t, Warn, zone)
	assert.False(t, on)

	zone, on = a.Signal(-20, 700*time.Millisecond)
	assert.Equal(t, Danger, zone)
	assert.True(t, on)

	zone, on = a.Signal(1, 0)
	assert.Equal(t, Normal, zone)
	assert.False(t, on)
}

func TestThresholds_Validate(t *testing.T) {
	require.NoError(t, testThresholds.Validate())

	bad := testThresholds
	bad.WarnLow = 31
	assert.ErrorIs(t, bad.Validate(), ErrThresholds)

	bad = testThresholds
	bad.DangerHigh = 20
	assert.ErrorIs(t, bad.Validate(), ErrThresholds)
}

func TestZone_String(t *testing.T) {
	assert.Equal(t, "normal", Normal.String())
	assert.Equal(t, "warn", Warn.String())
	assert.Equal(t, "danger", Danger.String())
	assert.Equal(t, "zone(7)", Zone(7).String())
}
