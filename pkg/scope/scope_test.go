package scope

import (
	"testing"
	"time"

	"fyne.io/fyne/v2"
	"github.com/stretchr/testify/assert"

	"github.com/itohio/goalt/pkg/alarm"
	"github.com/itohio/goalt/pkg/altimeter"
)

var testThresholds = alarm.Thresholds{WarnHigh: 30, WarnLow: -10, DangerHigh: 40, DangerLow: -15}

func TestComputeAxes_Empty(t *testing.T) {
	a := computeAxes(nil, testThresholds, 10*time.Second)

	// Warning band plus 10% margin.
	assert.InDelta(t, -14, a.yMin, 1e-4)
	assert.InDelta(t, 34, a.yMax, 1e-4)
	assert.Equal(t, -10*time.Second, a.tMin)
	assert.Equal(t, time.Duration(0), a.tMax)
}

func TestComputeAxes_FitsTraces(t *testing.T) {
	readings := []altimeter.Reading{
		{Uptime: 1 * time.Second, Raw: 80, Median: 50, Smoothed: 20},
		{Uptime: 2 * time.Second, Raw: -30, Median: -20, Smoothed: 0},
	}
	a := computeAxes(readings, testThresholds, 10*time.Second)

	assert.InDelta(t, -41, a.yMin, 1e-4)
	assert.InDelta(t, 91, a.yMax, 1e-4)
	assert.Equal(t, 2*time.Second, a.tMax)
	assert.Equal(t, -8*time.Second, a.tMin)
}

func TestAxes_Project(t *testing.T) {
	a := axes{yMin: 0, yMax: 10, tMin: 0, tMax: 10 * time.Second}
	plot := fyne.NewPos(60, 20)
	size := fyne.NewSize(100, 50)

	p := a.project(plot, size, 0, 0)
	assert.Equal(t, fyne.NewPos(60, 70), p)

	p = a.project(plot, size, 10*time.Second, 10)
	assert.Equal(t, fyne.NewPos(160, 20), p)

	p = a.project(plot, size, 5*time.Second, 5)
	assert.Equal(t, fyne.NewPos(110, 45), p)
}

func TestFormatOffset(t *testing.T) {
	assert.Equal(t, "now", formatOffset(0))
	assert.Equal(t, "-10s", formatOffset(-10*time.Second))
}
