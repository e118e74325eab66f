// Package scope is a Fyne widget plotting altitude history against the alarm thresholds.
package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goalt/pkg/alarm"
	"github.com/itohio/goalt/pkg/altimeter"
	"github.com/itohio/goalt/pkg/trace"
)

const maxDisplayPoints = 1000

// Widget shows raw, median and smoothed altitude over a sliding window.
type Widget struct {
	widget.BaseWidget

	thresholds alarm.Thresholds
	window     time.Duration

	mu       sync.RWMutex
	readings []altimeter.Reading // downsampled, reused between updates
	axes     axes
}

// New creates a scope for the given thresholds and window.
func New(thresholds alarm.Thresholds, window time.Duration) *Widget {
	if window <= 0 {
		window = trace.DefaultWindow
	}
	s := &Widget{
		thresholds: thresholds,
		window:     window,
		readings:   make([]altimeter.Reading, 0, maxDisplayPoints),
	}
	s.axes = computeAxes(nil, thresholds, window)
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// Update replaces the plotted history. Call it on the Fyne goroutine (fyne.Do).
func (s *Widget) Update(readings []altimeter.Reading) {
	s.mu.Lock()
	s.readings = trace.Downsample(s.readings, readings, maxDisplayPoints)
	s.axes = computeAxes(s.readings, s.thresholds, s.window)
	s.mu.Unlock()

	s.Refresh()
}

// CreateRenderer implements fyne.Widget.
func (s *Widget) CreateRenderer() fyne.WidgetRenderer {
	bg := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &renderer{
		scope:   s,
		bg:      bg,
		objects: []fyne.CanvasObject{bg},
	}
}

// axes is the visible data range.
type axes struct {
	yMin, yMax float32
	tMin, tMax time.Duration
}

// computeAxes fits all traces and the warning thresholds, with a 10% margin.
// The time axis spans at least window.
func computeAxes(readings []altimeter.Reading, th alarm.Thresholds, window time.Duration) axes {
	a := axes{yMin: th.WarnLow, yMax: th.WarnHigh}
	for _, r := range readings {
		for _, v := range [...]float32{r.Raw, r.Median, r.Smoothed} {
			a.yMin = min(a.yMin, v)
			a.yMax = max(a.yMax, v)
		}
	}
	span := a.yMax - a.yMin
	if span <= 0 {
		span = 1
	}
	a.yMin -= span * 0.1
	a.yMax += span * 0.1

	if len(readings) > 0 {
		a.tMax = readings[len(readings)-1].Uptime
	}
	a.tMin = a.tMax - window
	return a
}

// project maps a point in data space to pixels inside the plot rectangle.
func (a axes) project(plot fyne.Position, size fyne.Size, t time.Duration, v float32) fyne.Position {
	tSpan := float32((a.tMax - a.tMin).Seconds())
	if tSpan <= 0 {
		tSpan = 1
	}
	x := plot.X + float32((t-a.tMin).Seconds())/tSpan*size.Width
	y := plot.Y + size.Height - (v-a.yMin)/(a.yMax-a.yMin)*size.Height
	return fyne.NewPos(x, y)
}
