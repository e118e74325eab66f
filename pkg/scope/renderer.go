package scope

import (
	"fmt"
	"image/color"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"

	"github.com/itohio/goalt/pkg/alarm"
	"github.com/itohio/goalt/pkg/altimeter"
)

var (
	colorGrid     = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	colorLabel    = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	colorRaw      = color.RGBA{R: 90, G: 90, B: 90, A: 255}
	colorMedian   = color.RGBA{R: 255, G: 165, B: 0, A: 255}
	colorSmoothed = color.RGBA{R: 100, G: 200, B: 255, A: 255}
	colorWarn     = color.RGBA{R: 220, G: 200, B: 0, A: 255}
	colorDanger   = color.RGBA{R: 230, G: 50, B: 50, A: 255}
)

const (
	marginLeft   = 60
	marginRight  = 20
	marginTop    = 20
	marginBottom = 40
)

type renderer struct {
	scope   *Widget
	bg      *canvas.Rectangle
	objects []fyne.CanvasObject

	lastSize fyne.Size
}

func (r *renderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

func (r *renderer) Layout(size fyne.Size) {
	r.bg.Resize(size)
	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

func (r *renderer) Refresh() {
	r.scope.mu.RLock()
	readings := r.scope.readings
	a := r.scope.axes
	th := r.scope.thresholds
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	r.objects = []fyne.CanvasObject{r.bg}
	if size.Width == 0 || size.Height == 0 {
		return
	}

	plot := fyne.NewPos(marginLeft, marginTop)
	plotSize := fyne.NewSize(size.Width-marginLeft-marginRight, size.Height-marginTop-marginBottom)

	r.drawGrid(plot, plotSize, a)
	r.drawThresholds(plot, plotSize, a, th)

	r.drawTrace(plot, plotSize, a, readings, func(rd altimeter.Reading) float32 { return rd.Raw }, colorRaw, 1)
	r.drawTrace(plot, plotSize, a, readings, func(rd altimeter.Reading) float32 { return rd.Median }, colorMedian, 1.5)
	r.drawTrace(plot, plotSize, a, readings, func(rd altimeter.Reading) float32 { return rd.Smoothed }, colorSmoothed, 2.5)

	if len(readings) > 0 {
		last := readings[len(readings)-1]
		r.drawStatus(plot, last)
	}
}

func (r *renderer) drawGrid(plot fyne.Position, size fyne.Size, a axes) {
	const hLines, vLines = 8, 10

	for i := range hLines + 1 {
		y := plot.Y + float32(i)*size.Height/hLines
		r.line(fyne.NewPos(plot.X, y), fyne.NewPos(plot.X+size.Width, y), colorGrid, 1)

		value := a.yMax - float32(i)*(a.yMax-a.yMin)/hLines
		r.text(fmt.Sprintf("%.2f m", value), fyne.NewPos(plot.X-5, y-6), fyne.TextAlignTrailing, colorLabel, 10)
	}

	span := a.tMax - a.tMin
	for i := range vLines + 1 {
		x := plot.X + float32(i)*size.Width/vLines
		r.line(fyne.NewPos(x, plot.Y), fyne.NewPos(x, plot.Y+size.Height), colorGrid, 1)

		offset := span * time.Duration(i) / vLines
		r.text(formatOffset(offset-span), fyne.NewPos(x-20, plot.Y+size.Height+5), fyne.TextAlignCenter, colorLabel, 10)
	}
}

func (r *renderer) drawThresholds(plot fyne.Position, size fyne.Size, a axes, th alarm.Thresholds) {
	for _, band := range []struct {
		v float32
		c color.Color
	}{
		{th.WarnHigh, colorWarn},
		{th.WarnLow, colorWarn},
		{th.DangerHigh, colorDanger},
		{th.DangerLow, colorDanger},
	} {
		if band.v < a.yMin || band.v > a.yMax {
			continue
		}
		p := a.project(plot, size, a.tMin, band.v)
		r.line(fyne.NewPos(plot.X, p.Y), fyne.NewPos(plot.X+size.Width, p.Y), band.c, 1)
	}
}

func (r *renderer) drawTrace(plot fyne.Position, size fyne.Size, a axes, readings []altimeter.Reading, value func(altimeter.Reading) float32, c color.Color, width float32) {
	if len(readings) < 2 {
		return
	}
	prev := a.project(plot, size, readings[0].Uptime, value(readings[0]))
	for _, rd := range readings[1:] {
		p := a.project(plot, size, rd.Uptime, value(rd))
		r.line(prev, p, c, width)
		prev = p
	}
}

func (r *renderer) drawStatus(plot fyne.Position, last altimeter.Reading) {
	c := color.Color(colorSmoothed)
	switch last.Zone {
	case alarm.Warn:
		c = colorWarn
	case alarm.Danger:
		c = colorDanger
	}
	status := fmt.Sprintf("%.2f m  %s  ref %.2f mbar", last.Smoothed, last.Zone, last.Reference)
	r.text(status, fyne.NewPos(plot.X+10, plot.Y+10), fyne.TextAlignLeading, c, 11)
}

func (r *renderer) line(p1, p2 fyne.Position, c color.Color, width float32) {
	l := canvas.NewLine(c)
	l.Position1 = p1
	l.Position2 = p2
	l.StrokeWidth = width
	r.objects = append(r.objects, l)
}

func (r *renderer) text(s string, pos fyne.Position, align fyne.TextAlign, c color.Color, size float32) {
	t := canvas.NewText(s, c)
	t.TextSize = size
	t.Alignment = align
	t.Move(pos)
	r.objects = append(r.objects, t)
}

func (r *renderer) Objects() []fyne.CanvasObject {
	return r.objects
}

func (r *renderer) Destroy() {}

func formatOffset(d time.Duration) string {
	if d == 0 {
		return "now"
	}
	return fmt.Sprintf("%.0fs", d.Seconds())
}
