package main

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/container"

	"github.com/itohio/goalt/pkg/display"
	"github.com/itohio/goalt/pkg/display/segment"
	"github.com/itohio/goalt/pkg/pin"
)

var (
	colorSegment = color.RGBA{R: 255, G: 40, B: 40, A: 255}
	colorPanel   = color.RGBA{R: 15, G: 15, B: 15, A: 255}
	colorLampOn  = color.RGBA{R: 255, G: 60, B: 30, A: 255}
	colorLampOff = color.RGBA{R: 60, G: 30, B: 30, A: 255}
)

// segmentDisplay mimics the 4-digit module. Safe to call from any goroutine.
type segmentDisplay struct {
	*fyne.Container
	text *canvas.Text
}

var _ display.Display = (*segmentDisplay)(nil)

func newSegmentDisplay() *segmentDisplay {
	text := canvas.NewText(segment.FormatNumber(0), colorSegment)
	text.TextSize = 28
	text.TextStyle = fyne.TextStyle{Monospace: true, Bold: true}
	text.Alignment = fyne.TextAlignCenter

	bg := canvas.NewRectangle(colorPanel)
	bg.SetMinSize(fyne.NewSize(120, 44))
	return &segmentDisplay{
		Container: container.NewStack(bg, text),
		text:      text,
	}
}

func (d *segmentDisplay) ShowNumber(n int) error {
	d.set(segment.FormatNumber(n))
	return nil
}

func (d *segmentDisplay) ShowString(label string) error {
	d.set(label)
	return nil
}

func (d *segmentDisplay) set(s string) {
	fyne.Do(func() {
		d.text.Text = s
		d.text.Refresh()
	})
}

// lamp is the alarm line rendered as an indicator.
type lamp struct {
	*fyne.Container
	circle *canvas.Circle
}

var _ pin.Output = (*lamp)(nil)

func newLamp() *lamp {
	circle := canvas.NewCircle(colorLampOff)
	bg := canvas.NewRectangle(color.Transparent)
	bg.SetMinSize(fyne.NewSize(32, 32))
	return &lamp{
		Container: container.NewStack(bg, circle),
		circle:    circle,
	}
}

func (l *lamp) Set(on bool) error {
	c := colorLampOff
	if on {
		c = colorLampOn
	}
	fyne.Do(func() {
		if l.circle.FillColor != c {
			l.circle.FillColor = c
			l.circle.Refresh()
		}
	})
	return nil
}
