package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goalt/pkg/altimeter"
	"github.com/itohio/goalt/pkg/baro"
	"github.com/itohio/goalt/pkg/config"
	"github.com/itohio/goalt/pkg/logging"
	"github.com/itohio/goalt/pkg/scope"
	"github.com/itohio/goalt/pkg/trace"
)

const (
	minSimAltitude = -50
	maxSimAltitude = 100

	// Scope redraws at most this often.
	updateInterval = 33 * time.Millisecond
)

func main() {
	var (
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		windowFlag = flag.Duration("window", trace.DefaultWindow, "Scope history length")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logger, err := logging.New(cfg.Log, "altsim")
	if err != nil {
		log.Fatal(err)
	}

	application := app.NewWithID("com.itohio.goalt")
	window := application.NewWindow("Relative Altimeter")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		logger:     logger,
		window:     window,
		sensor:     baro.NewMock(&cfg.Mock),
		recorder:   trace.New(*windowFlag),
		segments:   newSegmentDisplay(),
		lamp:       newLamp(),
		scope:      scope.New(cfg.Alarm.Thresholds, *windowFlag),
	}

	window.SetContent(container.NewBorder(createToolbar(state), nil, nil, nil, state.scope))
	window.SetOnClosed(state.stop)

	state.start()
	window.ShowAndRun()
}

type appState struct {
	cfg        *config.Config
	configPath string
	logger     *slog.Logger
	window     fyne.Window

	sensor   *baro.Mock
	alt      *altimeter.Altimeter
	recorder *trace.Recorder

	segments    *segmentDisplay
	lamp        *lamp
	scope       *scope.Widget
	altLabel    *widget.Label
	calibrateBt *widget.Button

	cancel context.CancelFunc
	done   chan struct{}

	lastUpdate time.Time
	updateMu   sync.Mutex
}

func createToolbar(state *appState) fyne.CanvasObject {
	state.altLabel = widget.NewLabel(formatSimAltitude(state.cfg.Mock.Altitude))

	slider := widget.NewSlider(minSimAltitude, maxSimAltitude)
	slider.Step = 0.1
	slider.SetValue(float64(state.cfg.Mock.Altitude))
	slider.OnChanged = func(v float64) {
		state.sensor.SetAltitude(float32(v))
		state.altLabel.SetText(formatSimAltitude(float32(v)))
	}

	state.calibrateBt = widget.NewButtonWithIcon("Calibrate", theme.ViewRefreshIcon(), func() {
		if state.alt != nil && !state.alt.RequestCalibration() {
			state.logger.Debug("calibration request ignored")
		}
	})

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	left := container.NewHBox(state.calibrateBt, settingsBtn, state.lamp, state.segments)
	center := container.NewBorder(nil, nil, widget.NewLabel("Simulated altitude"), state.altLabel, slider)
	return container.NewBorder(nil, nil, left, nil, center)
}

// start runs the altimeter loop on its own goroutine.
func (state *appState) start() {
	alt := altimeter.New(state.cfg, state.sensor, state.segments, state.lamp, state.logger)
	state.alt = alt

	alt.OnUpdate(state.recorder.Add)
	state.recorder.OnUpdate(func(readings []altimeter.Reading) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdate) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdate = now
		state.updateMu.Unlock()

		fyne.Do(func() {
			state.scope.Update(readings)
		})
	})

	ctx, cancel := context.WithCancel(context.Background())
	state.cancel = cancel
	state.done = make(chan struct{})

	go func() {
		defer close(state.done)
		err := alt.Run(ctx)
		if errors.Is(err, baro.ErrSensorAbsent) {
			fyne.Do(func() {
				dialog.ShowError(fmt.Errorf("sensor not detected, restart with mock.absent disabled: %w", err), state.window)
				state.calibrateBt.Disable()
			})
			return
		}
		if err != nil {
			state.logger.Error("altimeter stopped", "error", err)
		}
	}()
}

// stop cancels the loop and waits for it to exit.
func (state *appState) stop() {
	if state.cancel == nil {
		return
	}
	state.cancel()
	<-state.done
	state.sensor.Close()
	state.cancel = nil
}

func formatSimAltitude(m float32) string {
	return fmt.Sprintf("%7.1f m", m)
}
