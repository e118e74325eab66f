package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"

	"github.com/itohio/goalt/pkg/config"
)

// showSettingsDialog edits a copy of the configuration and saves it to the
// configuration file. The running altimeter keeps its settings until restart.
func showSettingsDialog(state *appState) {
	cfg := *state.cfg
	tabs := container.NewAppTabs(
		createFilterTab(state, &cfg),
		createAlarmTab(state, &cfg),
		createCalibrationTab(state, &cfg),
		createMockTab(state, &cfg),
	)

	content := container.NewBorder(widget.NewLabel("Saved settings apply after restart."), nil, nil, nil, tabs)
	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 500))
	d.Show()
}

func (state *appState) save(cfg *config.Config) {
	if err := cfg.Validate(); err != nil {
		dialog.ShowError(err, state.window)
		return
	}
	if err := cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

func floatEntry(v float32, format string) *widget.Entry {
	e := widget.NewEntry()
	e.SetText(fmt.Sprintf(format, v))
	return e
}

func parseFloat32(e *widget.Entry, dst *float32) {
	if v, err := strconv.ParseFloat(e.Text, 32); err == nil {
		*dst = float32(v)
	}
}

func parseDuration(e *widget.Entry, dst *time.Duration) {
	if v, err := time.ParseDuration(e.Text); err == nil {
		*dst = v
	}
}

func createFilterTab(state *appState, cfg *config.Config) *container.TabItem {
	medianEntry := widget.NewEntry()
	medianEntry.SetText(strconv.Itoa(cfg.Filter.MedianSize))
	alphaEntry := floatEntry(cfg.Filter.Alpha, "%.3f")

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Median window", Widget: medianEntry},
			{Text: "Low-pass alpha", Widget: alphaEntry},
		},
		OnSubmit: func() {
			if n, err := strconv.Atoi(medianEntry.Text); err == nil {
				cfg.Filter.MedianSize = n
			}
			parseFloat32(alphaEntry, &cfg.Filter.Alpha)
			state.save(cfg)
		},
	}
	return container.NewTabItem("Filter", form)
}

func createAlarmTab(state *appState, cfg *config.Config) *container.TabItem {
	th := &cfg.Alarm.Thresholds
	warnHigh := floatEntry(th.WarnHigh, "%.1f")
	warnLow := floatEntry(th.WarnLow, "%.1f")
	dangerHigh := floatEntry(th.DangerHigh, "%.1f")
	dangerLow := floatEntry(th.DangerLow, "%.1f")
	period := widget.NewEntry()
	period.SetText(cfg.Alarm.WarnPeriod.String())

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Warn above (m)", Widget: warnHigh},
			{Text: "Warn below (m)", Widget: warnLow},
			{Text: "Danger above (m)", Widget: dangerHigh},
			{Text: "Danger below (m)", Widget: dangerLow},
			{Text: "Warn blink period", Widget: period},
		},
		OnSubmit: func() {
			parseFloat32(warnHigh, &th.WarnHigh)
			parseFloat32(warnLow, &th.WarnLow)
			parseFloat32(dangerHigh, &th.DangerHigh)
			parseFloat32(dangerLow, &th.DangerLow)
			parseDuration(period, &cfg.Alarm.WarnPeriod)
			state.save(cfg)
		},
	}
	return container.NewTabItem("Alarm", form)
}

func createCalibrationTab(state *appState, cfg *config.Config) *container.TabItem {
	samples := widget.NewEntry()
	samples.SetText(strconv.Itoa(cfg.Calibration.Samples))
	interval := widget.NewEntry()
	interval.SetText(cfg.Calibration.Interval.String())
	lockout := widget.NewEntry()
	lockout.SetText(cfg.Calibration.Lockout.String())
	validate := widget.NewCheck("", nil)
	validate.SetChecked(cfg.Calibration.Validate)

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Samples", Widget: samples},
			{Text: "Sample interval", Widget: interval},
			{Text: "Button lockout", Widget: lockout},
			{Text: "Plausibility check", Widget: validate},
		},
		OnSubmit: func() {
			if n, err := strconv.Atoi(samples.Text); err == nil {
				cfg.Calibration.Samples = n
			}
			parseDuration(interval, &cfg.Calibration.Interval)
			parseDuration(lockout, &cfg.Calibration.Lockout)
			cfg.Calibration.Validate = validate.Checked
			state.save(cfg)
		},
	}
	return container.NewTabItem("Calibration", form)
}

func createMockTab(state *appState, cfg *config.Config) *container.TabItem {
	m := &cfg.Mock
	base := floatEntry(m.BasePressure, "%.2f")
	noise := floatEntry(m.NoiseLevel, "%.3f")
	spikeEvery := widget.NewEntry()
	spikeEvery.SetText(strconv.Itoa(m.SpikeEvery))
	spikeMagnitude := floatEntry(m.SpikeMagnitude, "%.2f")
	failEvery := widget.NewEntry()
	failEvery.SetText(strconv.Itoa(m.FailEvery))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Base pressure (mbar)", Widget: base},
			{Text: "Noise (mbar)", Widget: noise},
			{Text: "Spike every N reads", Widget: spikeEvery},
			{Text: "Spike size (mbar)", Widget: spikeMagnitude},
			{Text: "Fail every N reads", Widget: failEvery},
		},
		OnSubmit: func() {
			parseFloat32(base, &m.BasePressure)
			parseFloat32(noise, &m.NoiseLevel)
			parseFloat32(spikeMagnitude, &m.SpikeMagnitude)
			if n, err := strconv.Atoi(spikeEvery.Text); err == nil {
				m.SpikeEvery = n
			}
			if n, err := strconv.Atoi(failEvery.Text); err == nil {
				m.FailEvery = n
			}
			state.save(cfg)
		},
	}
	return container.NewTabItem("Mock", form)
}
