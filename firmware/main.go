//go:build tinygo

//go:generate tinygo flash -target=pico

package main

import (
	"context"
	"machine"
	"time"

	"tinygo.org/x/drivers/bme280"
	"tinygo.org/x/drivers/tm1637"

	"github.com/itohio/goalt/pkg/alarm"
	"github.com/itohio/goalt/pkg/altitude"
	"github.com/itohio/goalt/pkg/baro/diag"
	"github.com/itohio/goalt/pkg/calibration"
	"github.com/itohio/goalt/pkg/display/segment"
	"github.com/itohio/goalt/pkg/filter"
)

var (
	uart = machine.Serial

	sensor bme280.Device
	disp   tm1637.Device

	smoother = filter.New(MEDIAN_SIZE, ALPHA)
	alarms   = alarm.New(alarm.Thresholds{
		WarnHigh:   WARN_HIGH,
		WarnLow:    WARN_LOW,
		DangerHigh: DANGER_HIGH,
		DangerLow:  DANGER_LOW,
	}, alarm.DefaultWarnPeriod)
	trigger = calibration.NewTrigger(CAL_LOCKOUT)
	calib   *calibration.Manager

	boot time.Time

	// Timing
	lastSensor  time.Time
	lastDisplay time.Time

	// Display state
	shownCm     int
	shownNumber bool
	haveReading bool

	lineBuf [48]byte
)

func main() {
	boot = time.Now()

	uart.Configure(machine.UARTConfig{BaudRate: UART_BAUD_RATE})

	PIN_ALARM.Configure(machine.PinConfig{Mode: machine.PinOutput})
	PIN_ALARM.Low()

	disp = tm1637.New(PIN_CLK, PIN_DIO, BRIGHTNESS)
	disp.Configure()
	showString("INIT")

	i2c := machine.I2C0
	if err := i2c.Configure(machine.I2CConfig{
		SDA:       PIN_SDA,
		SCL:       PIN_SCL,
		Frequency: 400 * machine.KHz,
	}); err != nil {
		halt("i2c: " + err.Error())
	}

	sensor = bme280.New(i2c)
	if !sensor.Connected() {
		halt("pressure sensor not detected")
	}
	sensor.Configure()

	calib = calibration.New(barometer{}, smoother, indicator{}, calibration.Options{
		Samples:     CAL_SAMPLES,
		Interval:    CAL_INTERVAL,
		Validate:    true,
		MinPressure: calibration.DefaultMinPressure,
		MaxPressure: calibration.DefaultMaxPressure,
	})

	// The handler only sets the debounced request flag.
	PIN_BUTTON.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	PIN_BUTTON.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		trigger.Request(uptime())
	})

	calibrate()

	for {
		if trigger.Take() {
			calibrate()
		}

		now := time.Now()
		if now.Sub(lastSensor) >= SENSOR_INTERVAL {
			lastSensor = now
			sensorTick()
		}
		if now.Sub(lastDisplay) >= DISPLAY_INTERVAL {
			lastDisplay = now
			displayTick()
		}

		time.Sleep(time.Millisecond)
	}
}

func uptime() time.Duration {
	return time.Since(boot)
}

func calibrate() {
	PIN_ALARM.Low()
	shownNumber = false

	ref, err := calib.Calibrate(context.Background())
	if err != nil {
		println("calibration failed:", err.Error())
		return
	}
	haveReading = false
	println("calibrated, reference mbar:", ref)

	// Start both tasks fresh after the blocking calibration.
	lastSensor = time.Time{}
	lastDisplay = time.Time{}
}

func sensorTick() {
	millis := uptime().Milliseconds()

	ref, ok := calib.Reference()
	if !ok {
		PIN_ALARM.Low()
		return
	}

	p, err := barometer{}.Read()
	if err != nil {
		// Skip the tick; the smoothed altitude holds.
		uart.Write(diag.AppendError(lineBuf[:0], millis))
		return
	}

	smoothed := smoother.Update(altitude.Convert(p, ref))
	zone, on := alarms.Signal(smoothed, uptime())
	PIN_ALARM.Set(on)
	haveReading = true

	uart.Write(diag.Append(lineBuf[:0], millis, p, smoothed, zone.String()))
}

func displayTick() {
	if !calib.Calibrated() {
		showString("Err ")
		shownNumber = false
		return
	}
	if !haveReading {
		return
	}

	cm := altitude.Centimeters(smoother.Value())
	if shownNumber && cm == shownCm {
		return
	}
	disp.DisplayNumber(int16(segment.Clamp(cm)))
	shownCm = cm
	shownNumber = true
}

func showString(label string) {
	disp.DisplayText([]byte(label))
}

// halt shows the error label and stops; the sensor is required.
func halt(reason string) {
	PIN_ALARM.Low()
	showString("Err ")
	for {
		println("FATAL:", reason)
		time.Sleep(time.Second)
	}
}

// barometer adapts the BME280 to calibration.Sampler.
type barometer struct{}

func (barometer) Read() (float32, error) {
	p, err := sensor.ReadPressure() // milli-Pascal
	if err != nil {
		return 0, err
	}
	mbar := float32(p) / 100000
	if !altitude.Valid(mbar) {
		return 0, altitude.ErrInvalidPressure
	}
	return mbar, nil
}

// indicator adapts the TM1637 to calibration.Indicator.
type indicator struct{}

func (indicator) ShowString(label string) error {
	showString(label)
	return nil
}
