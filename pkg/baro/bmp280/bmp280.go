// Package bmp280 reads a Bosch BMP280/BME280 barometer over I2C through periph.
package bmp280

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/bmxx80"
	"periph.io/x/host/v3"

	"github.com/itohio/goalt/pkg/baro"
)

// device is the part of *bmxx80.Dev the sensor uses.
type device interface {
	Sense(e *physic.Env) error
	Halt() error
}

// Sensor is a baro.Sensor backed by a bmxx80 device.
type Sensor struct {
	busName string
	addr    uint16

	mu  sync.Mutex
	bus i2c.BusCloser
	dev device
}

// Ensure Sensor implements baro.Sensor.
var _ baro.Sensor = (*Sensor)(nil)

// New creates a sensor on busName (empty selects the first bus) at addr.
func New(busName string, addr uint16) *Sensor {
	return &Sensor{busName: busName, addr: addr}
}

// Opts favours pressure resolution: 16x pressure oversampling, no IIR filter
// since filtering is done in software.
func Opts() bmxx80.Opts {
	opts := bmxx80.DefaultOpts
	opts.Pressure = bmxx80.O16x
	opts.Filter = bmxx80.NoFilter
	return opts
}

// Begin initializes periph, opens the bus and probes the chip.
func (s *Sensor) Begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := host.Init(); err != nil {
		return fmt.Errorf("%w: periph host init: %w", baro.ErrSensorAbsent, err)
	}

	bus, err := i2creg.Open(s.busName)
	if err != nil {
		return fmt.Errorf("%w: i2c open %q: %w", baro.ErrSensorAbsent, s.busName, err)
	}

	opts := Opts()
	dev, err := bmxx80.NewI2C(bus, s.addr, &opts)
	if err != nil {
		_ = bus.Close()
		return fmt.Errorf("%w: bmxx80 at 0x%02X: %w", baro.ErrSensorAbsent, s.addr, err)
	}

	s.bus = bus
	s.dev = dev
	return nil
}

// Read performs one forced conversion and returns the pressure in mbar.
func (s *Sensor) Read() (float32, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dev == nil {
		return 0, fmt.Errorf("%w: not initialized", baro.ErrSensorRead)
	}

	var e physic.Env
	if err := s.dev.Sense(&e); err != nil {
		return 0, fmt.Errorf("%w: sense: %w", baro.ErrSensorRead, err)
	}
	return baro.CheckPressure(Millibar(e.Pressure))
}

// Close halts the device and releases the bus.
func (s *Sensor) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	var err error
	if s.dev != nil {
		err = s.dev.Halt()
		s.dev = nil
	}
	if s.bus != nil {
		if cerr := s.bus.Close(); cerr != nil && err == nil {
			err = cerr
		}
		s.bus = nil
	}
	return err
}

// Millibar converts a periph pressure to mbar (1 mbar = 100 Pa).
func Millibar(p physic.Pressure) float32 {
	pa := float64(p) / float64(physic.Pascal)
	return float32(pa / 100.0)
}
