// Package baro defines barometric pressure sources.
package baro

import (
	"errors"
	"fmt"

	"github.com/itohio/goalt/pkg/altitude"
)

var (
	// ErrSensorAbsent is returned by Begin when no sensor answers. It is fatal.
	ErrSensorAbsent = errors.New("pressure sensor not detected")
	// ErrSensorRead is returned when a single read fails. It is recoverable.
	ErrSensorRead = errors.New("pressure sensor read failed")
)

// Sensor defines the interface for pressure sensors (real or mocked).
type Sensor interface {
	// Begin probes the sensor. It fails with ErrSensorAbsent when none is found.
	Begin() error
	// Read triggers a conversion and returns the pressure in mbar.
	Read() (float32, error)
	Close() error
}

// Ensure drivers implement Sensor.
var _ Sensor = (*Mock)(nil)

// CheckPressure turns a failure sentinel (non-positive or non-finite pressure)
// into ErrSensorRead.
func CheckPressure(p float32) (float32, error) {
	if !altitude.Valid(p) {
		return 0, fmt.Errorf("%w: sentinel %v mbar", ErrSensorRead, p)
	}
	return p, nil
}
