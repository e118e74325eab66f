// Package altitude converts barometric pressure into altitude relative to a
// reference pressure using the standard troposphere model.
package altitude

import (
	"errors"

	"github.com/chewxy/math32"
)

const (
	// ScaleHeight is the 44330 m coefficient of the international barometric formula.
	ScaleHeight float32 = 44330.0
	// Exponent is 1/5.255, the barometric formula exponent.
	Exponent float32 = 0.1903
)

// ErrInvalidPressure is returned when a pressure can not take part in a conversion.
var ErrInvalidPressure = errors.New("invalid pressure")

// Valid reports whether p is a finite, positive pressure.
func Valid(p float32) bool {
	return p > 0 && !math32.IsInf(p, 0) && !math32.IsNaN(p)
}

// Convert returns the altitude in metres of pressure relative to reference (both mbar).
// altitude = 44330 * (1 - (pressure/reference)^0.1903)
// Degenerate input never reaches Pow and yields 0.
func Convert(pressure, reference float32) float32 {
	if !Valid(pressure) || !Valid(reference) {
		return 0
	}
	return ScaleHeight * (1 - math32.Pow(pressure/reference, Exponent))
}

// Pressure is the inverse of Convert: the pressure observed at altitude metres
// above a point where reference was measured.
func Pressure(altitude, reference float32) float32 {
	if !Valid(reference) {
		return 0
	}
	ratio := 1 - altitude/ScaleHeight
	if ratio <= 0 {
		return 0
	}
	return reference * math32.Pow(ratio, 1/Exponent)
}

// Centimeters rounds metres to whole centimetres, half away from zero.
func Centimeters(meters float32) int {
	return int(math32.Round(meters * 100))
}
