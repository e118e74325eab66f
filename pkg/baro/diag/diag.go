// Package diag encodes and parses the diagnostic lines the firmware prints and
// the host reads back as a pressure source. It only depends on strconv so the
// firmware can use it.
//
// Line format: millis,pressure_mbar[,altitude_m,zone] or millis,ERR
// Example: 123456,1013.25,0.42,normal
package diag

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrorField marks a failed sensor read.
const ErrorField = "ERR"

// ErrFormat is returned for lines that cannot be parsed.
var ErrFormat = errors.New("invalid diagnostic line")

// Line is one parsed diagnostic line. Altitude and zone are informational and
// not parsed.
type Line struct {
	Millis   int64
	Pressure float32
	Err      bool
}

// Parse parses one diagnostic line.
func Parse(text string) (Line, error) {
	parts := strings.Split(text, ",")
	if len(parts) < 2 {
		return Line{}, fmt.Errorf("%w: expected at least 2 comma-separated values, got %d", ErrFormat, len(parts))
	}

	millis, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return Line{}, fmt.Errorf("%w: timestamp: %w", ErrFormat, err)
	}

	if parts[1] == ErrorField {
		return Line{Millis: millis, Err: true}, nil
	}

	pressure, err := strconv.ParseFloat(parts[1], 32)
	if err != nil {
		return Line{}, fmt.Errorf("%w: pressure: %w", ErrFormat, err)
	}

	return Line{Millis: millis, Pressure: float32(pressure)}, nil
}

// Append appends a full diagnostic line, newline included, to dst.
func Append(dst []byte, millis int64, pressure, altitude float32, zone string) []byte {
	dst = strconv.AppendInt(dst, millis, 10)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, float64(pressure), 'f', 2, 32)
	dst = append(dst, ',')
	dst = strconv.AppendFloat(dst, float64(altitude), 'f', 2, 32)
	dst = append(dst, ',')
	dst = append(dst, zone...)
	return append(dst, '\n')
}

// AppendError appends a failed-read line to dst.
func AppendError(dst []byte, millis int64) []byte {
	dst = strconv.AppendInt(dst, millis, 10)
	dst = append(dst, ',')
	dst = append(dst, ErrorField...)
	return append(dst, '\n')
}
