//go:build tinygo

package main

import (
	"machine"
	"time"
)

const (
	// Scheduling
	SENSOR_INTERVAL  = 20 * time.Millisecond  // 50 Hz pressure sampling
	DISPLAY_INTERVAL = 250 * time.Millisecond // 4 Hz display refresh

	// Calibration
	CAL_SAMPLES  = 75
	CAL_INTERVAL = 30 * time.Millisecond // one conversion per sample
	CAL_LOCKOUT  = 400 * time.Millisecond

	// Filter
	MEDIAN_SIZE = 5
	ALPHA       = 0.03

	// Alarm thresholds (m)
	WARN_HIGH   = 30
	WARN_LOW    = -10
	DANGER_HIGH = 40
	DANGER_LOW  = -15

	// TM1637 brightness 0-7
	BRIGHTNESS = 7

	// I2C pins (I2C0)
	PIN_SDA = machine.GP4
	PIN_SCL = machine.GP5

	// TM1637 pins
	PIN_CLK = machine.GP2
	PIN_DIO = machine.GP3

	// Alarm line and calibration button (to GND)
	PIN_ALARM  = machine.GP15
	PIN_BUTTON = machine.GP14

	// Serial configuration
	// Line "4294967295,1013.25,-123.45,danger\n" is ~36 bytes at 50 Hz = 1,800 bytes/sec.
	// 115200 8N1 carries 11,520 bytes/sec.
	UART_BAUD_RATE = 115200
)
