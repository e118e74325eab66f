// Package alarm classifies altitude into alarm zones and renders the zone
// into an on/off signal for an indicator line.
package alarm

import (
	"errors"
	"fmt"
	"time"
)

// Zone is the alarm band an altitude falls into.
type Zone int

const (
	Normal Zone = iota
	Warn
	Danger
)

// DefaultWarnPeriod is the full on+off cycle of the warning blink.
const DefaultWarnPeriod = 1200 * time.Millisecond

// ErrThresholds is returned by Thresholds.Validate.
var ErrThresholds = errors.New("invalid alarm thresholds")

func (z Zone) String() string {
	switch z {
	case Normal:
		return "normal"
	case Warn:
		return "warn"
	case Danger:
		return "danger"
	default:
		return fmt.Sprintf("zone(%d)", int(z))
	}
}

// Thresholds are the altitude bounds, in metres, of the Warn and Danger bands.
type Thresholds struct {
	WarnHigh   float32 `yaml:"warn_high" json:"warn_high"`
	WarnLow    float32 `yaml:"warn_low" json:"warn_low"`
	DangerHigh float32 `yaml:"danger_high" json:"danger_high"`
	DangerLow  float32 `yaml:"danger_low" json:"danger_low"`
}

// Validate checks DangerLow <= WarnLow < WarnHigh <= DangerHigh.
func (t Thresholds) Validate() error {
	if t.DangerLow > t.WarnLow || t.WarnLow >= t.WarnHigh || t.WarnHigh > t.DangerHigh {
		return fmt.Errorf("%w: want danger_low <= warn_low < warn_high <= danger_high, got %v <= %v < %v <= %v",
			ErrThresholds, t.DangerLow, t.WarnLow, t.WarnHigh, t.DangerHigh)
	}
	return nil
}

// Classify returns the zone of altitude. The outer (Danger) bounds are checked first.
func (t Thresholds) Classify(altitude float32) Zone {
	switch {
	case altitude >= t.DangerHigh || altitude <= t.DangerLow:
		return Danger
	case altitude >= t.WarnHigh || altitude <= t.WarnLow:
		return Warn
	default:
		return Normal
	}
}

// Alarm maps altitude to an indicator signal. It keeps no state between calls:
// the blink phase is a function of the clock alone.
type Alarm struct {
	Thresholds
	WarnPeriod time.Duration
}

// New returns an Alarm; a non-positive period selects DefaultWarnPeriod.
func New(t Thresholds, warnPeriod time.Duration) Alarm {
	if warnPeriod <= 0 {
		warnPeriod = DefaultWarnPeriod
	}
	return Alarm{Thresholds: t, WarnPeriod: warnPeriod}
}

// Render returns the indicator level for zone at monotonic time t.
// Danger is solid on, Warn is on for the first half of every period, Normal is off.
func (a Alarm) Render(zone Zone, t time.Duration) bool {
	switch zone {
	case Danger:
		return true
	case Warn:
		period := a.WarnPeriod
		if period <= 0 {
			period = DefaultWarnPeriod
		}
		phase := t % period
		if phase < 0 {
			phase += period
		}
		return phase < period/2
	default:
		return false
	}
}

// Signal classifies altitude and renders it at time t.
func (a Alarm) Signal(altitude float32, t time.Duration) (Zone, bool) {
	zone := a.Classify(altitude)
	return zone, a.Render(zone, t)
}
