package calibration

import (
	"math"
	"sync/atomic"
	"time"
)

// DefaultLockout rejects button bounce and double presses.
const DefaultLockout = 400 * time.Millisecond

// never marks a Trigger that has not accepted a request yet.
const never = math.MinInt64

// Trigger is a debounced calibration request flag.
//
// Request may be called from an interrupt handler or any goroutine; Take is
// called only by the loop that performs calibration. Requests inside the
// lockout window of the last accepted request are dropped, and any number of
// accepted requests before the next Take collapse into one.
type Trigger struct {
	lockout time.Duration

	pending atomic.Bool
	last    atomic.Int64 // monotonic time of the last accepted request, ns, or never
}

// NewTrigger creates a Trigger with the given lockout; negative means none.
func NewTrigger(lockout time.Duration) *Trigger {
	if lockout < 0 {
		lockout = 0
	}
	t := &Trigger{lockout: lockout}
	t.last.Store(never)
	return t
}

// Request records a calibration request at monotonic time now and reports
// whether it was accepted.
func (t *Trigger) Request(now time.Duration) bool {
	last := t.last.Load()
	if last != never && now-time.Duration(last) < t.lockout {
		return false
	}
	if last == int64(now) || !t.last.CompareAndSwap(last, int64(now)) {
		return false
	}
	t.pending.Store(true)
	return true
}

// Take consumes the pending request, if any.
func (t *Trigger) Take() bool {
	return t.pending.CompareAndSwap(true, false)
}

// Pending reports whether a request is waiting without consuming it.
func (t *Trigger) Pending() bool {
	return t.pending.Load()
}
