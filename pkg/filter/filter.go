// Package filter turns noisy altitude samples into a stable estimate.
//
// A rolling median rejects single-sample spikes that a low-pass filter would
// absorb and slowly bleed into its output; the exponential low-pass behind it
// removes the jitter the median leaves between updates.
package filter

// Filter chains a Median into a LowPass.
//
// This type is not concurrency safe; it is owned by the sampling loop.
type Filter struct {
	median  *Median
	lowpass *LowPass
	last    float32
}

// New creates a filter with a median window of medianSize samples and smoothing factor alpha.
func New(medianSize int, alpha float32) *Filter {
	return &Filter{
		median:  NewMedian(medianSize),
		lowpass: NewLowPass(alpha),
	}
}

// Update feeds one raw altitude sample and returns the smoothed altitude.
func (f *Filter) Update(raw float32) float32 {
	f.last = f.median.Add(raw)
	return f.lowpass.Update(f.last)
}

// Value returns the smoothed altitude.
func (f *Filter) Value() float32 {
	return f.lowpass.Value()
}

// Median returns the median produced by the last Update.
func (f *Filter) Median() float32 {
	return f.last
}

// Lag is the number of updates the median needs before a step reaches its output.
func (f *Filter) Lag() int {
	return f.median.Size() / 2
}

// Reset clears the median window and sets the smoothed altitude to zero.
func (f *Filter) Reset() {
	f.median.Reset()
	f.lowpass.Reset()
	f.last = 0
}
