package filter

import "github.com/chewxy/math32"

// LowPass is a first-order exponential (IIR) smoothing filter.
type LowPass struct {
	alpha float32
	value float32
}

// NewLowPass creates a filter with smoothing factor alpha, clamped into (0, 1].
// Smaller alpha is smoother but slower to react.
func NewLowPass(alpha float32) *LowPass {
	if alpha <= 0 || alpha > 1 {
		alpha = 1
	}
	return &LowPass{alpha: alpha}
}

// Update blends x into the state and returns the new value.
func (f *LowPass) Update(x float32) float32 {
	f.value = f.value*(1-f.alpha) + x*f.alpha
	return f.value
}

// Value returns the current filter output.
func (f *LowPass) Value() float32 {
	return f.value
}

// Alpha returns the smoothing factor.
func (f *LowPass) Alpha() float32 {
	return f.alpha
}

// Reset sets the output back to zero.
func (f *LowPass) Reset() {
	f.value = 0
}

// SettlingTicks returns how many updates a step response needs to get within
// tolerance (a fraction, e.g. 0.01) of the target: ceil(ln(tol)/ln(1-alpha)).
func SettlingTicks(alpha, tolerance float32) int {
	if alpha >= 1 {
		return 1
	}
	if alpha <= 0 || tolerance <= 0 || tolerance >= 1 {
		return 0
	}
	return int(math32.Ceil(math32.Log(tolerance) / math32.Log(1-alpha)))
}
