package altitude

import (
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/assert"
)

func TestConvert_SelfReferenceIsZero(t *testing.T) {
	for _, ref := range []float32{300, 850.5, 1000, 1013.25, 1100} {
		assert.Equal(t, float32(0), Convert(ref, ref), "reference %v", ref)
	}
}

func TestConvert_MonotonicallyDecreasing(t *testing.T) {
	const ref = float32(1013.25)
	prev := Convert(900, ref)
	for p := float32(901); p <= 1100; p++ {
		alt := Convert(p, ref)
		assert.Less(t, alt, prev, "pressure %v", p)
		prev = alt
	}
}

func TestConvert_KnownValue(t *testing.T) {
	// ~1 mbar near sea level is roughly 8.3 m.
	alt := Convert(1012.25, 1013.25)
	assert.InDelta(t, 8.3, alt, 0.2)
	assert.Greater(t, Convert(1000, 1013.25), float32(0))
	assert.Less(t, Convert(1020, 1013.25), float32(0))
}

func TestConvert_Degenerate(t *testing.T) {
	tests := []struct {
		name          string
		pressure, ref float32
	}{
		{"zero reference", 1000, 0},
		{"negative reference", 1000, -1},
		{"zero pressure", 0, 1013.25},
		{"negative pressure sentinel", -1000, 1013.25},
		{"NaN pressure", math32.NaN(), 1013.25},
		{"Inf reference", 1000, math32.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			alt := Convert(tt.pressure, tt.ref)
			assert.Equal(t, float32(0), alt)
			assert.False(t, math32.IsNaN(alt))
		})
	}
}

func TestPressure_InvertsConvert(t *testing.T) {
	const ref = float32(1013.25)
	for _, h := range []float32{-15, -1, 0, 0.5, 10, 40, 500} {
		p := Pressure(h, ref)
		assert.InDelta(t, h, Convert(p, ref), 0.05, "altitude %v", h)
	}
	assert.Equal(t, float32(0), Pressure(10, 0))
}

func TestCentimeters(t *testing.T) {
	assert.Equal(t, 0, Centimeters(0))
	assert.Equal(t, 123, Centimeters(1.234))
	assert.Equal(t, 124, Centimeters(1.235001))
	assert.Equal(t, -50, Centimeters(-0.5))
	assert.Equal(t, -1, Centimeters(-0.006))
}

func TestValid(t *testing.T) {
	assert.True(t, Valid(1013.25))
	assert.False(t, Valid(0))
	assert.False(t, Valid(-1))
	assert.False(t, Valid(math32.NaN()))
	assert.False(t, Valid(math32.Inf(-1)))
}
