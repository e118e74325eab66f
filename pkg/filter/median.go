package filter

import "slices"

// Median is a rolling median over a fixed-size circular window.
//
// Slots that were never written read as zero, so the median is biased towards
// zero until the window has been filled once.
//
// This type is not concurrency safe.
type Median struct {
	values []float32
	sorted []float32
	index  int
}

// NewMedian creates a window of size samples. Sizes below 1 are treated as 1.
func NewMedian(size int) *Median {
	if size < 1 {
		size = 1
	}
	return &Median{
		values: make([]float32, size),
		sorted: make([]float32, size),
	}
}

// Add overwrites the oldest value with v and returns the median of the window.
func (m *Median) Add(v float32) float32 {
	m.values[m.index] = v
	m.index = (m.index + 1) % len(m.values)

	copy(m.sorted, m.values)
	slices.Sort(m.sorted)
	return m.sorted[len(m.sorted)/2]
}

// Size returns the window capacity.
func (m *Median) Size() int {
	return len(m.values)
}

// Reset zeroes the window and rewinds the write position.
func (m *Median) Reset() {
	clear(m.values)
	clear(m.sorted)
	m.index = 0
}
