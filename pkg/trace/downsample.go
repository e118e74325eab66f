package trace

// Downsample decimates src to at most maxPoints entries for display.
// It reuses dst when it has enough capacity and returns the result.
func Downsample[T any](dst, src []T, maxPoints int) []T {
	if maxPoints <= 0 || len(src) <= maxPoints {
		if cap(dst) < len(src) {
			dst = make([]T, len(src))
		}
		dst = dst[:len(src)]
		copy(dst, src)
		return dst
	}

	if cap(dst) < maxPoints {
		dst = make([]T, 0, maxPoints)
	}
	dst = dst[:0]

	step := float64(len(src)) / float64(maxPoints)
	for i := range maxPoints {
		dst = append(dst, src[int(float64(i)*step)])
	}
	return dst
}
