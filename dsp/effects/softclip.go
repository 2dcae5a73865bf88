package effects

import "math"

// SoftClip bounds peaks with the cubic polynomial 1.5*(x - x³/3) inside
// [-1, 1] and saturates to ±1 beyond. Small signals pass with a gain of 1.5.
func SoftClip(x float64) float64 {
	ax := math.Abs(x)
	if ax < 1 {
		return 1.5 * (x - (x*x*x)/3)
	}

	return math.Copysign(1, x)
}

// SoftClipTanh is the tanh-shaped alternative to SoftClip.
func SoftClipTanh(x float64) float64 {
	return mathTanh(x)
}

// SoftClipInPlace applies SoftClip to buf in place.
func SoftClipInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = SoftClip(x)
	}
}
