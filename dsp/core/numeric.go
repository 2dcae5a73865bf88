// Package core holds the numeric primitives shared by the DSP and synth
// packages: range clamping, denormal flushing, pitch math, and finiteness
// checks for the render path's input validation.
package core

import "math"

const defaultEpsilon = 1e-12

// denormalEpsilon bounds the magnitude below which a sample is treated as
// zero. Well above the float64 denormal range, so feedback paths settle
// instead of grinding through gradual underflow.
const denormalEpsilon = 1e-30

// Clamp limits value to [lo, hi]. Swapped bounds are reordered, so callers
// can pass modulated limits without checking their order.
func Clamp(value, lo, hi float64) float64 {
	if lo > hi {
		lo, hi = hi, lo
	}

	if value < lo {
		return lo
	}

	if value > hi {
		return hi
	}

	return value
}

// IsFinite reports whether x is neither NaN nor infinite.
func IsFinite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

// FlushDenormals snaps near-zero values to exact zero, keeping recursive
// filters and envelope tails out of denormal arithmetic.
func FlushDenormals(x float64) float64 {
	if x > -denormalEpsilon && x < denormalEpsilon {
		return 0
	}

	return x
}

// CentsToRatio converts a pitch offset in cents to a frequency ratio.
// 1200 cents is one octave, so CentsToRatio(1200) == 2.
func CentsToRatio(cents float64) float64 {
	return math.Exp2(cents / 1200)
}

// NearlyEqual reports whether a and b match within eps, absolutely for
// small magnitudes and relatively otherwise. A non-positive eps falls back
// to a float64 round-off tolerance.
func NearlyEqual(a, b, eps float64) bool {
	if eps <= 0 {
		eps = defaultEpsilon
	}

	diff := math.Abs(a - b)
	if diff <= eps {
		return true
	}

	largest := math.Max(math.Abs(a), math.Abs(b))
	if largest == 0 {
		return diff <= eps
	}

	return diff/largest <= eps
}
