//go:build fastmath

package effects

import (
	"github.com/meko-christian/algo-approx"
)

// mathTanh computes tanh(x) using a fast exp approximation and the identity
// tanh(x) = 1 - 2/(e^(2x) + 1).
func mathTanh(x float64) float64 {
	if x > 20 {
		return 1
	}

	if x < -20 {
		return -1
	}

	return 1 - 2/(approx.FastExp(2*x)+1)
}
