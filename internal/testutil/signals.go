// Package testutil provides shared signal generators and audio assertions
// for the package tests.
package testutil

import "math"

// Sine returns length samples of a sine at freqHz, starting at phase zero.
func Sine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)
	step := 2 * math.Pi * freqHz / sampleRate

	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// Impulse returns a length-sample buffer with a single unit sample at pos.
// An out-of-range pos yields silence.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// PeakAbs returns the largest absolute sample value in buf.
func PeakAbs(buf []float64) float64 {
	var peak float64

	for _, x := range buf {
		if a := math.Abs(x); a > peak {
			peak = a
		}
	}

	return peak
}

// RMS returns the root-mean-square level of buf, 0 for an empty buffer.
func RMS(buf []float64) float64 {
	if len(buf) == 0 {
		return 0
	}

	var sum float64
	for _, x := range buf {
		sum += x * x
	}

	return math.Sqrt(sum / float64(len(buf)))
}
