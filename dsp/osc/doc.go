// Package osc provides bandlimited oscillators for real-time synthesis.
//
// An Oscillator renders one sample per Tick at a caller-supplied frequency,
// so glide, vibrato, and pitch modulation reduce to passing an updated
// frequency on each call. Sine output reads a shared precomputed wavetable
// with cubic (default) or linear interpolation; sawtooth and square carry a
// PolyBLEP correction at their discontinuities; triangle uses the closed
// form.
package osc
