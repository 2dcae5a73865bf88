// Package svf implements a Chamberlin state-variable filter for per-voice
// subtractive synthesis.
//
// The filter exposes the lowpass tap. Cutoff and resonance setters clamp
// instead of returning errors because modulation drives them on every
// sample.
package svf

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
)

const (
	minCutoffHz    = 20.0
	maxCutoffRatio = 0.42

	minResonance = 0.0
	maxResonance = 3.0

	defaultCutoffHz  = 1000.0
	defaultResonance = 0.7
)

// Filter is a two-integrator-loop state-variable filter with low, band, and
// high taps. ProcessSample returns the lowpass output.
type Filter struct {
	sampleRate float64
	maxCutoff  float64

	cutoffHz  float64
	resonance float64

	coeff float64 // 2*sin(pi*cutoff/sampleRate)
	damp  float64 // 1/(resonance+0.5)

	low  float64
	band float64
	high float64
}

// New constructs a state-variable filter with a 1 kHz cutoff and moderate
// resonance.
func New(sampleRate float64) (*Filter, error) {
	if math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) || sampleRate <= 0 {
		return nil, fmt.Errorf("svf: sample rate must be > 0 and finite: %f", sampleRate)
	}

	f := &Filter{
		sampleRate: sampleRate,
		maxCutoff:  maxCutoffRatio * sampleRate,
	}
	f.SetCutoff(defaultCutoffHz)
	f.SetResonance(defaultResonance)

	return f, nil
}

// SampleRate returns the sample rate in Hz.
func (f *Filter) SampleRate() float64 { return f.sampleRate }

// CutoffHz returns the clamped cutoff frequency in Hz.
func (f *Filter) CutoffHz() float64 { return f.cutoffHz }

// Resonance returns the clamped resonance.
func (f *Filter) Resonance() float64 { return f.resonance }

// SetCutoff updates the cutoff frequency in Hz, clamped to
// [20, 0.42*sampleRate]. NaN leaves the cutoff unchanged.
func (f *Filter) SetCutoff(hz float64) {
	if math.IsNaN(hz) {
		return
	}

	hz = core.Clamp(hz, minCutoffHz, f.maxCutoff)
	if hz == f.cutoffHz {
		return
	}

	f.cutoffHz = hz
	f.coeff = 2 * math.Sin(math.Pi*hz/f.sampleRate)
}

// SetResonance updates the resonance, clamped to [0, 3]. The damping factor
// is 1/(resonance+0.5), so resonance 0 stays bounded instead of dividing by
// zero. NaN leaves the resonance unchanged.
func (f *Filter) SetResonance(r float64) {
	if math.IsNaN(r) {
		return
	}

	r = core.Clamp(r, minResonance, maxResonance)
	if r == f.resonance {
		return
	}

	f.resonance = r
	f.damp = 1 / (r + 0.5)
}

// SetSampleRate switches the internal rate, re-deriving the cutoff
// coefficient and upper cutoff bound. The engine uses this when toggling
// oversampling. Non-positive or non-finite rates are ignored.
func (f *Filter) SetSampleRate(sampleRate float64) {
	if math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) || sampleRate <= 0 {
		return
	}

	f.sampleRate = sampleRate
	f.maxCutoff = maxCutoffRatio * sampleRate

	hz := core.Clamp(f.cutoffHz, minCutoffHz, f.maxCutoff)
	f.cutoffHz = hz
	f.coeff = 2 * math.Sin(math.Pi*hz/f.sampleRate)
}

// ProcessSample advances the filter by one sample and returns the lowpass
// output.
func (f *Filter) ProcessSample(x float64) float64 {
	f.low += f.coeff * f.band
	f.high = x - f.low - f.damp*f.band
	f.band += f.coeff * f.high

	f.low = core.FlushDenormals(f.low)
	f.band = core.FlushDenormals(f.band)

	return f.low
}

// ProcessInPlace filters buf in place.
func (f *Filter) ProcessInPlace(buf []float64) {
	for i, x := range buf {
		buf[i] = f.ProcessSample(x)
	}
}

// Reset zeroes the low, band, and high taps. Voices call this on (re)trigger
// so filter state does not bleed between unrelated notes.
func (f *Filter) Reset() {
	f.low, f.band, f.high = 0, 0, 0
}
