package effects

import (
	"fmt"
	"math"
	"sync/atomic"
)

const (
	// defaultRampSeconds is the time constant shared by audible effect
	// parameters.
	defaultRampSeconds = 0.015

	// rampSnapEpsilon ends a ramp once the remaining distance is inaudible.
	rampSnapEpsilon = 1e-9
)

// Ramp smooths a parameter toward an atomically published target with a
// one-pole approach, so audible settings never step. SetTarget is safe from
// any goroutine; every other method belongs to the render thread.
type Ramp struct {
	target atomic.Uint64 // float64 bits
	value  float64
	coeff  float64
}

// NewRamp builds a ramp with the given time constant in seconds. A zero time
// constant makes the ramp follow its target immediately.
func NewRamp(sampleRate, seconds, initial float64) (*Ramp, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("effects: ramp sample rate must be > 0 and finite: %f", sampleRate)
	}

	if seconds < 0 || math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return nil, fmt.Errorf("effects: ramp time must be >= 0 and finite: %f", seconds)
	}

	r := &Ramp{value: initial}
	if seconds == 0 {
		r.coeff = 1
	} else {
		r.coeff = 1 - math.Exp(-1/(seconds*sampleRate))
	}

	r.target.Store(math.Float64bits(initial))

	return r, nil
}

// SetTarget publishes a new target for the ramp to approach. NaN is ignored.
func (r *Ramp) SetTarget(v float64) {
	if math.IsNaN(v) {
		return
	}

	r.target.Store(math.Float64bits(v))
}

// Target returns the published target.
func (r *Ramp) Target() float64 {
	return math.Float64frombits(r.target.Load())
}

// Value returns the current smoothed value without advancing the ramp.
func (r *Ramp) Value() float64 { return r.value }

// Jump sets value and target at once, skipping the ramp.
func (r *Ramp) Jump(v float64) {
	if math.IsNaN(v) {
		return
	}

	r.value = v
	r.target.Store(math.Float64bits(v))
}

// Cut drops the current value without touching the target, so the parameter
// ramps back up from v. The delay send uses Cut(0) on preset swaps to re-arm
// its feedback gain.
func (r *Ramp) Cut(v float64) {
	if math.IsNaN(v) {
		return
	}

	r.value = v
}

// Tick advances one sample toward the target and returns the new value.
func (r *Ramp) Tick() float64 {
	t := math.Float64frombits(r.target.Load())

	r.value += (t - r.value) * r.coeff
	if math.Abs(t-r.value) < rampSnapEpsilon {
		r.value = t
	}

	return r.value
}
