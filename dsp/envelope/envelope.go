// Package envelope implements the per-voice amplitude envelope.
//
// The state machine runs idle, attack, decay, release. There is no separate
// sustain stage: decay approaches the sustain level asymptotically and holds
// there until release, which is the intended sound of the instrument rather
// than an approximation of a textbook ADSR.
package envelope

import (
	"fmt"
	"math"
)

const (
	defaultAttackSeconds  = 0.01
	defaultDecaySeconds   = 0.1
	defaultSustainLevel   = 0.8
	defaultReleaseSeconds = 0.2

	maxStageSeconds = 60.0

	// minStageSeconds floors the rate math so zero-length stages stay finite.
	minStageSeconds = 0.001

	// idleThreshold is the release level below which the envelope snaps to
	// exactly 0 and goes idle.
	idleThreshold = 0.001

	// decayRateScale converts a stage length into the per-second approach
	// factor used by the decay and release stages.
	decayRateScale = 5.0
)

// Stage identifies the envelope state.
type Stage int

const (
	// StageIdle outputs 0 and waits for a trigger.
	StageIdle Stage = iota
	// StageAttack ramps linearly toward 1.
	StageAttack
	// StageDecay approaches the sustain level and holds there.
	StageDecay
	// StageRelease decays toward 0, then goes idle.
	StageRelease
)

func (s Stage) String() string {
	switch s {
	case StageIdle:
		return "idle"
	case StageAttack:
		return "attack"
	case StageDecay:
		return "decay"
	case StageRelease:
		return "release"
	default:
		return "unknown"
	}
}

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	attack  float64
	decay   float64
	sustain float64
	release float64
}

func defaultConfig() config {
	return config{
		attack:  defaultAttackSeconds,
		decay:   defaultDecaySeconds,
		sustain: defaultSustainLevel,
		release: defaultReleaseSeconds,
	}
}

// WithAttack sets the attack time in seconds, in [0, 60].
func WithAttack(seconds float64) Option {
	return func(cfg *config) error {
		if err := validateStageSeconds(seconds, "attack"); err != nil {
			return err
		}

		cfg.attack = seconds

		return nil
	}
}

// WithDecay sets the decay time in seconds, in [0, 60].
func WithDecay(seconds float64) Option {
	return func(cfg *config) error {
		if err := validateStageSeconds(seconds, "decay"); err != nil {
			return err
		}

		cfg.decay = seconds

		return nil
	}
}

// WithSustain sets the sustain level, in [0, 1].
func WithSustain(level float64) Option {
	return func(cfg *config) error {
		if math.IsNaN(level) || level < 0 || level > 1 {
			return fmt.Errorf("envelope: sustain must be in [0, 1]: %f", level)
		}

		cfg.sustain = level

		return nil
	}
}

// WithRelease sets the release time in seconds, in [0, 60].
func WithRelease(seconds float64) Option {
	return func(cfg *config) error {
		if err := validateStageSeconds(seconds, "release"); err != nil {
			return err
		}

		cfg.release = seconds

		return nil
	}
}

func validateStageSeconds(seconds float64, name string) error {
	if math.IsNaN(seconds) || seconds < 0 || seconds > maxStageSeconds {
		return fmt.Errorf("envelope: %s must be in [0, %g] seconds: %f", name, maxStageSeconds, seconds)
	}

	return nil
}

// ADSR is a single-voice amplitude envelope. Tick output is the internal
// level scaled by the trigger velocity.
type ADSR struct {
	dt float64

	attack  float64
	decay   float64
	sustain float64
	release float64

	attackRate  float64
	decayRate   float64
	releaseRate float64

	stage    Stage
	value    float64
	velocity float64
}

// New constructs an envelope.
func New(sampleRate float64, opts ...Option) (*ADSR, error) {
	if math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) || sampleRate <= 0 {
		return nil, fmt.Errorf("envelope: sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	e := &ADSR{
		dt:      1 / sampleRate,
		sustain: cfg.sustain,
	}
	e.setAttack(cfg.attack)
	e.setDecay(cfg.decay)
	e.setRelease(cfg.release)

	return e, nil
}

// Attack returns the attack time in seconds.
func (e *ADSR) Attack() float64 { return e.attack }

// Decay returns the decay time in seconds.
func (e *ADSR) Decay() float64 { return e.decay }

// Sustain returns the sustain level.
func (e *ADSR) Sustain() float64 { return e.sustain }

// ReleaseTime returns the release time in seconds. The name avoids the
// Release stage transition below.
func (e *ADSR) ReleaseTime() float64 { return e.release }

// Value returns the internal level before velocity scaling.
func (e *ADSR) Value() float64 { return e.value }

// Stage returns the current stage.
func (e *ADSR) Stage() Stage { return e.stage }

// IsIdle reports whether the envelope has fully faded out.
func (e *ADSR) IsIdle() bool { return e.stage == StageIdle }

// SetAttack updates the attack time, clamped to [0, 60] seconds. NaN leaves
// it unchanged.
func (e *ADSR) SetAttack(seconds float64) {
	if math.IsNaN(seconds) {
		return
	}

	e.setAttack(clampStageSeconds(seconds))
}

// SetDecay updates the decay time, clamped to [0, 60] seconds. NaN leaves it
// unchanged.
func (e *ADSR) SetDecay(seconds float64) {
	if math.IsNaN(seconds) {
		return
	}

	e.setDecay(clampStageSeconds(seconds))
}

// SetSustain updates the sustain level, clamped to [0, 1]. NaN leaves it
// unchanged.
func (e *ADSR) SetSustain(level float64) {
	if math.IsNaN(level) {
		return
	}

	if level < 0 {
		level = 0
	} else if level > 1 {
		level = 1
	}

	e.sustain = level
}

// SetRelease updates the release time, clamped to [0, 60] seconds. NaN
// leaves it unchanged.
func (e *ADSR) SetRelease(seconds float64) {
	if math.IsNaN(seconds) {
		return
	}

	e.setRelease(clampStageSeconds(seconds))
}

func clampStageSeconds(seconds float64) float64 {
	if seconds < 0 {
		return 0
	}

	if seconds > maxStageSeconds {
		return maxStageSeconds
	}

	return seconds
}

func (e *ADSR) setAttack(seconds float64) {
	e.attack = seconds
	e.attackRate = e.dt / math.Max(minStageSeconds, seconds)
}

func (e *ADSR) setDecay(seconds float64) {
	e.decay = seconds
	e.decayRate = e.dt * decayRateScale / math.Max(minStageSeconds, seconds)
}

func (e *ADSR) setRelease(seconds float64) {
	e.release = seconds
	e.releaseRate = e.dt * decayRateScale / math.Max(minStageSeconds, seconds)
}

// SetSampleRate switches the internal rate and rescales the stage rates.
// The engine uses this when toggling oversampling. Non-positive or
// non-finite rates are ignored.
func (e *ADSR) SetSampleRate(sampleRate float64) {
	if math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) || sampleRate <= 0 {
		return
	}

	e.dt = 1 / sampleRate
	e.setAttack(e.attack)
	e.setDecay(e.decay)
	e.setRelease(e.release)
}

// Trigger enters the attack stage from the current level, so retriggering a
// sounding voice does not click. Velocity is clamped to [0, 1]; NaN is
// treated as 0.
func (e *ADSR) Trigger(velocity float64) {
	e.velocity = clampVelocity(velocity)
	e.stage = StageAttack
}

// TriggerHard zeroes the level before entering attack. The voice pool uses
// this on hard steals, where ramping from a loud stolen voice would be worse
// than the reset click.
func (e *ADSR) TriggerHard(velocity float64) {
	e.value = 0
	e.Trigger(velocity)
}

// Release enters the release stage from any non-idle stage.
func (e *ADSR) Release() {
	if e.stage == StageIdle {
		return
	}

	e.stage = StageRelease
}

// ForceIdle silences the envelope immediately.
func (e *ADSR) ForceIdle() {
	e.value = 0
	e.stage = StageIdle
}

// Tick advances one sample and returns the velocity-scaled level.
func (e *ADSR) Tick() float64 {
	switch e.stage {
	case StageAttack:
		e.value += e.attackRate
		if e.value >= 1 {
			e.value = 1
			e.stage = StageDecay
		}
	case StageDecay:
		e.value += (e.sustain - e.value) * e.decayRate
	case StageRelease:
		e.value -= e.value * e.releaseRate
		if e.value < idleThreshold {
			e.value = 0
			e.stage = StageIdle
		}
	}

	return e.value * e.velocity
}

func clampVelocity(velocity float64) float64 {
	if math.IsNaN(velocity) || velocity < 0 {
		return 0
	}

	if velocity > 1 {
		return 1
	}

	return velocity
}
