package preset

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/osc"
)

// Clamp ranges for Sanitize. Cutoff is additionally bounded against the
// engine sample rate by the filter itself.
const (
	maxDetuneCents = 4800.0
	maxFineCents   = 100.0

	maxStageSeconds = 60.0

	minCutoffHz = 20.0
	maxCutoffHz = 20000.0

	maxResonance = 3.0

	maxLFORateHz = 50.0

	maxMasterGain = 2.0

	minDelayTime     = 0.001
	maxDelayTime     = 2.0
	maxDelayFeedback = 0.99

	minCompThresholdDB = -60.0
	maxCompThresholdDB = 0.0
	minCompRatio       = 1.0
	maxCompRatio       = 100.0
	minCompReleaseMs   = 1.0
	maxCompReleaseMs   = 5000.0

	maxModAmountPercent = 100.0
)

// Snapshot is the immutable render-ready form of a preset: every field
// clamped to its documented range and modulation amounts normalized to
// [-1, 1]. The render thread reads snapshots through an atomically swapped
// pointer and never mutates them.
type Snapshot struct {
	Name string

	Oscillators [numOscillators]OscillatorConfig

	// Modulation holds only the enabled rows, with Amount in [-1, 1] and
	// Osc verified to be a valid slot.
	Modulation []ModulationRow

	MasterGain   float64
	StereoSpread float64

	ReverbMix  float64
	ReverbSize float64
	ReverbDamp float64

	DelayMix      float64
	DelayTime     float64
	DelayFeedback float64

	CompThreshold float64
	CompRatio     float64
	CompRelease   float64
}

// Sanitize clamps every field to its documented range, replaces non-finite
// values with defaults, normalizes modulation amounts from percentage to
// unit scale, and drops disabled or out-of-range matrix rows. It never
// fails: whatever the control surface or an import produced, the result is
// safe for the render path.
func (p Preset) Sanitize() *Snapshot {
	def := Default()

	s := &Snapshot{
		Name: p.Name,

		MasterGain:   clampOr(p.MasterGain, 0, maxMasterGain, def.MasterGain),
		StereoSpread: clampOr(p.StereoSpread, 0, 1, def.StereoSpread),

		ReverbMix:  clampOr(p.ReverbMix, 0, 1, def.ReverbMix),
		ReverbSize: clampOr(p.ReverbSize, 0, 1, def.ReverbSize),
		ReverbDamp: clampOr(p.ReverbDamp, 0, 1, def.ReverbDamp),

		DelayMix:      clampOr(p.DelayMix, 0, 1, def.DelayMix),
		DelayTime:     clampOr(p.DelayTime, minDelayTime, maxDelayTime, def.DelayTime),
		DelayFeedback: clampOr(p.DelayFeedback, 0, maxDelayFeedback, def.DelayFeedback),

		CompThreshold: clampOr(p.CompThreshold, minCompThresholdDB, maxCompThresholdDB, def.CompThreshold),
		CompRatio:     clampOr(p.CompRatio, minCompRatio, maxCompRatio, def.CompRatio),
		CompRelease:   clampOr(p.CompRelease, minCompReleaseMs, maxCompReleaseMs, def.CompRelease),
	}

	for i := range p.Oscillators {
		s.Oscillators[i] = sanitizeOscillator(p.Oscillators[i], def.Oscillators[i])
	}

	for _, row := range p.Modulation {
		if !row.Enabled {
			continue
		}

		if row.Osc < 0 || row.Osc >= numOscillators {
			continue
		}

		if row.Source < SourceEnv1 || row.Source > SourceLFO3 {
			continue
		}

		if row.Param < ParamPitch || row.Param > ParamResonance {
			continue
		}

		row.Amount = clampOr(row.Amount, -maxModAmountPercent, maxModAmountPercent, 0) / maxModAmountPercent
		s.Modulation = append(s.Modulation, row)
	}

	return s
}

func sanitizeOscillator(cfg, def OscillatorConfig) OscillatorConfig {
	out := OscillatorConfig{
		Enabled:   cfg.Enabled,
		Waveform:  cfg.Waveform,
		Coarse:    clampOr(cfg.Coarse, -maxDetuneCents, maxDetuneCents, def.Coarse),
		Fine:      clampOr(cfg.Fine, -maxFineCents, maxFineCents, def.Fine),
		Gain:      clampOr(cfg.Gain, 0, 1, def.Gain),
		Attack:    clampOr(cfg.Attack, 0, maxStageSeconds, def.Attack),
		Decay:     clampOr(cfg.Decay, 0, maxStageSeconds, def.Decay),
		Sustain:   clampOr(cfg.Sustain, 0, 1, def.Sustain),
		Release:   clampOr(cfg.Release, 0, maxStageSeconds, def.Release),
		Cutoff:    clampOr(cfg.Cutoff, minCutoffHz, maxCutoffHz, def.Cutoff),
		Resonance: clampOr(cfg.Resonance, 0, maxResonance, def.Resonance),
		LFORate:   clampOr(cfg.LFORate, 0, maxLFORateHz, def.LFORate),
		LFODepth:  clampOr(cfg.LFODepth, 0, 1, def.LFODepth),
		LFOTarget: cfg.LFOTarget,
	}

	switch out.Waveform {
	case osc.Sine, osc.Triangle, osc.Sawtooth, osc.Square:
	default:
		out.Waveform = def.Waveform
	}

	switch out.LFOTarget {
	case LFONone, LFOPitch, LFOFilter, LFOTremolo:
	default:
		out.LFOTarget = def.LFOTarget
	}

	return out
}

// clampOr clamps v to [lo, hi], substituting fallback for non-finite input.
func clampOr(v, lo, hi, fallback float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return fallback
	}

	return core.Clamp(v, lo, hi)
}
