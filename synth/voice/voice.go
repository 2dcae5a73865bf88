// Package voice implements the polyphonic voice and the fixed-size pool
// that binds note identities to voices.
//
// A voice bundles three oscillator/filter/envelope chains, three
// free-running LFOs, a pitch-glide state, and the modulation-matrix
// evaluator. Voices are allocated once at pool construction and reused; the
// render thread owns all of their state.
package voice

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/envelope"
	"github.com/cwbudde/algo-synth/dsp/filter/svf"
	"github.com/cwbudde/algo-synth/dsp/osc"
	"github.com/cwbudde/algo-synth/synth/preset"
)

const (
	numSlots = 3

	// glideCoeff is the per-sample exponential approach toward the glide
	// target frequency.
	glideCoeff = 0.005

	// gateThreshold is the envelope output below which a slot contributes
	// nothing and its oscillator stays untouched.
	gateThreshold = 1e-4

	// lfoPitchCents scales a full-depth pitch LFO to one semitone.
	lfoPitchCents = 100.0

	// matrixPitchCents scales a full matrix pitch contribution to one
	// octave.
	matrixPitchCents = 1200.0
)

// Voice renders one note through three oscillator chains combined by the
// modulation matrix. All methods belong to the render thread.
type Voice struct {
	sampleRate float64
	dt         float64

	active bool
	noteID string

	freq       float64
	targetFreq float64
	velocity   float64

	// Sequence stamps issued by the pool. releaseSeq 0 means the note is
	// still musically held.
	triggerSeq uint64
	releaseSeq uint64

	oscs    [numSlots]*osc.Oscillator
	filters [numSlots]*svf.Filter
	envs    [numSlots]*envelope.ADSR

	lfoPhases [numSlots]float64
	table     *osc.Table

	panOffset float64
}

// NewVoice constructs an idle voice. The table is shared by the sine
// oscillators and the LFO lookup.
func NewVoice(sampleRate float64, table *osc.Table) (*Voice, error) {
	if math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) || sampleRate <= 0 {
		return nil, fmt.Errorf("voice: sample rate must be > 0 and finite: %f", sampleRate)
	}

	if table == nil {
		return nil, fmt.Errorf("voice: table must not be nil")
	}

	v := &Voice{
		sampleRate: sampleRate,
		dt:         1 / sampleRate,
		table:      table,
	}

	for i := range numSlots {
		o, err := osc.New(sampleRate, osc.WithTable(table))
		if err != nil {
			return nil, err
		}

		f, err := svf.New(sampleRate)
		if err != nil {
			return nil, err
		}

		e, err := envelope.New(sampleRate)
		if err != nil {
			return nil, err
		}

		v.oscs[i] = o
		v.filters[i] = f
		v.envs[i] = e
	}

	return v, nil
}

// Active reports whether the voice is bound to a note, including notes
// sounding their release tail.
func (v *Voice) Active() bool { return v.active }

// Held reports whether the voice is musically held: active and not yet
// released.
func (v *Voice) Held() bool { return v.active && v.releaseSeq == 0 }

// NoteID returns the bound note identity, or the empty string when
// inactive.
func (v *Voice) NoteID() string {
	if !v.active {
		return ""
	}

	return v.noteID
}

// Frequency returns the current glided base frequency in Hz.
func (v *Voice) Frequency() float64 { return v.freq }

// Pan returns the voice's deterministic stereo offset in [-1, 1], assigned
// by the pool. The engine scales it by the preset's stereo spread.
func (v *Voice) Pan() float64 { return v.panOffset }

// EnvelopeLevel returns the summed envelope levels, used by the pool to
// pick the quietest voice for a hard steal.
func (v *Voice) EnvelopeLevel() float64 {
	var sum float64
	for i := range numSlots {
		sum += v.envs[i].Value()
	}

	return sum
}

// Trigger binds the voice to a note and starts it from a clean state: all
// oscillator phases, filters, and LFO phases reset, all envelopes
// hard-retriggered. The reset keeps a reused voice free of audible state
// from its previous note. A non-positive or non-finite velocity defaults to
// full scale.
func (v *Voice) Trigger(noteID string, freq, velocity float64) {
	if math.IsNaN(velocity) || velocity <= 0 {
		velocity = 1
	} else if velocity > 1 {
		velocity = 1
	}

	v.active = true
	v.noteID = noteID
	v.freq = freq
	v.targetFreq = freq
	v.velocity = velocity
	v.releaseSeq = 0

	for i := range numSlots {
		v.oscs[i].Reset()
		v.filters[i].Reset()
		v.envs[i].TriggerHard(velocity)
		v.lfoPhases[i] = 0
	}
}

// Release lets the note fade through its release stage. The voice stays
// active until every envelope reaches idle.
func (v *Voice) Release() {
	for i := range numSlots {
		v.envs[i].Release()
	}
}

// HardStop silences the voice immediately and frees it. Used for the panic
// path and for non-finite sample recovery.
func (v *Voice) HardStop() {
	v.active = false
	v.noteID = ""
	v.releaseSeq = 0

	for i := range numSlots {
		v.envs[i].ForceIdle()
	}
}

// SetTargetFreq updates the glide target. The base frequency approaches it
// exponentially, sample by sample.
func (v *Voice) SetTargetFreq(freq float64) {
	if math.IsNaN(freq) || math.IsInf(freq, 0) || freq <= 0 {
		return
	}

	v.targetFreq = freq
}

// setSampleRate switches the voice and its chains to a new rate, used by
// the oversampling toggle.
func (v *Voice) setSampleRate(sampleRate float64) {
	v.sampleRate = sampleRate
	v.dt = 1 / sampleRate

	for i := range numSlots {
		v.oscs[i].SetSampleRate(sampleRate)
		v.filters[i].SetSampleRate(sampleRate)
		v.envs[i].SetSampleRate(sampleRate)
	}
}

// setTable swaps the shared wavetable on all oscillator slots and the LFO
// lookup.
func (v *Voice) setTable(t *osc.Table) {
	v.table = t

	for i := range numSlots {
		_ = v.oscs[i].SetTable(t)
	}
}

// setInterpolation switches the wavetable read mode on all oscillator
// slots.
func (v *Voice) setInterpolation(ip osc.Interpolation) {
	for i := range numSlots {
		_ = v.oscs[i].SetInterpolation(ip)
	}
}

// applyConfig pushes the snapshot's per-slot settings into the chains.
// Setters are cheap and clamp internally, so this runs once per block.
func (v *Voice) applyConfig(snap *preset.Snapshot) {
	for i := range numSlots {
		cfg := &snap.Oscillators[i]

		if v.oscs[i].Waveform() != cfg.Waveform {
			_ = v.oscs[i].SetWaveform(cfg.Waveform)
		}

		v.envs[i].SetAttack(cfg.Attack)
		v.envs[i].SetDecay(cfg.Decay)
		v.envs[i].SetSustain(cfg.Sustain)
		v.envs[i].SetRelease(cfg.Release)
	}
}

// RenderInto writes one block of mono samples for this voice. A non-finite
// sample hard-stops the voice and zero-fills the rest of the block; a block
// that ends with every envelope idle deactivates the voice.
func (v *Voice) RenderInto(dst []float64, snap *preset.Snapshot) {
	if !v.active {
		core.Zero(dst)
		return
	}

	v.applyConfig(snap)

	for n := range dst {
		sample, ok := v.tick(snap)
		if !ok {
			v.HardStop()
			core.Zero(dst[n:])

			return
		}

		dst[n] = sample
	}

	idle := true

	for i := range numSlots {
		if !v.envs[i].IsIdle() {
			idle = false
			break
		}
	}

	if idle {
		v.active = false
		v.noteID = ""
	}
}

// tick renders one sample. The second return value is false when the mix
// went non-finite.
func (v *Voice) tick(snap *preset.Snapshot) (float64, bool) {
	// Portamento: exponential approach toward the glide target.
	v.freq += (v.targetFreq - v.freq) * glideCoeff

	// Advance every envelope and LFO, enabled slot or not, so matrix rows
	// can read any of them.
	var envOut, lfoOut [numSlots]float64

	for i := range numSlots {
		cfg := &snap.Oscillators[i]

		envOut[i] = v.envs[i].Tick()

		v.lfoPhases[i] += cfg.LFORate * v.dt
		if v.lfoPhases[i] >= 1 {
			v.lfoPhases[i]--
		}

		lfoOut[i] = v.table.Lookup(v.lfoPhases[i], osc.InterpolationLinear) * cfg.LFODepth
	}

	// Modulation matrix: sum enabled row contributions per (slot, param).
	var modPitch, modCutoff, modGain, modRes [numSlots]float64

	for _, row := range snap.Modulation {
		var src float64
		if row.Source >= preset.SourceLFO1 {
			src = lfoOut[row.Source-preset.SourceLFO1]
		} else {
			src = envOut[row.Source-preset.SourceEnv1]
		}

		contribution := src * row.Amount

		switch row.Param {
		case preset.ParamPitch:
			modPitch[row.Osc] += contribution
		case preset.ParamCutoff:
			modCutoff[row.Osc] += contribution
		case preset.ParamGain:
			modGain[row.Osc] += contribution
		case preset.ParamResonance:
			modRes[row.Osc] += contribution
		}
	}

	var mix float64

	for i := range numSlots {
		cfg := &snap.Oscillators[i]
		if !cfg.Enabled || envOut[i] <= gateThreshold {
			continue
		}

		cents := cfg.Coarse + cfg.Fine + modPitch[i]*matrixPitchCents
		if cfg.LFOTarget == preset.LFOPitch {
			cents += lfoOut[i] * lfoPitchCents
		}

		freq := v.freq * core.CentsToRatio(cents)

		sample := v.oscs[i].Tick(freq)

		cutoff := cfg.Cutoff * (1 + modCutoff[i])
		if cfg.LFOTarget == preset.LFOFilter {
			cutoff += lfoOut[i] * cfg.Cutoff
		}

		v.filters[i].SetCutoff(cutoff)
		v.filters[i].SetResonance(cfg.Resonance + modRes[i])

		sample = v.filters[i].ProcessSample(sample)

		gain := cfg.Gain * envOut[i] * (1 + modGain[i])
		if gain < 0 {
			gain = 0
		}

		// lfoOut is sin*depth, so this sweeps the factor over
		// [1-depth, 1].
		if cfg.LFOTarget == preset.LFOTremolo {
			gain *= 1 - 0.5*(cfg.LFODepth+lfoOut[i])
		}

		mix += sample * gain
	}

	if math.IsNaN(mix) || math.IsInf(mix, 0) {
		return 0, false
	}

	return mix, true
}
