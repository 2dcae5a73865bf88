// Package preset defines the declarative patch description the render path
// consumes: three oscillator configurations, a modulation matrix, and the
// effect send parameters.
//
// Presets are edited on the control side and shipped to the render thread as
// immutable snapshots. Decoding merges against Default so a partial or
// old-format preset never reaches the engine with undefined fields, and
// Sanitize clamps every field to its documented range.
package preset

import (
	"encoding/json"
	"fmt"

	"github.com/cwbudde/algo-synth/dsp/osc"
)

// ModSource identifies the modulation matrix source: one of the three
// per-oscillator envelopes or the three free-running LFOs.
type ModSource int

const (
	// SourceEnv1 through SourceEnv3 read the velocity-scaled envelope
	// outputs of oscillator slots 1..3.
	SourceEnv1 ModSource = iota
	SourceEnv2
	SourceEnv3
	// SourceLFO1 through SourceLFO3 read the depth-scaled LFO outputs of
	// oscillator slots 1..3.
	SourceLFO1
	SourceLFO2
	SourceLFO3
)

func (s ModSource) String() string {
	switch s {
	case SourceEnv1:
		return "env1"
	case SourceEnv2:
		return "env2"
	case SourceEnv3:
		return "env3"
	case SourceLFO1:
		return "lfo1"
	case SourceLFO2:
		return "lfo2"
	case SourceLFO3:
		return "lfo3"
	default:
		return "unknown"
	}
}

// ParseModSource maps a preset source name to its ModSource value.
func ParseModSource(name string) (ModSource, error) {
	switch name {
	case "env1":
		return SourceEnv1, nil
	case "env2":
		return SourceEnv2, nil
	case "env3":
		return SourceEnv3, nil
	case "lfo1":
		return SourceLFO1, nil
	case "lfo2":
		return SourceLFO2, nil
	case "lfo3":
		return SourceLFO3, nil
	default:
		return SourceEnv1, fmt.Errorf("preset: unknown modulation source: %q", name)
	}
}

// MarshalText encodes the source as its preset name.
func (s ModSource) MarshalText() ([]byte, error) {
	if s < SourceEnv1 || s > SourceLFO3 {
		return nil, fmt.Errorf("preset: invalid modulation source: %d", s)
	}

	return []byte(s.String()), nil
}

// UnmarshalText decodes a preset source name.
func (s *ModSource) UnmarshalText(text []byte) error {
	parsed, err := ParseModSource(string(text))
	if err != nil {
		return err
	}

	*s = parsed

	return nil
}

// ModParam identifies the per-oscillator parameter a matrix row steers.
type ModParam int

const (
	// ParamPitch offsets the oscillator pitch; one unit of summed
	// contribution is one octave.
	ParamPitch ModParam = iota
	// ParamCutoff scales the filter cutoff around its configured value.
	ParamCutoff
	// ParamGain scales the oscillator gain around its configured value.
	ParamGain
	// ParamResonance offsets the filter resonance.
	ParamResonance
)

func (p ModParam) String() string {
	switch p {
	case ParamPitch:
		return "pitch"
	case ParamCutoff:
		return "cutoff"
	case ParamGain:
		return "gain"
	case ParamResonance:
		return "resonance"
	default:
		return "unknown"
	}
}

// ParseModParam maps a preset parameter name to its ModParam value.
func ParseModParam(name string) (ModParam, error) {
	switch name {
	case "pitch":
		return ParamPitch, nil
	case "cutoff":
		return ParamCutoff, nil
	case "gain":
		return ParamGain, nil
	case "resonance":
		return ParamResonance, nil
	default:
		return ParamPitch, fmt.Errorf("preset: unknown modulation parameter: %q", name)
	}
}

// MarshalText encodes the parameter as its preset name.
func (p ModParam) MarshalText() ([]byte, error) {
	if p < ParamPitch || p > ParamResonance {
		return nil, fmt.Errorf("preset: invalid modulation parameter: %d", p)
	}

	return []byte(p.String()), nil
}

// UnmarshalText decodes a preset parameter name.
func (p *ModParam) UnmarshalText(text []byte) error {
	parsed, err := ParseModParam(string(text))
	if err != nil {
		return err
	}

	*p = parsed

	return nil
}

// LFOTarget selects the hard-wired destination of an oscillator slot's LFO,
// independent of the modulation matrix.
type LFOTarget int

const (
	// LFONone disables the hard-wired routing; the LFO still runs and can
	// feed matrix rows.
	LFONone LFOTarget = iota
	// LFOPitch applies vibrato: up to one semitone of detune at full depth.
	LFOPitch
	// LFOFilter sweeps the cutoff around its configured value.
	LFOFilter
	// LFOTremolo modulates the slot gain between (1-depth) and 1.
	LFOTremolo
)

func (t LFOTarget) String() string {
	switch t {
	case LFONone:
		return "none"
	case LFOPitch:
		return "pitch"
	case LFOFilter:
		return "filter"
	case LFOTremolo:
		return "tremolo"
	default:
		return "unknown"
	}
}

// ParseLFOTarget maps a preset LFO target name to its LFOTarget value.
func ParseLFOTarget(name string) (LFOTarget, error) {
	switch name {
	case "none":
		return LFONone, nil
	case "pitch":
		return LFOPitch, nil
	case "filter":
		return LFOFilter, nil
	case "tremolo":
		return LFOTremolo, nil
	default:
		return LFONone, fmt.Errorf("preset: unknown LFO target: %q", name)
	}
}

// MarshalText encodes the target as its preset name.
func (t LFOTarget) MarshalText() ([]byte, error) {
	if t < LFONone || t > LFOTremolo {
		return nil, fmt.Errorf("preset: invalid LFO target: %d", t)
	}

	return []byte(t.String()), nil
}

// UnmarshalText decodes a preset LFO target name.
func (t *LFOTarget) UnmarshalText(text []byte) error {
	parsed, err := ParseLFOTarget(string(text))
	if err != nil {
		return err
	}

	*t = parsed

	return nil
}

// OscillatorConfig describes one of the three oscillator slots of a voice.
// The render path reads it from an immutable snapshot and never mutates it.
type OscillatorConfig struct {
	Enabled  bool         `json:"enabled"`
	Waveform osc.Waveform `json:"waveform"`

	// Coarse and Fine detune the slot in cents.
	Coarse float64 `json:"coarse"`
	Fine   float64 `json:"fine"`

	Gain float64 `json:"gain"`

	// Envelope timings in seconds; Sustain is a level in [0, 1].
	Attack  float64 `json:"attack"`
	Decay   float64 `json:"decay"`
	Sustain float64 `json:"sustain"`
	Release float64 `json:"release"`

	Cutoff    float64 `json:"cutoff"`
	Resonance float64 `json:"resonance"`

	LFORate   float64   `json:"lfoRate"`
	LFODepth  float64   `json:"lfoDepth"`
	LFOTarget LFOTarget `json:"lfoTarget"`
}

// ModulationRow routes one source to one per-oscillator parameter. Row order
// is irrelevant; contributions are summed per target.
type ModulationRow struct {
	Enabled bool      `json:"enabled"`
	Source  ModSource `json:"source"`

	// Osc is the target oscillator slot, 0..2.
	Osc   int      `json:"osc"`
	Param ModParam `json:"param"`

	// Amount is stored as a percentage in [-100, 100] and normalized to
	// [-1, 1] on ingestion.
	Amount float64 `json:"amount"`
}

// Preset is the full editable patch. It travels as JSON between the control
// surface and storage, and through Sanitize into the render path.
type Preset struct {
	Name string `json:"name"`

	Oscillators [numOscillators]OscillatorConfig `json:"oscillators"`
	Modulation  []ModulationRow                  `json:"modulation"`

	MasterGain   float64 `json:"masterGain"`
	StereoSpread float64 `json:"stereoSpread"`

	ReverbMix  float64 `json:"reverbMix"`
	ReverbSize float64 `json:"reverbSize"`
	ReverbDamp float64 `json:"reverbDamp"`

	DelayMix      float64 `json:"delayMix"`
	DelayTime     float64 `json:"delayTime"`
	DelayFeedback float64 `json:"delayFeedback"`

	CompThreshold float64 `json:"compThreshold"`
	CompRatio     float64 `json:"compRatio"`
	CompRelease   float64 `json:"compRelease"`
}

// numOscillators is the fixed number of oscillator slots per voice.
const numOscillators = 3

// NumOscillators returns the fixed number of oscillator slots per voice.
func NumOscillators() int { return numOscillators }

// Default returns the reference patch: a single sine oscillator with a
// plucky envelope, light sends, and a gentle bus compressor.
func Default() Preset {
	p := Preset{
		Name: "init",

		MasterGain:   1.0,
		StereoSpread: 0.0,

		ReverbMix:  0.2,
		ReverbSize: 0.5,
		ReverbDamp: 0.5,

		DelayMix:      0.15,
		DelayTime:     0.25,
		DelayFeedback: 0.35,

		CompThreshold: -12.0,
		CompRatio:     3.0,
		CompRelease:   250.0,
	}

	for i := range p.Oscillators {
		p.Oscillators[i] = OscillatorConfig{
			Enabled:   i == 0,
			Waveform:  osc.Sine,
			Gain:      0.8,
			Attack:    0.01,
			Decay:     0.1,
			Sustain:   0.8,
			Release:   0.2,
			Cutoff:    8000,
			Resonance: 0.7,
			LFORate:   5,
			LFODepth:  0,
			LFOTarget: LFONone,
		}
	}

	return p
}

// FromJSON decodes a preset, merging it against Default: fields absent from
// the document keep their default values, so partial or old-format presets
// decode into a complete patch. The result still needs Sanitize before it
// reaches the render path.
func FromJSON(data []byte) (Preset, error) {
	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		return Preset{}, fmt.Errorf("preset: decode: %w", err)
	}

	return p, nil
}

// UnmarshalJSON merges the document over the values already in p. The
// oscillator entries need special handling: decoding a short JSON array
// straight into the fixed-size field would zero the slots past the end of
// the document, so each entry decodes on top of its slot instead and absent
// slots stay untouched.
func (p *Preset) UnmarshalJSON(data []byte) error {
	type preset Preset

	aux := struct {
		Oscillators []json.RawMessage `json:"oscillators"`
		*preset
	}{preset: (*preset)(p)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	for i, raw := range aux.Oscillators {
		if i >= numOscillators {
			break
		}

		if err := json.Unmarshal(raw, &p.Oscillators[i]); err != nil {
			return err
		}
	}

	return nil
}

// JSON encodes the preset for storage or transfer.
func (p Preset) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("preset: encode: %w", err)
	}

	return data, nil
}
