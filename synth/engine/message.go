package engine

import (
	"github.com/cwbudde/algo-synth/dsp/effects"
	"github.com/cwbudde/algo-synth/dsp/osc"
	"github.com/cwbudde/algo-synth/synth/preset"
)

// message is the closed union of control-plane messages into the render
// path. Heavy payloads (snapshots, rebuilt wavetables and reverb nodes) are
// constructed control-side so the render thread only swaps references.
type message interface {
	isMessage()
}

type presetMsg struct {
	snap *preset.Snapshot

	// reverb carries a replacement node when size or damp changed; nil
	// keeps the current one.
	reverb *effects.Reverb
}

type configMsg struct {
	polyphony    int
	oversampling bool

	// table is non-nil when the wavetable size changed.
	table  *osc.Table
	interp osc.Interpolation
}

type noteOnMsg struct {
	id       string
	freq     float64
	velocity float64
}

type noteOffMsg struct {
	id string
}

type glideMsg struct {
	id   string
	freq float64
}

type stopAllMsg struct{}

func (presetMsg) isMessage()  {}
func (configMsg) isMessage()  {}
func (noteOnMsg) isMessage()  {}
func (noteOffMsg) isMessage() {}
func (glideMsg) isMessage()   {}
func (stopAllMsg) isMessage() {}

// Config carries the render-time tunables of the config message.
type Config struct {
	// Polyphony is the musical polyphony ceiling; it is enforced
	// immediately and may soft-steal held voices.
	Polyphony int

	// Oversampling toggles 2x internal rendering.
	Oversampling bool

	// WavetableSize is the sine table length; invalid sizes keep the
	// current table.
	WavetableSize int

	// Interpolation selects the wavetable read mode.
	Interpolation osc.Interpolation
}

// VoiceStolen is the advisory notification fired when a sounding note loses
// its voice to a soft or hard steal. Delivery is best-effort: the render
// thread drops notifications rather than block on a slow receiver.
type VoiceStolen struct {
	NoteID string
}
