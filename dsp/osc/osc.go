package osc

import (
	"fmt"
	"math"
)

// maxFreqRatio bounds the usable oscillator frequency relative to the sample
// rate. Requests at or above this ratio produce silence instead of heavily
// aliased output.
const maxFreqRatio = 0.45

// Waveform selects the oscillator output shape.
type Waveform int

const (
	// Sine reads a precomputed wavetable.
	Sine Waveform = iota
	// Triangle uses the closed-form ramp fold.
	Triangle
	// Sawtooth is a naive ramp with a PolyBLEP-corrected wrap.
	Sawtooth
	// Square is a pulse with PolyBLEP-corrected edges at phase 0 and 0.5.
	Square
)

func (w Waveform) String() string {
	switch w {
	case Sine:
		return "sine"
	case Triangle:
		return "triangle"
	case Sawtooth:
		return "sawtooth"
	case Square:
		return "square"
	default:
		return "unknown"
	}
}

// ParseWaveform maps a preset waveform name to its Waveform value.
func ParseWaveform(name string) (Waveform, error) {
	switch name {
	case "sine":
		return Sine, nil
	case "triangle":
		return Triangle, nil
	case "sawtooth":
		return Sawtooth, nil
	case "square":
		return Square, nil
	default:
		return Sine, fmt.Errorf("osc: unknown waveform: %q", name)
	}
}

// MarshalText encodes the waveform as its preset name.
func (w Waveform) MarshalText() ([]byte, error) {
	if !validWaveform(w) {
		return nil, fmt.Errorf("osc: invalid waveform: %d", w)
	}

	return []byte(w.String()), nil
}

// UnmarshalText decodes a preset waveform name.
func (w *Waveform) UnmarshalText(text []byte) error {
	parsed, err := ParseWaveform(string(text))
	if err != nil {
		return err
	}

	*w = parsed

	return nil
}

// Interpolation selects the wavetable read mode for sine output.
type Interpolation int

const (
	// InterpolationCubic is a 4-point, 3rd-order table read.
	InterpolationCubic Interpolation = iota
	// InterpolationLinear is a 2-point table read.
	InterpolationLinear
)

func (ip Interpolation) String() string {
	switch ip {
	case InterpolationCubic:
		return "cubic"
	case InterpolationLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// ParseInterpolation maps a config interpolation name to its value.
func ParseInterpolation(name string) (Interpolation, error) {
	switch name {
	case "cubic":
		return InterpolationCubic, nil
	case "linear":
		return InterpolationLinear, nil
	default:
		return InterpolationCubic, fmt.Errorf("osc: unknown interpolation: %q", name)
	}
}

// MarshalText encodes the interpolation mode as its config name.
func (ip Interpolation) MarshalText() ([]byte, error) {
	if !validInterpolation(ip) {
		return nil, fmt.Errorf("osc: invalid interpolation: %d", ip)
	}

	return []byte(ip.String()), nil
}

// UnmarshalText decodes a config interpolation name.
func (ip *Interpolation) UnmarshalText(text []byte) error {
	parsed, err := ParseInterpolation(string(text))
	if err != nil {
		return err
	}

	*ip = parsed

	return nil
}

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	waveform Waveform
	interp   Interpolation
	table    *Table
}

func defaultConfig() config {
	return config{
		waveform: Sine,
		interp:   InterpolationCubic,
	}
}

// WithWaveform selects the output shape.
func WithWaveform(w Waveform) Option {
	return func(cfg *config) error {
		if !validWaveform(w) {
			return fmt.Errorf("osc: invalid waveform: %d", w)
		}

		cfg.waveform = w

		return nil
	}
}

// WithInterpolation selects the wavetable read mode.
func WithInterpolation(ip Interpolation) Option {
	return func(cfg *config) error {
		if !validInterpolation(ip) {
			return fmt.Errorf("osc: invalid interpolation: %d", ip)
		}

		cfg.interp = ip

		return nil
	}
}

// WithTable supplies a shared wavetable. Callers running many oscillators
// should build one table and pass it to each.
func WithTable(t *Table) Option {
	return func(cfg *config) error {
		if t == nil {
			return fmt.Errorf("osc: table must not be nil")
		}

		cfg.table = t

		return nil
	}
}

// Oscillator renders one bandlimited sample per Tick at a caller-supplied
// frequency, so pitch may change on every sample.
type Oscillator struct {
	sampleRate    float64
	invSampleRate float64
	maxFreq       float64

	waveform Waveform
	interp   Interpolation
	table    *Table

	phase float64
}

// New constructs an oscillator. When no WithTable option is supplied, all
// oscillators share one package-level default sine table.
func New(sampleRate float64, opts ...Option) (*Oscillator, error) {
	if math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) || sampleRate <= 0 {
		return nil, fmt.Errorf("osc: sample rate must be > 0 and finite: %f", sampleRate)
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

	if cfg.table == nil {
		cfg.table = sharedDefaultTable()
	}

	return &Oscillator{
		sampleRate:    sampleRate,
		invSampleRate: 1 / sampleRate,
		maxFreq:       maxFreqRatio * sampleRate,
		waveform:      cfg.waveform,
		interp:        cfg.interp,
		table:         cfg.table,
	}, nil
}

// SampleRate returns the sample rate in Hz.
func (o *Oscillator) SampleRate() float64 { return o.sampleRate }

// Waveform returns the output shape.
func (o *Oscillator) Waveform() Waveform { return o.waveform }

// Interpolation returns the wavetable read mode.
func (o *Oscillator) Interpolation() Interpolation { return o.interp }

// Table returns the wavetable read by sine output.
func (o *Oscillator) Table() *Table { return o.table }

// Phase returns the current normalized phase in [0, 1).
func (o *Oscillator) Phase() float64 { return o.phase }

// SetWaveform switches the output shape without touching phase.
func (o *Oscillator) SetWaveform(w Waveform) error {
	if !validWaveform(w) {
		return fmt.Errorf("osc: invalid waveform: %d", w)
	}

	o.waveform = w

	return nil
}

// SetInterpolation switches the wavetable read mode.
func (o *Oscillator) SetInterpolation(ip Interpolation) error {
	if !validInterpolation(ip) {
		return fmt.Errorf("osc: invalid interpolation: %d", ip)
	}

	o.interp = ip

	return nil
}

// SetTable swaps the wavetable read by sine output. The table may be
// replaced while the oscillator is running.
func (o *Oscillator) SetTable(t *Table) error {
	if t == nil {
		return fmt.Errorf("osc: table must not be nil")
	}

	o.table = t

	return nil
}

// SetSampleRate switches the internal rate, preserving phase. The engine
// uses this when toggling oversampling. Non-positive or non-finite rates are
// ignored.
func (o *Oscillator) SetSampleRate(sampleRate float64) {
	if math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) || sampleRate <= 0 {
		return
	}

	o.sampleRate = sampleRate
	o.invSampleRate = 1 / sampleRate
	o.maxFreq = maxFreqRatio * sampleRate
}

// Reset zeroes the phase accumulator. Voices call this on (re)trigger so a
// restarted note does not begin mid-cycle.
func (o *Oscillator) Reset() { o.phase = 0 }

// Tick renders one sample at the given frequency in Hz and advances phase by
// freq/sampleRate, wrapping modulo 1. Degenerate frequencies (non-positive,
// non-finite, or at least 0.45 times the sample rate) return exactly 0 and
// leave phase untouched.
func (o *Oscillator) Tick(freq float64) float64 {
	if math.IsNaN(freq) || freq <= 0 || freq >= o.maxFreq {
		return 0
	}

	dt := freq * o.invSampleRate

	var out float64

	switch o.waveform {
	case Sine:
		if o.interp == InterpolationLinear {
			out = o.table.linear(o.phase)
		} else {
			out = o.table.cubic(o.phase)
		}
	case Triangle:
		out = 2 * (math.Abs(2*o.phase-1) - 0.5)
	case Sawtooth:
		out = 2*o.phase - 1 - polyBLEP(o.phase, dt)
	case Square:
		if o.phase < 0.5 {
			out = 1
		} else {
			out = -1
		}

		out += polyBLEP(o.phase, dt)

		fall := o.phase + 0.5
		if fall >= 1 {
			fall--
		}

		out -= polyBLEP(fall, dt)
	}

	o.phase += dt
	if o.phase >= 1 {
		o.phase--
	}

	return out
}

// polyBLEP evaluates the two-sample polynomial bandlimited step residual at
// phase t for per-sample increment dt. It is nonzero only within one
// increment of the wrap point.
func polyBLEP(t, dt float64) float64 {
	switch {
	case t < dt:
		t /= dt
		return t + t - t*t - 1
	case t > 1-dt:
		t = (t - 1) / dt
		return t*t + t + t + 1
	default:
		return 0
	}
}

func validWaveform(w Waveform) bool {
	switch w {
	case Sine, Triangle, Sawtooth, Square:
		return true
	default:
		return false
	}
}

func validInterpolation(ip Interpolation) bool {
	return ip == InterpolationCubic || ip == InterpolationLinear
}
