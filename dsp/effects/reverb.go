package effects

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/cwbudde/algo-synth/dsp/conv"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultReverbSize = 0.5
	defaultReverbDamp = 0.5
	defaultReverbMix  = 0.3

	minReverbTailSeconds = 0.1
	maxReverbTailSeconds = 1.5

	// reverbSeed keeps the synthesized impulse response identical across
	// runs, so renders are reproducible.
	reverbSeed = 1

	// reverbDecayLog is ln(1000): the tail decays by 60 dB over its length.
	reverbDecayLog = 6.907755278982137
)

// ReverbOption mutates reverb constructor configuration.
type ReverbOption func(*reverbConfig) error

type reverbConfig struct {
	size float64
	damp float64
	mix  float64
}

func defaultReverbConfig() reverbConfig {
	return reverbConfig{
		size: defaultReverbSize,
		damp: defaultReverbDamp,
		mix:  defaultReverbMix,
	}
}

// WithReverbSize sets the room size, in [0, 1]. Size scales the synthesized
// tail between 0.1 s and 1.5 s.
func WithReverbSize(size float64) ReverbOption {
	return func(cfg *reverbConfig) error {
		if err := validateUnitRange(size, "reverb size"); err != nil {
			return err
		}

		cfg.size = size

		return nil
	}
}

// WithReverbDamp sets the high-frequency damping, in [0, 1].
func WithReverbDamp(damp float64) ReverbOption {
	return func(cfg *reverbConfig) error {
		if err := validateUnitRange(damp, "reverb damp"); err != nil {
			return err
		}

		cfg.damp = damp

		return nil
	}
}

// WithReverbMix sets the initial send level, in [0, 1].
func WithReverbMix(mix float64) ReverbOption {
	return func(cfg *reverbConfig) error {
		if err := validateUnitRange(mix, "reverb mix"); err != nil {
			return err
		}

		cfg.mix = mix

		return nil
	}
}

// Reverb is the convolution reverb send. The impulse response is synthesized
// once at construction from size and damp, normalized to unit energy so the
// send gain stays bounded regardless of tail length, and convolved block by
// block. Size and damp changes need a rebuilt node (the engine builds the
// replacement off the render thread and swaps it in); only the send level
// moves at runtime, through a smoothed ramp.
type Reverb struct {
	sampleRate float64
	blockSize  int

	size float64
	damp float64

	conv    *conv.Streaming
	mixRamp *Ramp
}

// NewReverb creates a reverb send for fixed-size blocks.
func NewReverb(sampleRate float64, blockSize int, opts ...ReverbOption) (*Reverb, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("effects: reverb sample rate must be > 0 and finite: %f", sampleRate)
	}

	if blockSize <= 0 {
		return nil, fmt.Errorf("effects: reverb block size must be positive: %d", blockSize)
	}

	cfg := defaultReverbConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	ir := synthesizeImpulse(sampleRate, cfg.size, cfg.damp)

	convolver, err := conv.NewStreaming(ir, blockSize)
	if err != nil {
		return nil, err
	}

	mixRamp, err := NewRamp(sampleRate, defaultRampSeconds, cfg.mix)
	if err != nil {
		return nil, err
	}

	return &Reverb{
		sampleRate: sampleRate,
		blockSize:  blockSize,
		size:       cfg.size,
		damp:       cfg.damp,
		conv:       convolver,
		mixRamp:    mixRamp,
	}, nil
}

// SampleRate returns the sample rate in Hz.
func (r *Reverb) SampleRate() float64 { return r.sampleRate }

// BlockSize returns the configured block size.
func (r *Reverb) BlockSize() int { return r.blockSize }

// Size returns the room size the impulse response was built from.
func (r *Reverb) Size() float64 { return r.size }

// Damp returns the damping the impulse response was built from.
func (r *Reverb) Damp() float64 { return r.damp }

// Mix returns the target send level.
func (r *Reverb) Mix() float64 { return r.mixRamp.Target() }

// TailLen returns the impulse response length in samples.
func (r *Reverb) TailLen() int { return r.conv.KernelLen() }

// SetMix updates the send level, in [0, 1].
func (r *Reverb) SetMix(mix float64) error {
	if err := validateUnitRange(mix, "reverb mix"); err != nil {
		return err
	}

	r.mixRamp.SetTarget(mix)

	return nil
}

// Rebuild returns a new reverb with the given size and damp, carrying over
// the current send level. Impulse synthesis and FFT planning allocate, so
// the engine runs this off the render thread and swaps the result in.
func (r *Reverb) Rebuild(size, damp float64) (*Reverb, error) {
	next, err := NewReverb(r.sampleRate, r.blockSize,
		WithReverbSize(size),
		WithReverbDamp(damp),
	)
	if err != nil {
		return nil, err
	}

	next.mixRamp.Jump(r.mixRamp.Target())

	return next, nil
}

// ProcessBlockTo writes the wet send output for a dry input block.
func (r *Reverb) ProcessBlockTo(output, input []float64) error {
	if err := r.conv.ProcessBlockTo(output, input); err != nil {
		return err
	}

	for i, x := range output {
		output[i] = x * r.mixRamp.Tick()
	}

	return nil
}

// Reset clears the convolution tail.
func (r *Reverb) Reset() {
	r.conv.Reset()
}

// synthesizeImpulse builds an exponentially decaying, damped noise tail.
// Damping is a one-pole lowpass over the noise, mapped so damp 0 leaves the
// noise white and damp 1 pulls the coefficient down to 0.05.
func synthesizeImpulse(sampleRate, size, damp float64) []float64 {
	tailSeconds := minReverbTailSeconds + size*(maxReverbTailSeconds-minReverbTailSeconds)

	n := int(math.Round(tailSeconds * sampleRate))
	if n < 1 {
		n = 1
	}

	rng := rand.New(rand.NewSource(reverbSeed))
	ir := make([]float64, n)

	lpCoeff := 1 - 0.95*damp
	lp := 0.0

	for i := range ir {
		noise := rng.Float64()*2 - 1
		lp += lpCoeff * (noise - lp)

		decay := math.Exp(-reverbDecayLog * float64(i) / float64(n))
		ir[i] = lp * decay
	}

	energy := vecmath.DotProduct(ir, ir)
	if energy > 0 {
		vecmath.ScaleBlockInPlace(ir, 1/math.Sqrt(energy))
	}

	return ir
}

func validateUnitRange(v float64, name string) error {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return fmt.Errorf("effects: %s must be in [0, 1]: %f", name, v)
	}

	return nil
}
