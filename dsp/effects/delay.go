package effects

import (
	"fmt"
	"math"
)

const (
	defaultDelayTimeSeconds = 0.25
	defaultDelayFeedback    = 0.35
	defaultDelayMix         = 0.25

	minDelayTimeSeconds = 0.001
	maxDelayTimeSeconds = 2.0
	maxDelayFeedback    = 0.99

	// delayTimeRampSeconds slews time changes slowly enough that the
	// fractional read glides instead of clicking.
	delayTimeRampSeconds = 0.05
)

// DelayOption mutates delay constructor configuration.
type DelayOption func(*delayConfig) error

type delayConfig struct {
	time     float64
	feedback float64
	mix      float64
}

func defaultDelayConfig() delayConfig {
	return delayConfig{
		time:     defaultDelayTimeSeconds,
		feedback: defaultDelayFeedback,
		mix:      defaultDelayMix,
	}
}

// WithDelayTime sets the initial delay time in seconds, in [0.001, 2].
func WithDelayTime(seconds float64) DelayOption {
	return func(cfg *delayConfig) error {
		if err := validateDelayTime(seconds); err != nil {
			return err
		}

		cfg.time = seconds

		return nil
	}
}

// WithDelayFeedback sets the initial feedback gain, in [0, 0.99].
func WithDelayFeedback(feedback float64) DelayOption {
	return func(cfg *delayConfig) error {
		if err := validateDelayFeedback(feedback); err != nil {
			return err
		}

		cfg.feedback = feedback

		return nil
	}
}

// WithDelayMix sets the initial send level, in [0, 1].
func WithDelayMix(mix float64) DelayOption {
	return func(cfg *delayConfig) error {
		if err := validateDelayMix(mix); err != nil {
			return err
		}

		cfg.mix = mix

		return nil
	}
}

// Delay is the feedback delay send. Its output is the wet signal scaled by
// the send level; the caller adds it back to the bus. Time, feedback, and
// send level all move through smoothed ramps, and preset swaps re-arm the
// feedback ramp from zero so a previous patch's loop cannot bleed into the
// new one.
type Delay struct {
	sampleRate float64

	buffer []float64
	write  int

	timeRamp     *Ramp // seconds
	feedbackRamp *Ramp
	mixRamp      *Ramp
}

// NewDelay creates a delay send with practical defaults.
func NewDelay(sampleRate float64, opts ...DelayOption) (*Delay, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("effects: delay sample rate must be > 0 and finite: %f", sampleRate)
	}

	cfg := defaultDelayConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	// The extra samples keep the 4-point fractional read in bounds at the
	// maximum delay time.
	size := int(math.Ceil(maxDelayTimeSeconds*sampleRate)) + 4

	d := &Delay{
		sampleRate: sampleRate,
		buffer:     make([]float64, size),
	}

	var err error

	d.timeRamp, err = NewRamp(sampleRate, delayTimeRampSeconds, cfg.time)
	if err != nil {
		return nil, err
	}

	d.feedbackRamp, err = NewRamp(sampleRate, defaultRampSeconds, 0)
	if err != nil {
		return nil, err
	}

	d.feedbackRamp.SetTarget(cfg.feedback)

	d.mixRamp, err = NewRamp(sampleRate, defaultRampSeconds, cfg.mix)
	if err != nil {
		return nil, err
	}

	return d, nil
}

// SampleRate returns the sample rate in Hz.
func (d *Delay) SampleRate() float64 { return d.sampleRate }

// Time returns the target delay time in seconds.
func (d *Delay) Time() float64 { return d.timeRamp.Target() }

// Feedback returns the target feedback gain.
func (d *Delay) Feedback() float64 { return d.feedbackRamp.Target() }

// Mix returns the target send level.
func (d *Delay) Mix() float64 { return d.mixRamp.Target() }

// SetTime updates the delay time in seconds, in [0.001, 2]. The change is
// slewed through the time ramp.
func (d *Delay) SetTime(seconds float64) error {
	if err := validateDelayTime(seconds); err != nil {
		return err
	}

	d.timeRamp.SetTarget(seconds)

	return nil
}

// SetFeedback updates the feedback gain, in [0, 0.99].
func (d *Delay) SetFeedback(feedback float64) error {
	if err := validateDelayFeedback(feedback); err != nil {
		return err
	}

	d.feedbackRamp.SetTarget(feedback)

	return nil
}

// SetMix updates the send level, in [0, 1].
func (d *Delay) SetMix(mix float64) error {
	if err := validateDelayMix(mix); err != nil {
		return err
	}

	d.mixRamp.SetTarget(mix)

	return nil
}

// RearmFeedback cuts the feedback gain to zero and lets it ramp back to its
// target. The engine calls this on every preset swap.
func (d *Delay) RearmFeedback() {
	d.feedbackRamp.Cut(0)
}

// Reset clears the delay line and re-arms the feedback ramp from zero.
func (d *Delay) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}

	d.write = 0
	d.RearmFeedback()
}

// ProcessSample feeds one dry sample and returns the wet send output.
func (d *Delay) ProcessSample(input float64) float64 {
	seconds := d.timeRamp.Tick()
	feedback := d.feedbackRamp.Tick()
	mix := d.mixRamp.Tick()

	delayed := d.readFractional(seconds * d.sampleRate)

	next := input + delayed*feedback
	if math.IsNaN(next) || math.IsInf(next, 0) {
		next = 0
	}

	d.buffer[d.write] = next

	d.write++
	if d.write >= len(d.buffer) {
		d.write = 0
	}

	return delayed * mix
}

// ProcessBlockTo writes the wet send output for a dry input block.
func (d *Delay) ProcessBlockTo(output, input []float64) error {
	if len(output) != len(input) {
		return fmt.Errorf("effects: delay block length mismatch: %d vs %d", len(output), len(input))
	}

	for i, x := range input {
		output[i] = d.ProcessSample(x)
	}

	return nil
}

func (d *Delay) readIndex(k int) float64 {
	idx := d.write - k
	if idx < 0 {
		idx += len(d.buffer)
	}

	return d.buffer[idx]
}

// readFractional reads the line at a fractional sample delay using 4-point
// Hermite interpolation.
func (d *Delay) readFractional(delaySamples float64) float64 {
	if delaySamples < 1 {
		delaySamples = 1
	}

	if limit := float64(len(d.buffer) - 3); delaySamples > limit {
		delaySamples = limit
	}

	p := int(delaySamples)
	t := delaySamples - float64(p)

	xm1 := d.readIndex(max(1, p-1))
	x0 := d.readIndex(p)
	x1 := d.readIndex(p + 1)
	x2 := d.readIndex(p + 2)

	return hermite4(t, xm1, x0, x1, x2)
}

// hermite4 is a 4-point, 3rd-order Hermite interpolator.
func hermite4(t, xm1, x0, x1, x2 float64) float64 {
	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*t+c2)*t+c1)*t + c0
}

func validateDelayTime(seconds float64) error {
	if math.IsNaN(seconds) || seconds < minDelayTimeSeconds || seconds > maxDelayTimeSeconds {
		return fmt.Errorf("effects: delay time must be in [%g, %g]: %f",
			minDelayTimeSeconds, maxDelayTimeSeconds, seconds)
	}

	return nil
}

func validateDelayFeedback(feedback float64) error {
	if math.IsNaN(feedback) || feedback < 0 || feedback > maxDelayFeedback {
		return fmt.Errorf("effects: delay feedback must be in [0, %g]: %f", maxDelayFeedback, feedback)
	}

	return nil
}

func validateDelayMix(mix float64) error {
	if math.IsNaN(mix) || mix < 0 || mix > 1 {
		return fmt.Errorf("effects: delay mix must be in [0, 1]: %f", mix)
	}

	return nil
}
