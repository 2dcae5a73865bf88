package dynamics

const (
	defaultCeilingDB        = -1.0
	defaultLimiterReleaseMs = 50.0

	limiterRatio    = 100.0
	limiterAttackMs = 0.1
)

// Limiter is a peak limiter: a hard-knee Compressor at 100:1 with a 0.1 ms
// attack and no makeup gain. It sits at the very end of the output chain to
// keep peaks under the ceiling regardless of what the rest of the patch
// does.
type Limiter struct {
	comp *Compressor
}

// NewLimiter creates a limiter with a -1 dB ceiling and a 50 ms release.
func NewLimiter(sampleRate float64) (*Limiter, error) {
	c, err := NewCompressor(sampleRate)
	if err != nil {
		return nil, err
	}

	if err := c.SetRatio(limiterRatio); err != nil {
		return nil, err
	}
	if err := c.SetAttack(limiterAttackMs); err != nil {
		return nil, err
	}
	if err := c.SetKnee(0); err != nil {
		return nil, err
	}
	if err := c.SetThreshold(defaultCeilingDB); err != nil {
		return nil, err
	}
	if err := c.SetRelease(defaultLimiterReleaseMs); err != nil {
		return nil, err
	}

	return &Limiter{comp: c}, nil
}

// SetCeiling sets the limiting ceiling in dB.
func (l *Limiter) SetCeiling(dB float64) error {
	return l.comp.SetThreshold(dB)
}

// SetRelease sets the release time in milliseconds.
func (l *Limiter) SetRelease(ms float64) error {
	return l.comp.SetRelease(ms)
}

// Ceiling returns the ceiling in dB.
func (l *Limiter) Ceiling() float64 { return l.comp.Threshold() }

// Release returns the release time in milliseconds.
func (l *Limiter) Release() float64 { return l.comp.Release() }

// ProcessSample processes one mono sample.
func (l *Limiter) ProcessSample(input float64) float64 {
	return l.comp.ProcessSample(input)
}

// ProcessInPlace limits buf in place.
func (l *Limiter) ProcessInPlace(buf []float64) {
	l.comp.ProcessInPlace(buf)
}

// ProcessStereo processes one stereo frame with a linked detector.
func (l *Limiter) ProcessStereo(left, right float64) (float64, float64) {
	return l.comp.ProcessStereo(left, right)
}

// ProcessStereoInPlace limits a pair of equal-length channel buffers in
// place with a linked detector.
func (l *Limiter) ProcessStereoInPlace(left, right []float64) {
	l.comp.ProcessStereoInPlace(left, right)
}

// CalculateOutputLevel computes the steady-state output level for a given
// input magnitude.
func (l *Limiter) CalculateOutputLevel(inputMagnitude float64) float64 {
	return l.comp.CalculateOutputLevel(inputMagnitude)
}

// Reset clears the envelope follower.
func (l *Limiter) Reset() {
	l.comp.Reset()
}
