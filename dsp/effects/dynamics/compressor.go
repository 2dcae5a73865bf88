package dynamics

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
)

const (
	defaultThresholdDB = -12.0
	defaultRatio       = 3.0
	defaultKneeDB      = 6.0
	defaultAttackMs    = 5.0
	defaultReleaseMs   = 250.0

	minRatio     = 1.0
	maxRatio     = 100.0
	minAttackMs  = 0.1
	maxAttackMs  = 1000.0
	minReleaseMs = 1.0
	maxReleaseMs = 5000.0
	minKneeDB    = 0.0
	maxKneeDB    = 24.0

	// log2Of10Div20 converts decibel values to the log2 domain: log2(10)/20.
	log2Of10Div20 = 0.166096404744
)

// Compressor is a soft-knee compressor with log2-domain gain calculation.
// The quadratic knee gives a smooth transition around the threshold instead
// of an abrupt ratio change.
//
// The gain path is mono; ProcessStereo links two channels through a single
// detector. Makeup gain is off unless enabled, so at unity the compressor
// only ever attenuates.
//
// Not safe for concurrent use. Parameter setters must not race with
// processing calls.
type Compressor struct {
	thresholdDB  float64
	ratio        float64
	kneeDB       float64
	attackMs     float64
	releaseMs    float64
	makeupGainDB float64
	autoMakeup   bool

	sampleRate float64

	// Envelope follower state.
	peakLevel float64

	// Cached coefficients, recomputed on every parameter change.
	attackCoeff      float64
	releaseCoeff     float64
	thresholdLog2    float64
	kneeWidthLog2    float64
	invKneeWidthLog2 float64
	makeupGainLin    float64
}

// NewCompressor creates a compressor with bus-friendly defaults:
// threshold -12 dB, ratio 3:1, knee 6 dB, attack 5 ms, release 250 ms,
// no makeup gain.
func NewCompressor(sampleRate float64) (*Compressor, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("dynamics: sample rate must be > 0 and finite: %f", sampleRate)
	}

	c := &Compressor{
		thresholdDB: defaultThresholdDB,
		ratio:       defaultRatio,
		kneeDB:      defaultKneeDB,
		attackMs:    defaultAttackMs,
		releaseMs:   defaultReleaseMs,
		sampleRate:  sampleRate,
	}
	c.updateCoefficients()

	return c, nil
}

// SetThreshold sets the compression threshold in dB. Signal above this
// level is compressed.
func (c *Compressor) SetThreshold(dB float64) error {
	if math.IsNaN(dB) || math.IsInf(dB, 0) {
		return fmt.Errorf("dynamics: threshold must be finite: %f", dB)
	}
	c.thresholdDB = dB
	c.updateCoefficients()

	return nil
}

// SetRatio sets the compression ratio. 1 is unity, 100 is effectively
// limiting.
func (c *Compressor) SetRatio(ratio float64) error {
	if ratio < minRatio || ratio > maxRatio || math.IsNaN(ratio) {
		return fmt.Errorf("dynamics: ratio must be in [%g, %g]: %f", minRatio, maxRatio, ratio)
	}
	c.ratio = ratio
	c.updateCoefficients()

	return nil
}

// SetKnee sets the soft-knee width in dB. 0 is a hard knee.
func (c *Compressor) SetKnee(kneeDB float64) error {
	if kneeDB < minKneeDB || kneeDB > maxKneeDB || math.IsNaN(kneeDB) {
		return fmt.Errorf("dynamics: knee must be in [%g, %g]: %f", minKneeDB, maxKneeDB, kneeDB)
	}
	c.kneeDB = kneeDB
	c.updateCoefficients()

	return nil
}

// SetAttack sets the attack time in milliseconds.
func (c *Compressor) SetAttack(ms float64) error {
	if ms < minAttackMs || ms > maxAttackMs || math.IsNaN(ms) {
		return fmt.Errorf("dynamics: attack must be in [%g, %g] ms: %f", minAttackMs, maxAttackMs, ms)
	}
	c.attackMs = ms
	c.updateTimeConstants()

	return nil
}

// SetRelease sets the release time in milliseconds.
func (c *Compressor) SetRelease(ms float64) error {
	if ms < minReleaseMs || ms > maxReleaseMs || math.IsNaN(ms) {
		return fmt.Errorf("dynamics: release must be in [%g, %g] ms: %f", minReleaseMs, maxReleaseMs, ms)
	}
	c.releaseMs = ms
	c.updateTimeConstants()

	return nil
}

// SetMakeupGain sets a manual makeup gain in dB and disables auto makeup.
func (c *Compressor) SetMakeupGain(dB float64) error {
	if math.IsNaN(dB) || math.IsInf(dB, 0) {
		return fmt.Errorf("dynamics: makeup gain must be finite: %f", dB)
	}
	c.makeupGainDB = dB
	c.autoMakeup = false
	c.updateCoefficients()

	return nil
}

// SetAutoMakeup toggles automatic makeup gain, which compensates the gain
// reduction a full-scale signal would see at the current threshold and ratio.
func (c *Compressor) SetAutoMakeup(enable bool) {
	c.autoMakeup = enable
	c.updateCoefficients()
}

// Threshold returns the threshold in dB.
func (c *Compressor) Threshold() float64 { return c.thresholdDB }

// Ratio returns the compression ratio.
func (c *Compressor) Ratio() float64 { return c.ratio }

// Knee returns the knee width in dB.
func (c *Compressor) Knee() float64 { return c.kneeDB }

// Attack returns the attack time in milliseconds.
func (c *Compressor) Attack() float64 { return c.attackMs }

// Release returns the release time in milliseconds.
func (c *Compressor) Release() float64 { return c.releaseMs }

// MakeupGain returns the makeup gain in dB.
func (c *Compressor) MakeupGain() float64 { return c.makeupGainDB }

// AutoMakeup reports whether automatic makeup gain is enabled.
func (c *Compressor) AutoMakeup() bool { return c.autoMakeup }

// SampleRate returns the sample rate in Hz.
func (c *Compressor) SampleRate() float64 { return c.sampleRate }

// ProcessSample processes one mono sample.
func (c *Compressor) ProcessSample(input float64) float64 {
	gain := c.trackGain(math.Abs(input)) * c.makeupGainLin
	return input * gain
}

// ProcessInPlace compresses buf in place.
func (c *Compressor) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = c.ProcessSample(buf[i])
	}
}

// ProcessStereo processes one stereo frame through a linked detector: the
// louder channel drives the envelope and both channels receive the same
// gain.
func (c *Compressor) ProcessStereo(left, right float64) (float64, float64) {
	level := math.Abs(left)
	if r := math.Abs(right); r > level {
		level = r
	}
	gain := c.trackGain(level) * c.makeupGainLin

	return left * gain, right * gain
}

// ProcessStereoInPlace compresses a stereo frame pair of equal-length
// channel buffers in place with a linked detector.
func (c *Compressor) ProcessStereoInPlace(left, right []float64) {
	n := min(len(left), len(right))
	for i := range n {
		left[i], right[i] = c.ProcessStereo(left[i], right[i])
	}
}

// CalculateOutputLevel computes the steady-state output level for a given
// input magnitude, independent of envelope state. It exposes the static
// compression curve.
func (c *Compressor) CalculateOutputLevel(inputMagnitude float64) float64 {
	inputMagnitude = math.Abs(inputMagnitude)
	gain := c.calculateGain(inputMagnitude)

	return inputMagnitude * gain * c.makeupGainLin
}

// Reset clears the envelope follower.
func (c *Compressor) Reset() {
	c.peakLevel = 0
}

// trackGain advances the envelope follower by one sample and returns the
// gain for the tracked level.
func (c *Compressor) trackGain(level float64) float64 {
	if level > c.peakLevel {
		c.peakLevel += (level - c.peakLevel) * c.attackCoeff
	} else {
		c.peakLevel = core.FlushDenormals(level + (c.peakLevel-level)*c.releaseCoeff)
	}

	return c.calculateGain(c.peakLevel)
}

// calculateGain computes the gain multiplier for a detector level using the
// log2-domain soft-knee formula: below threshold-knee/2 unity, above
// threshold+knee/2 the full ratio, quadratic interpolation in between.
func (c *Compressor) calculateGain(peakLevel float64) float64 {
	if peakLevel <= 0 {
		return 1.0
	}

	overshoot := mathLog2(peakLevel) - c.thresholdLog2

	if c.kneeDB <= 0 {
		if overshoot <= 0 {
			return 1.0
		}

		return mathPower2(-overshoot * (1.0 - 1.0/c.ratio))
	}

	halfWidth := c.kneeWidthLog2 * 0.5

	var effectiveOvershoot float64
	switch {
	case overshoot < -halfWidth:
		return 1.0
	case overshoot > halfWidth:
		effectiveOvershoot = overshoot
	default:
		// Quadratic knee: (overshoot + w/2)^2 / (2w).
		scratch := overshoot + halfWidth
		effectiveOvershoot = scratch * scratch * 0.5 * c.invKneeWidthLog2
	}

	return mathPower2(-effectiveOvershoot * (1.0 - 1.0/c.ratio))
}

func (c *Compressor) updateCoefficients() {
	c.thresholdLog2 = c.thresholdDB * log2Of10Div20
	c.kneeWidthLog2 = c.kneeDB * log2Of10Div20

	if c.kneeDB > 0 {
		c.invKneeWidthLog2 = 1.0 / c.kneeWidthLog2
	} else {
		c.invKneeWidthLog2 = 0
	}

	if c.autoMakeup {
		c.makeupGainDB = -c.thresholdDB * (1.0 - 1.0/c.ratio)
	}
	c.makeupGainLin = mathPower10(c.makeupGainDB / 20.0)

	c.updateTimeConstants()
}

func (c *Compressor) updateTimeConstants() {
	c.attackCoeff = 1.0 - math.Exp(-math.Ln2/(c.attackMs*0.001*c.sampleRate))
	c.releaseCoeff = math.Exp(-math.Ln2 / (c.releaseMs * 0.001 * c.sampleRate))
}
