package engine

import (
	"math"

	"github.com/cwbudde/algo-synth/dsp/core"
	"github.com/cwbudde/algo-synth/dsp/effects"
	"github.com/cwbudde/algo-synth/synth/preset"
	"github.com/cwbudde/algo-vecmath"
)

// RenderBlock renders one stereo block. Both slices must be BlockSize long;
// a mismatch yields silence rather than an error, since the render callback
// has nobody to report to. Before the first preset arrives the output is
// silence.
//
// Render thread only.
func (e *Engine) RenderBlock(left, right []float64) {
	core.Zero(left)
	core.Zero(right)

	e.drainMessages()

	defer func() {
		e.finishStop()
		e.activeVoices.Store(int64(e.pool.ActiveCount()))
		e.heldVoices.Store(int64(e.pool.HeldCount()))
	}()

	n := e.blockSize
	if len(left) != n || len(right) != n {
		return
	}

	snap := e.live
	if snap == nil {
		return
	}

	renderLen := n
	if e.oversample {
		renderLen = 2 * n
	}

	e.mixVoices(snap, renderLen)

	if e.oversample {
		decimate2(e.mixLeft, n)
		decimate2(e.mixRight, n)
	}

	// Headroom attenuation, soft clip, DC removal, and master gain, per
	// sample at the output rate.
	for i := range n {
		l := effects.SoftClip(e.mixLeft[i] * mixAttenuation)
		r := effects.SoftClip(e.mixRight[i] * mixAttenuation)

		l = e.dcLeft.ProcessSample(l)
		r = e.dcRight.ProcessSample(r)

		g := e.master.Tick()
		e.mixLeft[i] = l * g
		e.mixRight[i] = r * g
	}

	e.processSends(n)

	e.comp.ProcessStereoInPlace(e.mixLeft[:n], e.mixRight[:n])
	e.limiter.ProcessStereoInPlace(e.mixLeft[:n], e.mixRight[:n])

	for i := range n {
		m := e.muteRamp.Tick()
		l := e.mixLeft[i] * m
		r := e.mixRight[i] * m

		// A non-finite sample here means the shared graph is corrupt;
		// reset it and finish the block silent.
		if math.IsNaN(l) || math.IsInf(l, 0) || math.IsNaN(r) || math.IsInf(r, 0) {
			e.resetGraph()
			return
		}

		left[i] = l
		right[i] = r
	}
}

// mixVoices renders every active voice and pan-mixes it into the stereo
// accumulators. Voices guard their own output: a non-finite sample
// hard-stops the offending voice inside RenderInto.
func (e *Engine) mixVoices(snap *preset.Snapshot, renderLen int) {
	core.Zero(e.mixLeft[:renderLen])
	core.Zero(e.mixRight[:renderLen])

	for i := range e.pool.Size() {
		v := e.pool.At(i)
		if !v.Active() {
			continue
		}

		v.RenderInto(e.voiceBuf[:renderLen], snap)

		gl, gr := panGains(snap.StereoSpread * v.Pan())

		vecmath.ScaleBlock(e.panBuf[:renderLen], e.voiceBuf[:renderLen], gl)
		vecmath.AddBlockInPlace(e.mixLeft[:renderLen], e.panBuf[:renderLen])

		vecmath.ScaleBlock(e.panBuf[:renderLen], e.voiceBuf[:renderLen], gr)
		vecmath.AddBlockInPlace(e.mixRight[:renderLen], e.panBuf[:renderLen])
	}
}

// processSends feeds the mono sum of the dry bus through the reverb and
// delay sends and adds their wet output to both channels.
func (e *Engine) processSends(n int) {
	for i := range n {
		e.sendIn[i] = 0.5 * (e.mixLeft[i] + e.mixRight[i])
	}

	if err := e.reverb.ProcessBlockTo(e.wetRev, e.sendIn); err == nil {
		vecmath.AddBlockInPlace(e.mixLeft[:n], e.wetRev)
		vecmath.AddBlockInPlace(e.mixRight[:n], e.wetRev)
	}

	if err := e.delay.ProcessBlockTo(e.wetDel, e.sendIn); err == nil {
		vecmath.AddBlockInPlace(e.mixLeft[:n], e.wetDel)
		vecmath.AddBlockInPlace(e.mixRight[:n], e.wetDel)
	}
}

// drainMessages applies every pending control message without blocking.
func (e *Engine) drainMessages() {
	for {
		select {
		case msg := <-e.msgs:
			e.apply(msg)
		default:
			return
		}
	}
}

func (e *Engine) apply(msg message) {
	switch m := msg.(type) {
	case presetMsg:
		e.applyPreset(m)
	case configMsg:
		e.applyConfig(m)
	case noteOnMsg:
		e.pool.NoteOn(m.id, m.freq, m.velocity)
	case noteOffMsg:
		e.pool.NoteOff(m.id)
	case glideMsg:
		e.pool.Glide(m.id, m.freq)
	case stopAllMsg:
		e.panicStop()
	}
}

// applyPreset swaps the live snapshot atomically and pushes the effect
// parameters through their smoothed ramps. The delay feedback re-arms from
// zero on every swap so a previous patch's loop cannot bleed into the new
// one.
func (e *Engine) applyPreset(m presetMsg) {
	e.live = m.snap
	e.published.Store(m.snap)

	if m.reverb != nil {
		e.reverb = m.reverb
	}

	// Snapshot fields are sanitized into the setter ranges, so these
	// cannot fail.
	_ = e.reverb.SetMix(m.snap.ReverbMix)
	_ = e.delay.SetTime(m.snap.DelayTime)
	_ = e.delay.SetFeedback(m.snap.DelayFeedback)
	_ = e.delay.SetMix(m.snap.DelayMix)
	e.delay.RearmFeedback()

	_ = e.comp.SetThreshold(m.snap.CompThreshold)
	_ = e.comp.SetRatio(m.snap.CompRatio)
	_ = e.comp.SetRelease(m.snap.CompRelease)

	e.master.SetTarget(m.snap.MasterGain)
}

func (e *Engine) applyConfig(m configMsg) {
	if m.polyphony > 0 {
		e.pool.SetPolyphony(m.polyphony)
	}

	if m.table != nil {
		e.pool.SetTable(m.table)
	}

	e.pool.SetInterpolation(m.interp)

	if m.oversampling != e.oversample {
		e.oversample = m.oversampling

		rate := e.sampleRate
		if e.oversample {
			rate *= 2
		}

		e.pool.SetSampleRate(rate)
	}
}

// panicStop arms the stop-all sequence: the mute ramp fades the output down
// across the current block, and finishStop clears the voices and the effect
// graph once the block has rendered. Fading first keeps whatever the voices
// were playing out of the discontinuity.
func (e *Engine) panicStop() {
	e.muteRamp.SetTarget(0)
	e.stopPending = true
}

// finishStop completes an armed stop-all at the end of the block. The ramp
// re-arms from zero toward unity, so a note arriving right after the stop
// fades in instead of clicking.
func (e *Engine) finishStop() {
	if !e.stopPending {
		return
	}

	e.stopPending = false
	e.pool.StopAll()
	e.resetGraph()
	e.muteRamp.Cut(0)
	e.muteRamp.SetTarget(1)
}

// resetGraph clears every effect node's internal state: delay line and
// feedback ramp, convolution tail, dynamics followers, and DC blockers.
// Idempotent and allocation-free, so it is safe on the render thread as the
// NaN-recovery path. Node parameters are untouched; they re-derive from the
// live snapshot on the next preset message.
func (e *Engine) resetGraph() {
	e.delay.Reset()
	e.reverb.Reset()
	e.comp.Reset()
	e.limiter.Reset()
	e.dcLeft.Reset()
	e.dcRight.Reset()
}

// decimate2 halves buf in place by averaging adjacent sample pairs; n is
// the output length.
func decimate2(buf []float64, n int) {
	for i := range n {
		buf[i] = 0.5 * (buf[2*i] + buf[2*i+1])
	}
}

// panGains maps a position in [-1, 1] to equal-power channel gains.
func panGains(pan float64) (left, right float64) {
	if pan < -1 {
		pan = -1
	} else if pan > 1 {
		pan = 1
	}

	angle := (pan + 1) * math.Pi / 4

	return math.Cos(angle), math.Sin(angle)
}
