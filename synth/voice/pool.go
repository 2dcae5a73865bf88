package voice

import (
	"fmt"

	"github.com/cwbudde/algo-synth/dsp/osc"
)

const (
	// DefaultPoolSize is the number of physical voices allocated when no
	// option overrides it. Release tails occupy physical voices beyond the
	// musical polyphony ceiling, so the pool is deliberately larger.
	DefaultPoolSize = 64

	// DefaultPolyphony is the default musical polyphony ceiling.
	DefaultPolyphony = 16

	minPoolSize = 1
	maxPoolSize = 256
)

// PoolOption mutates pool constructor configuration.
type PoolOption func(*poolConfig) error

type poolConfig struct {
	size      int
	polyphony int
	table     *osc.Table
}

func defaultPoolConfig() poolConfig {
	return poolConfig{
		size:      DefaultPoolSize,
		polyphony: DefaultPolyphony,
	}
}

// WithPoolSize sets the physical voice count, in [1, 256].
func WithPoolSize(n int) PoolOption {
	return func(cfg *poolConfig) error {
		if n < minPoolSize || n > maxPoolSize {
			return fmt.Errorf("voice: pool size must be in [%d, %d]: %d", minPoolSize, maxPoolSize, n)
		}

		cfg.size = n

		return nil
	}
}

// WithPolyphony sets the initial musical polyphony ceiling. It is clamped
// to the pool size at construction.
func WithPolyphony(n int) PoolOption {
	return func(cfg *poolConfig) error {
		if n < 1 {
			return fmt.Errorf("voice: polyphony must be at least 1: %d", n)
		}

		cfg.polyphony = n

		return nil
	}
}

// WithSharedTable supplies the wavetable shared by every oscillator and LFO
// in the pool.
func WithSharedTable(t *osc.Table) PoolOption {
	return func(cfg *poolConfig) error {
		if t == nil {
			return fmt.Errorf("voice: table must not be nil")
		}

		cfg.table = t

		return nil
	}
}

// Pool is the fixed array of voices with note-to-voice binding and the
// two-tier stealing policy: a soft steal releases the oldest held voice
// when the musical ceiling is reached, and a hard steal repurposes the
// quietest physical voice when the whole pool is occupied. Every note-on is
// guaranteed a voice.
//
// All methods belong to the render thread.
type Pool struct {
	voices    []*Voice
	polyphony int

	// seq is the monotonic stamp source for trigger and release ordering.
	seq uint64

	// onSteal is an advisory callback fired with the stolen note id on
	// both soft and hard steals. It runs on the render thread and must not
	// block.
	onSteal func(noteID string)
}

// NewPool allocates every voice up front; rendering never allocates.
func NewPool(sampleRate float64, opts ...PoolOption) (*Pool, error) {
	cfg := defaultPoolConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	if cfg.table == nil {
		t, err := osc.NewTable(osc.DefaultTableSize)
		if err != nil {
			return nil, err
		}

		cfg.table = t
	}

	if cfg.polyphony > cfg.size {
		cfg.polyphony = cfg.size
	}

	p := &Pool{
		voices:    make([]*Voice, cfg.size),
		polyphony: cfg.polyphony,
	}

	for i := range p.voices {
		v, err := NewVoice(sampleRate, cfg.table)
		if err != nil {
			return nil, err
		}

		v.panOffset = panOffset(i, cfg.size)
		p.voices[i] = v
	}

	return p, nil
}

// panOffset spreads voices deterministically across [-1, 1].
func panOffset(i, n int) float64 {
	if n < 2 {
		return 0
	}

	return 2*float64(i)/float64(n-1) - 1
}

// Size returns the physical voice count.
func (p *Pool) Size() int { return len(p.voices) }

// At returns the i-th physical voice.
func (p *Pool) At(i int) *Voice { return p.voices[i] }

// Polyphony returns the musical polyphony ceiling.
func (p *Pool) Polyphony() int { return p.polyphony }

// ActiveCount returns the number of active voices, including release tails.
func (p *Pool) ActiveCount() int {
	count := 0

	for _, v := range p.voices {
		if v.active {
			count++
		}
	}

	return count
}

// HeldCount returns the number of musically held voices.
func (p *Pool) HeldCount() int {
	count := 0

	for _, v := range p.voices {
		if v.Held() {
			count++
		}
	}

	return count
}

// SetOnSteal installs the advisory steal callback.
func (p *Pool) SetOnSteal(fn func(noteID string)) { p.onSteal = fn }

// SetPolyphony changes the musical ceiling, clamped to [1, pool size].
// Lowering it below the current held count soft-steals the oldest held
// voices immediately.
func (p *Pool) SetPolyphony(n int) {
	if n < 1 {
		n = 1
	}

	if n > len(p.voices) {
		n = len(p.voices)
	}

	p.polyphony = n

	for p.HeldCount() > p.polyphony {
		if !p.softSteal() {
			break
		}
	}
}

// SetTable swaps the shared wavetable on every voice.
func (p *Pool) SetTable(t *osc.Table) {
	if t == nil {
		return
	}

	for _, v := range p.voices {
		v.setTable(t)
	}
}

// SetInterpolation switches the wavetable read mode on every voice.
func (p *Pool) SetInterpolation(ip osc.Interpolation) {
	for _, v := range p.voices {
		v.setInterpolation(ip)
	}
}

// SetSampleRate switches every voice to a new internal rate. The engine
// uses this when toggling 2x oversampling.
func (p *Pool) SetSampleRate(sampleRate float64) {
	if sampleRate <= 0 {
		return
	}

	for _, v := range p.voices {
		v.setSampleRate(sampleRate)
	}
}

// NoteOn binds a voice to the note id and triggers it. A note id already
// bound to an active voice re-triggers that voice in place. When the held
// count has reached the polyphony ceiling, the oldest held voice is
// soft-stolen into its release tail first. Allocation prefers a free
// physical voice and falls back to hard-stealing the quietest one, so the
// call always binds a voice.
func (p *Pool) NoteOn(noteID string, freq, velocity float64) {
	if v := p.find(noteID); v != nil {
		p.trigger(v, noteID, freq, velocity)
		return
	}

	if p.HeldCount() >= p.polyphony {
		p.softSteal()
	}

	v := p.findFree()
	if v == nil {
		v = p.quietest()
		p.notifySteal(v.noteID)
	}

	p.trigger(v, noteID, freq, velocity)
}

// NoteOff releases the voice bound to the note id. Unknown ids are a no-op:
// the voice may already have been stolen or finished naturally.
func (p *Pool) NoteOff(noteID string) {
	v := p.find(noteID)
	if v == nil || v.releaseSeq != 0 {
		return
	}

	p.seq++
	v.releaseSeq = p.seq
	v.Release()
}

// Glide updates the glide target of the voice bound to the note id. Unknown
// ids are a no-op.
func (p *Pool) Glide(noteID string, freq float64) {
	if v := p.find(noteID); v != nil {
		v.SetTargetFreq(freq)
	}
}

// StopAll hard-stops every voice. Idempotent; used by the panic path.
func (p *Pool) StopAll() {
	for _, v := range p.voices {
		v.HardStop()
	}
}

func (p *Pool) trigger(v *Voice, noteID string, freq, velocity float64) {
	p.seq++
	v.triggerSeq = p.seq
	v.Trigger(noteID, freq, velocity)
}

func (p *Pool) find(noteID string) *Voice {
	for _, v := range p.voices {
		if v.active && v.noteID == noteID {
			return v
		}
	}

	return nil
}

func (p *Pool) findFree() *Voice {
	for _, v := range p.voices {
		if !v.active {
			return v
		}
	}

	return nil
}

// softSteal releases the least-recently-triggered held voice so its tail
// keeps sounding on the physical voice while the musical slot frees up.
func (p *Pool) softSteal() bool {
	var oldest *Voice

	for _, v := range p.voices {
		if !v.Held() {
			continue
		}

		if oldest == nil || v.triggerSeq < oldest.triggerSeq {
			oldest = v
		}
	}

	if oldest == nil {
		return false
	}

	p.seq++
	oldest.releaseSeq = p.seq
	oldest.Release()
	p.notifySteal(oldest.noteID)

	return true
}

// quietest picks the hard-steal victim: the active voice with the lowest
// summed envelope level.
func (p *Pool) quietest() *Voice {
	victim := p.voices[0]
	level := victim.EnvelopeLevel()

	for _, v := range p.voices[1:] {
		if l := v.EnvelopeLevel(); l < level {
			victim = v
			level = l
		}
	}

	return victim
}

func (p *Pool) notifySteal(noteID string) {
	if p.onSteal != nil && noteID != "" {
		p.onSteal(noteID)
	}
}
