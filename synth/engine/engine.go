// Package engine ties the synthesizer together: the real-time render
// processor, the fixed voice pool, the send-effect graph, and the
// asynchronous control-plane bridge feeding them.
//
// The render thread owns the voice pool, the live preset snapshot, the
// effect nodes, and all scratch buffers; everything is allocated at
// construction, so steady-state rendering performs no heap allocation. The
// control side talks to the render thread exclusively through a buffered,
// non-blocking message channel drained at the start of each block, and
// heavy payloads (sanitized snapshots, rebuilt wavetables, replacement
// reverb nodes) are built control-side and shipped as references.
package engine

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/cwbudde/algo-synth/dsp/effects"
	"github.com/cwbudde/algo-synth/dsp/effects/dynamics"
	"github.com/cwbudde/algo-synth/dsp/osc"
	"github.com/cwbudde/algo-synth/internal/cpu"
	"github.com/cwbudde/algo-synth/synth/preset"
	"github.com/cwbudde/algo-synth/synth/voice"
)

const (
	// DefaultSampleRate is the render rate used when no option overrides
	// it.
	DefaultSampleRate = 48000.0

	// DefaultBlockSize is the render callback block size in samples.
	DefaultBlockSize = 1024

	minBlockSize = 64
	maxBlockSize = 8192

	// DefaultMessageBuffer is the control-message channel capacity.
	DefaultMessageBuffer = 256

	// notificationBuffer bounds the advisory voice-stolen channel.
	notificationBuffer = 64

	// mixAttenuation leaves headroom for three oscillators per voice
	// before the soft clipper.
	mixAttenuation = 1.0 / 3.0

	// panicMuteRampSeconds is the dry-path mute ramp after a stop-all.
	panicMuteRampSeconds = 0.01
)

// Option mutates constructor configuration.
type Option func(*config) error

type config struct {
	sampleRate    float64
	blockSize     int
	poolSize      int
	polyphony     int
	messageBuffer int
	probe         func() cpu.Tier
}

func defaultConfig() config {
	return config{
		sampleRate:    DefaultSampleRate,
		blockSize:     DefaultBlockSize,
		poolSize:      voice.DefaultPoolSize,
		polyphony:     voice.DefaultPolyphony,
		messageBuffer: DefaultMessageBuffer,
		probe:         cpu.DetectTier,
	}
}

// WithSampleRate sets the render sample rate in Hz.
func WithSampleRate(sampleRate float64) Option {
	return func(cfg *config) error {
		if sampleRate <= 0 {
			return fmt.Errorf("engine: sample rate must be positive: %f", sampleRate)
		}

		cfg.sampleRate = sampleRate

		return nil
	}
}

// WithBlockSize sets the render block size in samples, in [64, 8192].
func WithBlockSize(blockSize int) Option {
	return func(cfg *config) error {
		if blockSize < minBlockSize || blockSize > maxBlockSize {
			return fmt.Errorf("engine: block size must be in [%d, %d]: %d", minBlockSize, maxBlockSize, blockSize)
		}

		cfg.blockSize = blockSize

		return nil
	}
}

// WithPoolSize sets the physical voice count.
func WithPoolSize(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("engine: pool size must be at least 1: %d", n)
		}

		cfg.poolSize = n

		return nil
	}
}

// WithPolyphony sets the initial musical polyphony ceiling.
func WithPolyphony(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("engine: polyphony must be at least 1: %d", n)
		}

		cfg.polyphony = n

		return nil
	}
}

// WithMessageBuffer sets the control-message channel capacity.
func WithMessageBuffer(n int) Option {
	return func(cfg *config) error {
		if n < 1 {
			return fmt.Errorf("engine: message buffer must be at least 1: %d", n)
		}

		cfg.messageBuffer = n

		return nil
	}
}

// WithQualityProbe replaces the host capability probe deciding the default
// oversampling state. Mostly useful for tests and constrained targets.
func WithQualityProbe(probe func() cpu.Tier) Option {
	return func(cfg *config) error {
		if probe == nil {
			return fmt.Errorf("engine: quality probe must not be nil")
		}

		cfg.probe = probe

		return nil
	}
}

// Engine is the synthesizer: voice pool, render processor, effect graph,
// and control-plane bridge. Construct it with New; only construction can
// fail, everything downstream is self-healing.
//
// RenderBlock and the beep streamer belong to the render thread; the Post
// methods are safe from any goroutine.
type Engine struct {
	sampleRate float64
	blockSize  int

	pool *voice.Pool

	msgs  chan message
	notes chan VoiceStolen

	// live is the render thread's snapshot; published mirrors it for
	// observers on other goroutines.
	live      *preset.Snapshot
	published atomic.Pointer[preset.Snapshot]

	oversample bool

	delay    *effects.Delay
	reverb   *effects.Reverb
	comp     *dynamics.Compressor
	limiter  *dynamics.Limiter
	dcLeft   *effects.DCBlock
	dcRight  *effects.DCBlock
	master   *effects.Ramp
	muteRamp *effects.Ramp

	// stopPending defers the voice and graph clear of a stop-all until the
	// end of the block, after the mute ramp has faded the output.
	stopPending bool

	// Scratch buffers, sized for the 2x oversampled path.
	voiceBuf []float64
	panBuf   []float64
	mixLeft  []float64
	mixRight []float64
	sendIn   []float64
	wetRev   []float64
	wetDel   []float64

	// Control-side bookkeeping for payloads that need a rebuild.
	ctrlMu         sync.Mutex
	ctrlReverbSize float64
	ctrlReverbDamp float64
	ctrlTableSize  int

	activeVoices atomic.Int64
	heldVoices   atomic.Int64
	stolenTotal  atomic.Uint64
}

// New constructs the engine with every voice and buffer preallocated.
func New(opts ...Option) (*Engine, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	pool, err := voice.NewPool(cfg.sampleRate,
		voice.WithPoolSize(cfg.poolSize),
		voice.WithPolyphony(cfg.polyphony),
	)
	if err != nil {
		return nil, err
	}

	def := preset.Default()

	delay, err := effects.NewDelay(cfg.sampleRate,
		effects.WithDelayTime(def.DelayTime),
		effects.WithDelayFeedback(def.DelayFeedback),
		effects.WithDelayMix(def.DelayMix),
	)
	if err != nil {
		return nil, err
	}

	reverb, err := effects.NewReverb(cfg.sampleRate, cfg.blockSize,
		effects.WithReverbSize(def.ReverbSize),
		effects.WithReverbDamp(def.ReverbDamp),
		effects.WithReverbMix(def.ReverbMix),
	)
	if err != nil {
		return nil, err
	}

	comp, err := dynamics.NewCompressor(cfg.sampleRate)
	if err != nil {
		return nil, err
	}

	limiter, err := dynamics.NewLimiter(cfg.sampleRate)
	if err != nil {
		return nil, err
	}

	master, err := effects.NewRamp(cfg.sampleRate, 0.015, def.MasterGain)
	if err != nil {
		return nil, err
	}

	muteRamp, err := effects.NewRamp(cfg.sampleRate, panicMuteRampSeconds, 1)
	if err != nil {
		return nil, err
	}

	e := &Engine{
		sampleRate: cfg.sampleRate,
		blockSize:  cfg.blockSize,
		pool:       pool,
		msgs:       make(chan message, cfg.messageBuffer),
		notes:      make(chan VoiceStolen, notificationBuffer),

		delay:    delay,
		reverb:   reverb,
		comp:     comp,
		limiter:  limiter,
		dcLeft:   effects.NewDCBlock(),
		dcRight:  effects.NewDCBlock(),
		master:   master,
		muteRamp: muteRamp,

		voiceBuf: make([]float64, 2*cfg.blockSize),
		panBuf:   make([]float64, 2*cfg.blockSize),
		mixLeft:  make([]float64, 2*cfg.blockSize),
		mixRight: make([]float64, 2*cfg.blockSize),
		sendIn:   make([]float64, cfg.blockSize),
		wetRev:   make([]float64, cfg.blockSize),
		wetDel:   make([]float64, cfg.blockSize),

		ctrlReverbSize: def.ReverbSize,
		ctrlReverbDamp: def.ReverbDamp,
		ctrlTableSize:  osc.DefaultTableSize,
	}

	pool.SetOnSteal(e.handleSteal)

	if cfg.probe() == cpu.TierFull {
		e.oversample = true
		pool.SetSampleRate(2 * cfg.sampleRate)
	}

	return e, nil
}

// SampleRate returns the output sample rate in Hz.
func (e *Engine) SampleRate() float64 { return e.sampleRate }

// BlockSize returns the render block size in samples.
func (e *Engine) BlockSize() int { return e.blockSize }

// Oversampling reports whether the render path runs at 2x internally. The
// value reflects the render thread's state as of the last applied config.
func (e *Engine) Oversampling() bool { return e.oversample }

// Snapshot returns the most recently applied preset snapshot, or nil when
// none has been received yet. Safe from any goroutine.
func (e *Engine) Snapshot() *preset.Snapshot { return e.published.Load() }

// ActiveVoices returns the voice count, release tails included, as of the
// last rendered block. Safe from any goroutine.
func (e *Engine) ActiveVoices() int { return int(e.activeVoices.Load()) }

// HeldVoices returns the musically held voice count as of the last
// rendered block. Safe from any goroutine.
func (e *Engine) HeldVoices() int { return int(e.heldVoices.Load()) }

// StolenTotal returns the number of voices stolen since construction. Safe
// from any goroutine.
func (e *Engine) StolenTotal() uint64 { return e.stolenTotal.Load() }

// Stolen returns the advisory voice-stolen notification channel.
// Notifications are dropped when the channel is full.
func (e *Engine) Stolen() <-chan VoiceStolen { return e.notes }

// PostPreset sanitizes the preset and queues it for an atomic swap at the
// next block. When reverb size or damp changed, the replacement reverb node
// is built here, off the render thread. Returns false when the message
// queue is full.
func (e *Engine) PostPreset(p preset.Preset) bool {
	snap := p.Sanitize()

	var rv *effects.Reverb

	e.ctrlMu.Lock()
	if snap.ReverbSize != e.ctrlReverbSize || snap.ReverbDamp != e.ctrlReverbDamp {
		built, err := effects.NewReverb(e.sampleRate, e.blockSize,
			effects.WithReverbSize(snap.ReverbSize),
			effects.WithReverbDamp(snap.ReverbDamp),
			effects.WithReverbMix(snap.ReverbMix),
		)
		if err == nil {
			rv = built
			e.ctrlReverbSize = snap.ReverbSize
			e.ctrlReverbDamp = snap.ReverbDamp
		}
	}
	e.ctrlMu.Unlock()

	return e.post(presetMsg{snap: snap, reverb: rv})
}

// PostConfig queues render-time tunables. The wavetable is rebuilt here
// when its size changed; invalid sizes keep the current table. Returns
// false when the message queue is full.
func (e *Engine) PostConfig(cfg Config) bool {
	msg := configMsg{
		polyphony:    cfg.Polyphony,
		oversampling: cfg.Oversampling,
		interp:       cfg.Interpolation,
	}

	e.ctrlMu.Lock()
	if cfg.WavetableSize != e.ctrlTableSize {
		if t, err := osc.NewTable(cfg.WavetableSize); err == nil {
			msg.table = t
			e.ctrlTableSize = cfg.WavetableSize
		}
	}
	e.ctrlMu.Unlock()

	return e.post(msg)
}

// PostNoteOn queues a note trigger. Returns false when the queue is full.
func (e *Engine) PostNoteOn(id string, freq, velocity float64) bool {
	return e.post(noteOnMsg{id: id, freq: freq, velocity: velocity})
}

// PostNoteOff queues a note release. Releasing an unknown id is harmless.
// Returns false when the queue is full.
func (e *Engine) PostNoteOff(id string) bool {
	return e.post(noteOffMsg{id: id})
}

// PostGlide queues a glide-target update for a sounding note. Returns false
// when the queue is full.
func (e *Engine) PostGlide(id string, freq float64) bool {
	return e.post(glideMsg{id: id, freq: freq})
}

// PostStopAll queues the panic: mute, stop every voice, and reset the
// effect graph. Idempotent. Returns false when the queue is full.
func (e *Engine) PostStopAll() bool {
	return e.post(stopAllMsg{})
}

// post enqueues without ever blocking the caller; a full queue drops the
// message.
func (e *Engine) post(msg message) bool {
	select {
	case e.msgs <- msg:
		return true
	default:
		return false
	}
}

// handleSteal runs on the render thread from the pool's steal callback.
func (e *Engine) handleSteal(noteID string) {
	e.stolenTotal.Add(1)

	select {
	case e.notes <- VoiceStolen{NoteID: noteID}:
	default:
	}
}
