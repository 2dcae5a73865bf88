// Command synthdemo plays a short sequence through the synthesis engine.
//
// Usage:
//
//	synthdemo [flags]
//
// Without flags it plays an arpeggio on the default preset. A preset file
// in the engine's JSON format replaces the default patch.
//
// Examples:
//
//	synthdemo
//	synthdemo -preset warm-pad.json
//	synthdemo -debug -poly 8
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"

	"github.com/cwbudde/algo-synth/synth/engine"
	"github.com/cwbudde/algo-synth/synth/preset"
	"github.com/cwbudde/algo-synth/synth/voice"
)

func main() {
	var (
		presetPath = flag.String("preset", "", "preset JSON file (default: built-in patch)")
		sampleRate = flag.Int("rate", 48000, "output sample rate in Hz")
		blockSize  = flag.Int("block", engine.DefaultBlockSize, "render block size in samples")
		polyphony  = flag.Int("poly", voice.DefaultPolyphony, "musical polyphony ceiling")
		debug      = flag.Bool("debug", false, "verbose logging with source locations")
	)

	flag.Parse()

	logLevel := slog.LevelInfo
	if *debug {
		logLevel = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: *debug,
	}))
	slog.SetDefault(logger)

	if err := run(*presetPath, *sampleRate, *blockSize, *polyphony, logger); err != nil {
		logger.Error("synthdemo failed", "err", err)
		os.Exit(1)
	}
}

func run(presetPath string, sampleRate, blockSize, polyphony int, logger *slog.Logger) error {
	p := preset.Default()

	if presetPath != "" {
		data, err := os.ReadFile(presetPath)
		if err != nil {
			return fmt.Errorf("read preset: %w", err)
		}

		p, err = preset.FromJSON(data)
		if err != nil {
			return fmt.Errorf("parse preset: %w", err)
		}

		logger.Info("loaded preset", "path", presetPath, "name", p.Name)
	}

	e, err := engine.New(
		engine.WithSampleRate(float64(sampleRate)),
		engine.WithBlockSize(blockSize),
		engine.WithPolyphony(polyphony),
	)
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}

	logger.Info("engine ready",
		"rate", e.SampleRate(),
		"block", e.BlockSize(),
		"oversampling", e.Oversampling())

	if !e.PostPreset(p) {
		return fmt.Errorf("preset message dropped")
	}

	go logSteals(e, logger)

	sr := beep.SampleRate(sampleRate)
	if err := speaker.Init(sr, sr.N(100*time.Millisecond)); err != nil {
		return fmt.Errorf("init speaker: %w", err)
	}

	speaker.Play(e.Streamer())

	playSequence(e, logger)

	// Let the release tails and the sends ring out.
	time.Sleep(1500 * time.Millisecond)

	e.PostStopAll()
	time.Sleep(100 * time.Millisecond)

	logger.Info("done", "stolen", e.StolenTotal())

	return nil
}

// playSequence arpeggiates an A minor chord and then holds it.
func playSequence(e *engine.Engine, logger *slog.Logger) {
	notes := []struct {
		id   string
		freq float64
	}{
		{"a3", 220.00},
		{"c4", 261.63},
		{"e4", 329.63},
		{"a4", 440.00},
	}

	for _, n := range notes {
		logger.Debug("note on", "id", n.id, "freq", n.freq)
		e.PostNoteOn(n.id, n.freq, 0.9)
		time.Sleep(250 * time.Millisecond)
	}

	time.Sleep(500 * time.Millisecond)

	for _, n := range notes {
		logger.Debug("note off", "id", n.id)
		e.PostNoteOff(n.id)
		time.Sleep(100 * time.Millisecond)
	}
}

// logSteals surfaces voice-steal notifications while the sequence plays.
func logSteals(e *engine.Engine, logger *slog.Logger) {
	for n := range e.Stolen() {
		logger.Debug("voice stolen", "note", n.NoteID)
	}
}
