package engine_test

import (
	"fmt"

	"github.com/cwbudde/algo-synth/internal/cpu"
	"github.com/cwbudde/algo-synth/synth/engine"
	"github.com/cwbudde/algo-synth/synth/preset"
)

// ExampleEngine renders a short note through the full graph. The quality
// probe is pinned so the example output is host independent.
func ExampleEngine() {
	e, err := engine.New(
		engine.WithSampleRate(48000),
		engine.WithBlockSize(256),
		engine.WithQualityProbe(func() cpu.Tier { return cpu.TierEconomy }),
	)
	if err != nil {
		panic(err)
	}

	e.PostPreset(preset.Default())
	e.PostNoteOn("a4", 440, 0.9)

	left := make([]float64, e.BlockSize())
	right := make([]float64, e.BlockSize())
	e.RenderBlock(left, right)

	fmt.Println("active:", e.ActiveVoices())
	fmt.Println("held:", e.HeldVoices())

	e.PostNoteOff("a4")
	e.RenderBlock(left, right)

	fmt.Println("held after release:", e.HeldVoices())
	// Output:
	// active: 1
	// held: 1
	// held after release: 0
}
