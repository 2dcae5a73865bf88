package osc_test

import (
	"fmt"

	"github.com/cwbudde/algo-synth/dsp/osc"
)

func ExampleOscillator_Tick() {
	o, err := osc.New(48000)
	if err != nil {
		panic(err)
	}

	for range 4 {
		fmt.Printf("%.4f\n", o.Tick(440))
	}
	// Output:
	// 0.0000
	// 0.0576
	// 0.1149
	// 0.1719
}

func ExampleParseWaveform() {
	w, err := osc.ParseWaveform("square")
	if err != nil {
		panic(err)
	}

	fmt.Println(w)
	// Output:
	// square
}
