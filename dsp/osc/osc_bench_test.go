package osc

import "testing"

func BenchmarkTick(b *testing.B) {
	tests := []struct {
		name     string
		waveform Waveform
		interp   Interpolation
	}{
		{name: "sine_cubic", waveform: Sine, interp: InterpolationCubic},
		{name: "sine_linear", waveform: Sine, interp: InterpolationLinear},
		{name: "triangle", waveform: Triangle, interp: InterpolationCubic},
		{name: "sawtooth", waveform: Sawtooth, interp: InterpolationCubic},
		{name: "square", waveform: Square, interp: InterpolationCubic},
	}

	for _, tc := range tests {
		b.Run(tc.name, func(b *testing.B) {
			o, err := New(48000,
				WithWaveform(tc.waveform),
				WithInterpolation(tc.interp),
			)
			if err != nil {
				b.Fatalf("New() error = %v", err)
			}

			b.ReportAllocs()
			b.ResetTimer()

			for range b.N {
				_ = o.Tick(440)
			}
		})
	}
}
