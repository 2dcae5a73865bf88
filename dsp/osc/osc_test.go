package osc

import (
	"math"
	"testing"
)

func TestNewValidation(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	if _, err := New(-48000); err == nil {
		t.Fatal("expected error for negative sample rate")
	}

	if _, err := New(math.NaN()); err == nil {
		t.Fatal("expected error for NaN sample rate")
	}

	if _, err := New(48000, WithWaveform(Waveform(99))); err == nil {
		t.Fatal("expected error for invalid waveform")
	}

	if _, err := New(48000, WithInterpolation(Interpolation(99))); err == nil {
		t.Fatal("expected error for invalid interpolation")
	}

	if _, err := New(48000, WithTable(nil)); err == nil {
		t.Fatal("expected error for nil table")
	}
}

func TestParseWaveform(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Waveform
		wantErr bool
	}{
		{name: "sine", input: "sine", want: Sine},
		{name: "triangle", input: "triangle", want: Triangle},
		{name: "sawtooth", input: "sawtooth", want: Sawtooth},
		{name: "square", input: "square", want: Square},
		{name: "unknown", input: "pulse", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ParseWaveform(tc.input)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("ParseWaveform(%q) expected error", tc.input)
				}

				return
			}

			if err != nil {
				t.Fatalf("ParseWaveform(%q) error = %v", tc.input, err)
			}

			if got != tc.want {
				t.Fatalf("ParseWaveform(%q) = %v, want %v", tc.input, got, tc.want)
			}

			if got.String() != tc.input {
				t.Fatalf("String() = %q, want %q", got.String(), tc.input)
			}
		})
	}
}

func TestSineMatchesReference(t *testing.T) {
	o, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const freq = 440.0

	for n := range 4800 {
		got := o.Tick(freq)
		want := math.Sin(2 * math.Pi * freq * float64(n) / 48000)

		if math.Abs(got-want) > 1e-5 {
			t.Fatalf("sample %d = %v, want %v", n, got, want)
		}
	}
}

func TestSineLinearInterpolation(t *testing.T) {
	o, err := New(48000, WithInterpolation(InterpolationLinear))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const freq = 440.0

	for n := range 4800 {
		got := o.Tick(freq)
		want := math.Sin(2 * math.Pi * freq * float64(n) / 48000)

		if math.Abs(got-want) > 1e-4 {
			t.Fatalf("sample %d = %v, want %v", n, got, want)
		}
	}
}

func TestTriangleClosedForm(t *testing.T) {
	o, err := New(48000, WithWaveform(Triangle))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// 12 kHz at 48 kHz steps phase by exactly 0.25 per tick.
	want := []float64{1, 0, -1, 0, 1, 0, -1, 0}
	for i, w := range want {
		got := o.Tick(12000)
		if math.Abs(got-w) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", i, got, w)
		}
	}
}

func TestSquareMidCycleLevels(t *testing.T) {
	o, err := New(48000, WithWaveform(Square))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	const freq = 100.0 // 480 samples per cycle, edges at n=0 and n=240

	out := make([]float64, 480)
	for i := range out {
		out[i] = o.Tick(freq)
	}

	for n := 5; n <= 100; n++ {
		if out[n] != 1 {
			t.Fatalf("sample %d = %v, want 1", n, out[n])
		}
	}

	for n := 250; n <= 400; n++ {
		if out[n] != -1 {
			t.Fatalf("sample %d = %v, want -1", n, out[n])
		}
	}
}

func TestSawtoothBounded(t *testing.T) {
	for _, freq := range []float64{100, 1000, 5000, 15000} {
		o, err := New(48000, WithWaveform(Sawtooth))
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		for n := range 2000 {
			got := o.Tick(freq)
			if math.Abs(got) > 1.25 {
				t.Fatalf("freq %v sample %d = %v, exceeds bound", freq, n, got)
			}

			if math.IsNaN(got) || math.IsInf(got, 0) {
				t.Fatalf("freq %v sample %d = %v, not finite", freq, n, got)
			}
		}
	}
}

func TestDegenerateFrequencyIsSilent(t *testing.T) {
	o, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// Advance away from zero so a stuck phase is detectable.
	_ = o.Tick(440)
	before := o.Phase()

	degenerate := []float64{0, -100, math.NaN(), math.Inf(1), math.Inf(-1), 21600, 24000}
	for _, freq := range degenerate {
		if got := o.Tick(freq); got != 0 {
			t.Fatalf("Tick(%v) = %v, want 0", freq, got)
		}

		if got := o.Phase(); got != before {
			t.Fatalf("Tick(%v) moved phase to %v, want %v", freq, got, before)
		}
	}
}

func TestPhaseWraps(t *testing.T) {
	o, err := New(48000, WithWaveform(Sawtooth))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	// dt = 0.4 per tick; after three ticks phase is 1.2 wrapped to 0.2.
	const freq = 0.4 * 48000

	for range 3 {
		_ = o.Tick(freq)
	}

	if got, want := o.Phase(), 0.2; math.Abs(got-want) > 1e-12 {
		t.Fatalf("Phase() = %v, want %v", got, want)
	}
}

func TestReset(t *testing.T) {
	o, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	for range 17 {
		_ = o.Tick(440)
	}

	if o.Phase() == 0 {
		t.Fatal("phase did not advance before reset")
	}

	o.Reset()

	if got := o.Phase(); got != 0 {
		t.Fatalf("Phase() after Reset = %v, want 0", got)
	}
}

func TestSetWaveform(t *testing.T) {
	o, err := New(48000)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := o.SetWaveform(Square); err != nil {
		t.Fatalf("SetWaveform() error = %v", err)
	}

	if got := o.Waveform(); got != Square {
		t.Fatalf("Waveform() = %v, want %v", got, Square)
	}

	if err := o.SetWaveform(Waveform(42)); err == nil {
		t.Fatal("expected error for invalid waveform")
	}

	if err := o.SetInterpolation(InterpolationLinear); err != nil {
		t.Fatalf("SetInterpolation() error = %v", err)
	}

	if err := o.SetInterpolation(Interpolation(42)); err == nil {
		t.Fatal("expected error for invalid interpolation")
	}
}

func TestSharedTable(t *testing.T) {
	table, err := NewTable(4096)
	if err != nil {
		t.Fatalf("NewTable() error = %v", err)
	}

	a, err := New(48000, WithTable(table))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	b, err := New(48000, WithTable(table))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if a.Table() != b.Table() {
		t.Fatal("oscillators do not share the supplied table")
	}

	for n := range 512 {
		ga, gb := a.Tick(440), b.Tick(440)
		if ga != gb {
			t.Fatalf("sample %d diverged: %v vs %v", n, ga, gb)
		}
	}
}

func TestPolyBLEPResidual(t *testing.T) {
	tests := []struct {
		name string
		t    float64
		dt   float64
		want float64
	}{
		{name: "start_of_rise", t: 0, dt: 0.25, want: -1},
		{name: "mid_rise", t: 0.125, dt: 0.25, want: -0.25},
		{name: "end_of_rise", t: 0.25, dt: 0.25, want: 0},
		{name: "flat", t: 0.5, dt: 0.25, want: 0},
		{name: "mid_fall", t: 0.875, dt: 0.25, want: 0.25},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := polyBLEP(tc.t, tc.dt); math.Abs(got-tc.want) > 1e-15 {
				t.Fatalf("polyBLEP(%v, %v) = %v, want %v", tc.t, tc.dt, got, tc.want)
			}
		})
	}
}
