package effects

import (
	"testing"

	"github.com/cwbudde/algo-synth/internal/testutil"
)

// TestDCBlockRejectsConstantInput feeds a DC offset and expects the output
// to decay toward zero.
func TestDCBlockRejectsConstantInput(t *testing.T) {
	b := NewDCBlock()

	buf := make([]float64, 4000)
	for i := range buf {
		buf[i] = 1
	}

	b.ProcessInPlace(buf)
	testutil.RequireFinite(t, buf)

	// The first sample passes the step in full.
	if buf[0] != 1 {
		t.Fatalf("first sample = %v, want 1", buf[0])
	}

	testutil.RequireSilent(t, buf[len(buf)-100:], 0.01)
}

// TestDCBlockPassesAudioBand expects a 440 Hz sine to come through at
// nearly full amplitude once the filter settles.
func TestDCBlockPassesAudioBand(t *testing.T) {
	b := NewDCBlock()

	buf := testutil.Sine(440, 44100, 1, 8192)
	b.ProcessInPlace(buf)

	tail := buf[len(buf)-2048:]
	if got := testutil.PeakAbs(tail); got < 0.97 || got > 1.03 {
		t.Fatalf("steady-state peak = %v, want close to 1", got)
	}
}

func TestDCBlockResetClearsState(t *testing.T) {
	b := NewDCBlock()

	for range 100 {
		b.ProcessSample(1)
	}

	b.Reset()

	if got := b.ProcessSample(0); got != 0 {
		t.Fatalf("first sample after Reset = %v, want 0", got)
	}
}
