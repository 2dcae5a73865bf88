package effects

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-synth/internal/testutil"
)

func TestNewReverbValidation(t *testing.T) {
	if _, err := NewReverb(0, 64); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	if _, err := NewReverb(48000, 0); err == nil {
		t.Fatal("expected error for zero block size")
	}

	if _, err := NewReverb(48000, 64, WithReverbSize(1.5)); err == nil {
		t.Fatal("expected error for size above 1")
	}

	if _, err := NewReverb(48000, 64, WithReverbDamp(-0.1)); err == nil {
		t.Fatal("expected error for negative damp")
	}
}

// TestReverbImpulseEnergy convolves a unit impulse and expects the full wet
// tail to carry unit energy, since the impulse response is normalized and
// the send level is pinned to 1.
func TestReverbImpulseEnergy(t *testing.T) {
	const (
		sampleRate = 8000.0
		blockSize  = 64
	)

	r, err := NewReverb(sampleRate, blockSize, WithReverbSize(0), WithReverbMix(1))
	if err != nil {
		t.Fatalf("NewReverb() error = %v", err)
	}

	// Size 0 maps to a 0.1 s tail.
	wantTail := int(0.1 * sampleRate)
	if got := r.TailLen(); got != wantTail {
		t.Fatalf("TailLen() = %d, want %d", got, wantTail)
	}

	in := make([]float64, blockSize)
	out := make([]float64, blockSize)

	var energy float64

	blocks := (wantTail + blockSize - 1) / blockSize

	for block := 0; block <= blocks; block++ {
		for i := range in {
			in[i] = 0
		}

		if block == 0 {
			in[0] = 1
		}

		if err := r.ProcessBlockTo(out, in); err != nil {
			t.Fatalf("ProcessBlockTo() error = %v", err)
		}

		testutil.RequireFinite(t, out)

		for _, x := range out {
			energy += x * x
		}
	}

	if math.Abs(energy-1) > 1e-6 {
		t.Fatalf("tail energy = %v, want 1", energy)
	}
}

func TestReverbTailScalesWithSize(t *testing.T) {
	const sampleRate = 8000.0

	small, err := NewReverb(sampleRate, 64, WithReverbSize(0))
	if err != nil {
		t.Fatalf("NewReverb() error = %v", err)
	}

	large, err := NewReverb(sampleRate, 64, WithReverbSize(1))
	if err != nil {
		t.Fatalf("NewReverb() error = %v", err)
	}

	if got, want := large.TailLen(), int(1.5*sampleRate); got != want {
		t.Fatalf("TailLen(size=1) = %d, want %d", got, want)
	}

	if small.TailLen() >= large.TailLen() {
		t.Fatalf("tail lengths %d >= %d, want size to grow the tail",
			small.TailLen(), large.TailLen())
	}
}

func TestReverbRebuildCarriesMix(t *testing.T) {
	r, err := NewReverb(8000, 64, WithReverbSize(0.5), WithReverbDamp(0.5))
	if err != nil {
		t.Fatalf("NewReverb() error = %v", err)
	}

	if err := r.SetMix(0.7); err != nil {
		t.Fatalf("SetMix() error = %v", err)
	}

	next, err := r.Rebuild(0.9, 0.2)
	if err != nil {
		t.Fatalf("Rebuild() error = %v", err)
	}

	if got := next.Mix(); got != 0.7 {
		t.Fatalf("rebuilt Mix() = %v, want 0.7", got)
	}

	if got := next.Size(); got != 0.9 {
		t.Fatalf("rebuilt Size() = %v, want 0.9", got)
	}

	if got := next.Damp(); got != 0.2 {
		t.Fatalf("rebuilt Damp() = %v, want 0.2", got)
	}
}

func TestReverbResetClearsTail(t *testing.T) {
	const blockSize = 64

	r, err := NewReverb(8000, blockSize, WithReverbSize(0), WithReverbMix(1))
	if err != nil {
		t.Fatalf("NewReverb() error = %v", err)
	}

	in := testutil.Impulse(blockSize, 0)
	out := make([]float64, blockSize)

	if err := r.ProcessBlockTo(out, in); err != nil {
		t.Fatalf("ProcessBlockTo() error = %v", err)
	}

	r.Reset()

	silence := make([]float64, blockSize)
	if err := r.ProcessBlockTo(out, silence); err != nil {
		t.Fatalf("ProcessBlockTo() error = %v", err)
	}

	testutil.RequireSilent(t, out, 1e-12)
}

func TestReverbBlockLengthMismatch(t *testing.T) {
	r, err := NewReverb(8000, 64)
	if err != nil {
		t.Fatalf("NewReverb() error = %v", err)
	}

	if err := r.ProcessBlockTo(make([]float64, 32), make([]float64, 32)); err == nil {
		t.Fatal("expected error for off-size block")
	}
}
