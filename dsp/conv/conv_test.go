package conv

import (
	"errors"
	"math"
	"testing"
)

// directConvolve is the O(N*M) reference the streaming path is checked
// against.
func directConvolve(signal, kernel []float64) []float64 {
	out := make([]float64, len(signal)+len(kernel)-1)
	for i, s := range signal {
		for j, k := range kernel {
			out[i+j] += s * k
		}
	}

	return out
}

func TestNewStreamingValidation(t *testing.T) {
	if _, err := NewStreaming(nil, 64); !errors.Is(err, ErrEmptyKernel) {
		t.Fatalf("NewStreaming(nil) error = %v, want ErrEmptyKernel", err)
	}

	if _, err := NewStreaming([]float64{1}, 0); err == nil {
		t.Fatal("expected error for zero block size")
	}

	if _, err := NewStreaming([]float64{1}, -4); err == nil {
		t.Fatal("expected error for negative block size")
	}
}

func TestProcessBlockToMatchesDirect(t *testing.T) {
	const (
		blockSize = 64
		numBlocks = 8
	)

	kernel := make([]float64, 100)
	for i := range kernel {
		kernel[i] = math.Exp(-float64(i)/25) * math.Cos(float64(i)/3)
	}

	signal := make([]float64, blockSize*numBlocks)
	for i := range signal {
		signal[i] = math.Sin(2*math.Pi*float64(i)/37) + 0.25*math.Sin(2*math.Pi*float64(i)/11)
	}

	want := directConvolve(signal, kernel)

	s, err := NewStreaming(kernel, blockSize)
	if err != nil {
		t.Fatalf("NewStreaming() error = %v", err)
	}

	out := make([]float64, blockSize)
	for b := range numBlocks {
		if err := s.ProcessBlockTo(out, signal[b*blockSize:(b+1)*blockSize]); err != nil {
			t.Fatalf("ProcessBlockTo() block %d error = %v", b, err)
		}

		for i, got := range out {
			idx := b*blockSize + i
			if math.Abs(got-want[idx]) > 1e-9 {
				t.Fatalf("sample %d = %v, want %v", idx, got, want[idx])
			}
		}
	}
}

func TestProcessBlockToSingleSampleKernel(t *testing.T) {
	s, err := NewStreaming([]float64{0.5}, 16)
	if err != nil {
		t.Fatalf("NewStreaming() error = %v", err)
	}

	in := make([]float64, 16)
	for i := range in {
		in[i] = float64(i)
	}

	out := make([]float64, 16)
	if err := s.ProcessBlockTo(out, in); err != nil {
		t.Fatalf("ProcessBlockTo() error = %v", err)
	}

	for i := range out {
		if want := 0.5 * in[i]; math.Abs(out[i]-want) > 1e-12 {
			t.Fatalf("sample %d = %v, want %v", i, out[i], want)
		}
	}
}

func TestProcessBlockToLengthMismatch(t *testing.T) {
	s, err := NewStreaming([]float64{1, 0.5}, 32)
	if err != nil {
		t.Fatalf("NewStreaming() error = %v", err)
	}

	out := make([]float64, 32)

	if err := s.ProcessBlockTo(out, make([]float64, 16)); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("short input error = %v, want ErrLengthMismatch", err)
	}

	if err := s.ProcessBlockTo(make([]float64, 16), make([]float64, 32)); !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("short output error = %v, want ErrLengthMismatch", err)
	}
}

func TestResetClearsTail(t *testing.T) {
	kernel := []float64{1, 0.9, 0.8, 0.7, 0.6}

	s, err := NewStreaming(kernel, 8)
	if err != nil {
		t.Fatalf("NewStreaming() error = %v", err)
	}

	impulse := make([]float64, 8)
	impulse[7] = 1 // tail spills into the next block

	out := make([]float64, 8)
	if err := s.ProcessBlockTo(out, impulse); err != nil {
		t.Fatalf("ProcessBlockTo() error = %v", err)
	}

	s.Reset()

	silence := make([]float64, 8)
	if err := s.ProcessBlockTo(out, silence); err != nil {
		t.Fatalf("ProcessBlockTo() error = %v", err)
	}

	for i, got := range out {
		if math.Abs(got) > 1e-12 {
			t.Fatalf("sample %d after Reset = %v, want 0", i, got)
		}
	}
}

func TestGetters(t *testing.T) {
	kernel := make([]float64, 300)
	kernel[0] = 1

	s, err := NewStreaming(kernel, 128)
	if err != nil {
		t.Fatalf("NewStreaming() error = %v", err)
	}

	if got := s.BlockSize(); got != 128 {
		t.Fatalf("BlockSize() = %d, want 128", got)
	}

	if got := s.KernelLen(); got != 300 {
		t.Fatalf("KernelLen() = %d, want 300", got)
	}

	// 128 + 300 - 1 = 427 rounds up to 512.
	if got := s.FFTSize(); got != 512 {
		t.Fatalf("FFTSize() = %d, want 512", got)
	}
}
