// Package conv provides streaming FFT-based convolution for fixed-size
// block processing, used by the convolution reverb send.
package conv

import (
	"errors"
	"fmt"

	algofft "github.com/MeKo-Christian/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

var (
	// ErrEmptyKernel is returned when a convolver is built from an empty kernel.
	ErrEmptyKernel = errors.New("conv: empty kernel")
	// ErrLengthMismatch is returned when a block does not match the configured size.
	ErrLengthMismatch = errors.New("conv: buffer length mismatch")
)

// Streaming is an overlap-add convolver that processes fixed-size blocks
// with continuity between calls. The kernel FFT is computed once at
// construction; ProcessBlockTo performs no allocations, so it is safe on the
// render thread.
type Streaming struct {
	kernelFFT []complex128

	kernelLen int
	blockSize int
	fftSize   int // blockSize + kernelLen - 1, rounded up to a power of 2

	plan *algofft.Plan[complex128]

	inputPadded  []complex128
	outputPadded []complex128
	convResult   []float64

	// Overlap tail carried into the next block.
	tail []float64
}

// NewStreaming builds a streaming convolver for the given kernel and fixed
// block size.
func NewStreaming(kernel []float64, blockSize int) (*Streaming, error) {
	if len(kernel) == 0 {
		return nil, ErrEmptyKernel
	}

	if blockSize <= 0 {
		return nil, fmt.Errorf("conv: block size must be positive: %d", blockSize)
	}

	kernelLen := len(kernel)
	fftSize := nextPowerOf2(blockSize + kernelLen - 1)

	plan, err := algofft.NewPlanT[complex128](fftSize)
	if err != nil {
		return nil, fmt.Errorf("conv: failed to create FFT plan: %w", err)
	}

	s := &Streaming{
		kernelFFT:    make([]complex128, fftSize),
		kernelLen:    kernelLen,
		blockSize:    blockSize,
		fftSize:      fftSize,
		plan:         plan,
		inputPadded:  make([]complex128, fftSize),
		outputPadded: make([]complex128, fftSize),
		convResult:   make([]float64, blockSize+kernelLen-1),
		tail:         make([]float64, kernelLen-1),
	}

	kernelPadded := make([]complex128, fftSize)
	for i, v := range kernel {
		kernelPadded[i] = complex(v, 0)
	}

	if err := plan.Forward(s.kernelFFT, kernelPadded); err != nil {
		return nil, fmt.Errorf("conv: failed to compute kernel FFT: %w", err)
	}

	return s, nil
}

// ProcessBlockTo convolves one input block into the pre-allocated output.
// Both slices must be of the configured block size. Overlap state is carried
// between calls.
func (s *Streaming) ProcessBlockTo(output, input []float64) error {
	if len(input) != s.blockSize {
		return fmt.Errorf("%w: expected %d input samples, got %d", ErrLengthMismatch, s.blockSize, len(input))
	}

	if len(output) != s.blockSize {
		return fmt.Errorf("%w: expected %d output samples, got %d", ErrLengthMismatch, s.blockSize, len(output))
	}

	for i := range s.inputPadded {
		s.inputPadded[i] = 0
	}

	for i, v := range input {
		s.inputPadded[i] = complex(v, 0)
	}

	if err := s.plan.Forward(s.inputPadded, s.inputPadded); err != nil {
		return fmt.Errorf("conv: forward FFT failed: %w", err)
	}

	for i := range s.outputPadded {
		s.outputPadded[i] = s.inputPadded[i] * s.kernelFFT[i]
	}

	if err := s.plan.Inverse(s.outputPadded, s.outputPadded); err != nil {
		return fmt.Errorf("conv: inverse FFT failed: %w", err)
	}

	resultLen := s.blockSize + s.kernelLen - 1
	for i := range resultLen {
		s.convResult[i] = real(s.outputPadded[i])
	}

	if len(s.tail) > 0 {
		vecmath.AddBlockInPlace(s.convResult[:len(s.tail)], s.tail)
	}

	copy(output, s.convResult[:s.blockSize])

	// The samples past the block boundary become the next block's tail.
	copy(s.tail, s.convResult[s.blockSize:resultLen])

	return nil
}

// Reset clears the overlap tail.
func (s *Streaming) Reset() {
	for i := range s.tail {
		s.tail[i] = 0
	}
}

// BlockSize returns the configured block size.
func (s *Streaming) BlockSize() int { return s.blockSize }

// KernelLen returns the kernel length.
func (s *Streaming) KernelLen() int { return s.kernelLen }

// FFTSize returns the FFT size.
func (s *Streaming) FFTSize() int { return s.fftSize }

// nextPowerOf2 returns the next power of 2 >= n.
func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p *= 2
	}

	return p
}
