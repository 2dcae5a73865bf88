package osc

import (
	"fmt"
	"math"
	"sync"
)

const (
	// DefaultTableSize is the wavetable length used when no shared table is
	// supplied to New.
	DefaultTableSize = 2048

	minTableSize = 64
	maxTableSize = 16384
)

// Table is a single-cycle sine wavetable. It is immutable after
// construction, so any number of oscillators may read it concurrently.
type Table struct {
	samples []float64
	mask    int
	sizeF   float64
}

// NewTable builds a sine wavetable with the given length. The length must be
// a power of two in [64, 16384].
func NewTable(size int) (*Table, error) {
	if size < minTableSize || size > maxTableSize {
		return nil, fmt.Errorf("osc: table size must be in [%d, %d]: %d", minTableSize, maxTableSize, size)
	}

	if size&(size-1) != 0 {
		return nil, fmt.Errorf("osc: table size must be a power of two: %d", size)
	}

	samples := make([]float64, size)
	for i := range samples {
		samples[i] = math.Sin(2 * math.Pi * float64(i) / float64(size))
	}

	return &Table{
		samples: samples,
		mask:    size - 1,
		sizeF:   float64(size),
	}, nil
}

// Size returns the table length in samples.
func (t *Table) Size() int { return len(t.samples) }

// Lookup reads the table at a normalized phase in [0, 1) using the given
// interpolation mode.
func (t *Table) Lookup(phase float64, mode Interpolation) float64 {
	if mode == InterpolationLinear {
		return t.linear(phase)
	}

	return t.cubic(phase)
}

func (t *Table) linear(phase float64) float64 {
	pos := phase * t.sizeF
	i0 := int(pos)
	frac := pos - float64(i0)
	i0 &= t.mask

	x0 := t.samples[i0]
	x1 := t.samples[(i0+1)&t.mask]

	return x0 + frac*(x1-x0)
}

// cubic is a 4-point, 3rd-order (Catmull-Rom style) table read.
func (t *Table) cubic(phase float64) float64 {
	pos := phase * t.sizeF
	i0 := int(pos)
	frac := pos - float64(i0)
	i0 &= t.mask

	xm1 := t.samples[(i0-1)&t.mask]
	x0 := t.samples[i0]
	x1 := t.samples[(i0+1)&t.mask]
	x2 := t.samples[(i0+2)&t.mask]

	c0 := x0
	c1 := 0.5 * (x1 - xm1)
	c2 := xm1 - 2.5*x0 + 2*x1 - 0.5*x2
	c3 := 0.5*(x2-xm1) + 1.5*(x0-x1)

	return ((c3*frac+c2)*frac+c1)*frac + c0
}

var (
	defaultTableOnce sync.Once
	defaultTable     *Table
)

func sharedDefaultTable() *Table {
	defaultTableOnce.Do(func() {
		t, err := NewTable(DefaultTableSize)
		if err != nil {
			panic(err)
		}

		defaultTable = t
	})

	return defaultTable
}
