package effects

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-synth/internal/testutil"
)

func TestSoftClipShape(t *testing.T) {
	cases := []struct {
		in, want float64
	}{
		{0, 0},
		{0.1, 1.5 * (0.1 - 0.001/3)},
		{1, 1},
		{-1, -1},
		{2, 1},
		{-5, -1},
	}

	for _, tc := range cases {
		if got := SoftClip(tc.in); math.Abs(got-tc.want) > 1e-12 {
			t.Fatalf("SoftClip(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}

func TestSoftClipMonotonicAndBounded(t *testing.T) {
	prev := SoftClip(-3)

	for x := -3.0; x <= 3.0; x += 0.01 {
		y := SoftClip(x)

		if y < prev-1e-12 {
			t.Fatalf("SoftClip not monotonic at %v: %v < %v", x, y, prev)
		}

		if y < -1 || y > 1 {
			t.Fatalf("SoftClip(%v) = %v out of [-1, 1]", x, y)
		}

		prev = y
	}
}

func TestSoftClipInPlaceMatchesSample(t *testing.T) {
	buf := testutil.Sine(440, 48000, 1.2, 64)

	want := make([]float64, len(buf))
	for i, x := range buf {
		want[i] = SoftClip(x)
	}

	SoftClipInPlace(buf)

	for i := range buf {
		if buf[i] != want[i] {
			t.Fatalf("sample %d: got %v, want %v", i, buf[i], want[i])
		}
	}
}
