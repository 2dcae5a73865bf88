package testutil

import (
	"math"
	"testing"
)

// RequireFinite fails t when buf contains a NaN or an infinity.
func RequireFinite(t *testing.T, buf []float64) {
	t.Helper()

	for i, v := range buf {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Fatalf("sample %d: non-finite value %v", i, v)
		}
	}
}

// RequireSilent fails t when any sample in buf exceeds threshold in
// magnitude.
func RequireSilent(t *testing.T, buf []float64, threshold float64) {
	t.Helper()

	if peak := PeakAbs(buf); peak > threshold {
		t.Fatalf("peak = %v, want <= %v", peak, threshold)
	}
}

// RequireNear fails t when got is not within eps of want.
func RequireNear(t *testing.T, got, want, eps float64) {
	t.Helper()

	if math.Abs(got-want) > eps {
		t.Fatalf("got %v, want %v (eps %v)", got, want, eps)
	}
}
