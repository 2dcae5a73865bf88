package core

import (
	"math"
	"testing"
)

func TestClamp(t *testing.T) {
	tests := []struct {
		name     string
		value    float64
		lo       float64
		hi       float64
		expected float64
	}{
		{name: "inside", value: 0.5, lo: 0, hi: 1, expected: 0.5},
		{name: "below", value: -1, lo: 0, hi: 1, expected: 0},
		{name: "above", value: 2, lo: 0, hi: 1, expected: 1},
		{name: "swapped bounds", value: 2, lo: 1, hi: 0, expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Clamp(tt.value, tt.lo, tt.hi)
			if got != tt.expected {
				t.Fatalf("Clamp() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestIsFinite(t *testing.T) {
	if !IsFinite(0) || !IsFinite(-123.5) {
		t.Fatal("expected ordinary values to be finite")
	}
	if IsFinite(math.NaN()) {
		t.Fatal("expected NaN to be non-finite")
	}
	if IsFinite(math.Inf(1)) || IsFinite(math.Inf(-1)) {
		t.Fatal("expected infinities to be non-finite")
	}
}

func TestFlushDenormals(t *testing.T) {
	if got := FlushDenormals(1e-31); got != 0 {
		t.Fatalf("FlushDenormals(1e-31) = %v, want 0", got)
	}
	if got := FlushDenormals(1e-20); got != 1e-20 {
		t.Fatalf("FlushDenormals(1e-20) = %v, want unchanged", got)
	}
}

func TestCentsToRatio(t *testing.T) {
	tests := []struct {
		name     string
		cents    float64
		expected float64
	}{
		{name: "unison", cents: 0, expected: 1},
		{name: "octave up", cents: 1200, expected: 2},
		{name: "octave down", cents: -1200, expected: 0.5},
		{name: "semitone", cents: 100, expected: math.Pow(2, 1.0/12)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CentsToRatio(tt.cents)
			if !NearlyEqual(got, tt.expected, 1e-12) {
				t.Fatalf("CentsToRatio(%v) = %v, want %v", tt.cents, got, tt.expected)
			}
		})
	}
}

func TestNearlyEqual(t *testing.T) {
	if !NearlyEqual(1.0, 1.0+1e-13, 1e-12) {
		t.Fatal("expected values to be nearly equal")
	}
	if NearlyEqual(1.0, 1.1, 1e-3) {
		t.Fatal("expected values to differ")
	}
	if !NearlyEqual(1e9, 1e9+1, 1e-6) {
		t.Fatal("expected large values to compare relatively")
	}
}
