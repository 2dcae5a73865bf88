package effects

import (
	"math"
	"testing"
)

func TestNewRampValidation(t *testing.T) {
	if _, err := NewRamp(0, 0.01, 0); err == nil {
		t.Fatal("expected error for zero sample rate")
	}

	if _, err := NewRamp(48000, -1, 0); err == nil {
		t.Fatal("expected error for negative time constant")
	}

	if _, err := NewRamp(48000, math.NaN(), 0); err == nil {
		t.Fatal("expected error for NaN time constant")
	}
}

func TestRampApproachesTargetMonotonically(t *testing.T) {
	r, err := NewRamp(1000, 0.01, 0)
	if err != nil {
		t.Fatalf("NewRamp() error = %v", err)
	}

	r.SetTarget(1)

	prev := 0.0

	for range 300 {
		v := r.Tick()
		if v < prev || v > 1 {
			t.Fatalf("ramp value %v left [%v, 1]", v, prev)
		}

		prev = v
	}

	if prev != 1 {
		t.Fatalf("ramp settled at %v, want exactly 1 after the snap", prev)
	}
}

func TestRampZeroTimeFollowsImmediately(t *testing.T) {
	r, err := NewRamp(48000, 0, 0.25)
	if err != nil {
		t.Fatalf("NewRamp() error = %v", err)
	}

	r.SetTarget(-3)

	if got := r.Tick(); got != -3 {
		t.Fatalf("Tick() = %v, want -3", got)
	}
}

func TestRampJumpSkipsTheRamp(t *testing.T) {
	r, err := NewRamp(48000, 0.1, 0)
	if err != nil {
		t.Fatalf("NewRamp() error = %v", err)
	}

	r.Jump(0.5)

	if got := r.Value(); got != 0.5 {
		t.Fatalf("Value() after Jump = %v, want 0.5", got)
	}

	if got := r.Target(); got != 0.5 {
		t.Fatalf("Target() after Jump = %v, want 0.5", got)
	}
}

// TestRampCutKeepsTarget verifies the re-arm behavior: Cut drops the value
// but the ramp climbs back toward the untouched target.
func TestRampCutKeepsTarget(t *testing.T) {
	r, err := NewRamp(1000, 0.005, 1)
	if err != nil {
		t.Fatalf("NewRamp() error = %v", err)
	}

	r.Cut(0)

	if got := r.Value(); got != 0 {
		t.Fatalf("Value() after Cut = %v, want 0", got)
	}

	if got := r.Target(); got != 1 {
		t.Fatalf("Target() after Cut = %v, want 1", got)
	}

	for range 150 {
		r.Tick()
	}

	if got := r.Value(); got != 1 {
		t.Fatalf("Value() after recovery = %v, want 1", got)
	}
}

func TestRampIgnoresNaNTargets(t *testing.T) {
	r, err := NewRamp(48000, 0.01, 0.5)
	if err != nil {
		t.Fatalf("NewRamp() error = %v", err)
	}

	r.SetTarget(math.NaN())
	r.Jump(math.NaN())
	r.Cut(math.NaN())

	if got := r.Target(); got != 0.5 {
		t.Fatalf("Target() = %v, want 0.5", got)
	}

	if got := r.Value(); got != 0.5 {
		t.Fatalf("Value() = %v, want 0.5", got)
	}
}
