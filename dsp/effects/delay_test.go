package effects

import (
	"testing"

	"github.com/cwbudde/algo-synth/internal/testutil"
)

func TestNewDelayValidation(t *testing.T) {
	cases := []struct {
		name string
		rate float64
		opts []DelayOption
	}{
		{"zero rate", 0, nil},
		{"negative rate", -44100, nil},
		{"time too short", 48000, []DelayOption{WithDelayTime(0.0001)}},
		{"time too long", 48000, []DelayOption{WithDelayTime(3)}},
		{"feedback above unity", 48000, []DelayOption{WithDelayFeedback(1)}},
		{"negative mix", 48000, []DelayOption{WithDelayMix(-0.1)}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewDelay(tc.rate, tc.opts...); err == nil {
				t.Fatal("expected error, got nil")
			}
		})
	}
}

// TestDelayImpulseAtConfiguredTime feeds a unit impulse into a feedback-free
// delay and expects the wet output exactly one delay time later.
func TestDelayImpulseAtConfiguredTime(t *testing.T) {
	const (
		sampleRate   = 1000.0
		delaySamples = 100
	)

	d, err := NewDelay(sampleRate,
		WithDelayTime(delaySamples/sampleRate),
		WithDelayFeedback(0),
		WithDelayMix(1),
	)
	if err != nil {
		t.Fatalf("NewDelay() error = %v", err)
	}

	in := testutil.Impulse(4*delaySamples, 0)
	out := make([]float64, len(in))

	if err := d.ProcessBlockTo(out, in); err != nil {
		t.Fatalf("ProcessBlockTo() error = %v", err)
	}

	testutil.RequireFinite(t, out)
	testutil.RequireSilent(t, out[:delaySamples-1], 1e-9)
	testutil.RequireNear(t, out[delaySamples], 1, 1e-9)

	// No feedback, so nothing after the single echo.
	testutil.RequireSilent(t, out[delaySamples+2:], 1e-9)
}

// TestDelayFeedbackEcho expects a second echo attenuated by roughly the
// feedback gain. The feedback ramp re-arms from zero, so the echo lands a
// little below the target while the ramp converges.
func TestDelayFeedbackEcho(t *testing.T) {
	const (
		sampleRate   = 1000.0
		delaySamples = 100
	)

	d, err := NewDelay(sampleRate,
		WithDelayTime(delaySamples/sampleRate),
		WithDelayFeedback(0.5),
		WithDelayMix(1),
	)
	if err != nil {
		t.Fatalf("NewDelay() error = %v", err)
	}

	in := testutil.Impulse(3*delaySamples, 0)
	out := make([]float64, len(in))

	if err := d.ProcessBlockTo(out, in); err != nil {
		t.Fatalf("ProcessBlockTo() error = %v", err)
	}

	second := out[2*delaySamples]
	if second < 0.4 || second > 0.5 {
		t.Fatalf("second echo = %v, want close to 0.5 from below", second)
	}
}

func TestDelayResetClearsLine(t *testing.T) {
	d, err := NewDelay(1000, WithDelayTime(0.05), WithDelayMix(1))
	if err != nil {
		t.Fatalf("NewDelay() error = %v", err)
	}

	in := testutil.Impulse(10, 0)
	out := make([]float64, len(in))

	if err := d.ProcessBlockTo(out, in); err != nil {
		t.Fatalf("ProcessBlockTo() error = %v", err)
	}

	d.Reset()

	silence := make([]float64, 200)
	tail := make([]float64, len(silence))
	if err := d.ProcessBlockTo(tail, silence); err != nil {
		t.Fatalf("ProcessBlockTo() error = %v", err)
	}

	testutil.RequireSilent(t, tail, 1e-12)
}

func TestDelaySettersValidateAndSlew(t *testing.T) {
	d, err := NewDelay(48000)
	if err != nil {
		t.Fatalf("NewDelay() error = %v", err)
	}

	if err := d.SetTime(0.75); err != nil {
		t.Fatalf("SetTime() error = %v", err)
	}

	if got := d.Time(); got != 0.75 {
		t.Fatalf("Time() = %v, want 0.75", got)
	}

	if err := d.SetTime(5); err == nil {
		t.Fatal("SetTime(5) expected error")
	}

	if err := d.SetFeedback(1.5); err == nil {
		t.Fatal("SetFeedback(1.5) expected error")
	}

	if err := d.SetMix(2); err == nil {
		t.Fatal("SetMix(2) expected error")
	}

	// Rejected values leave the targets untouched.
	if got := d.Time(); got != 0.75 {
		t.Fatalf("Time() after rejected set = %v, want 0.75", got)
	}
}

func TestDelayBlockLengthMismatch(t *testing.T) {
	d, err := NewDelay(48000)
	if err != nil {
		t.Fatalf("NewDelay() error = %v", err)
	}

	if err := d.ProcessBlockTo(make([]float64, 8), make([]float64, 16)); err == nil {
		t.Fatal("expected length mismatch error")
	}
}
