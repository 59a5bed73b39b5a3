package audio

import (
	"math"
	"testing"
)

func approx(a, b, eps float64) bool {
	return math.Abs(a-b) <= eps
}

func TestClockWrap(t *testing.T) {
	for v := -2.0; v <= 3.0; v += 0.01 {
		c := Clock{Counter: v}
		c.Wrap()
		if c.Counter < 0 || c.Counter >= 1 {
			t.Fatalf("wrap(%v) = %v, not in [0, 1)", v, c.Counter)
		}
		want := v - math.Floor(v)
		if want >= 1 {
			want = 0
		}
		if !approx(want, c.Counter, 1e-9) && !approx(math.Abs(want-c.Counter), 1, 1e-9) {
			t.Errorf("wrap(%v): want %v, got %v", v, want, c.Counter)
		}
	}
}

func TestClockWrapEdges(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{1, 0},
		{1.5, 0.5},
		{-0.25, 0.75},
		{-1, 0},
		{2.25, 0.25},
		{-1.75, 0.25},
		{-1e-18, 0},
	}
	for _, test := range tests {
		c := Clock{Counter: test.in}
		c.Wrap()
		if want, got := test.want, c.Counter; !approx(want, got, 1e-12) {
			t.Errorf("wrap(%v): want %v, got %v", test.in, want, got)
		}
	}
}

func TestClockAdvance(t *testing.T) {
	var c Clock
	c.SetFreq(441, 44100)
	if want, got := 0.01, c.PhaseInc; !approx(want, got, 1e-15) {
		t.Fatalf("phase increment: want %v, got %v", want, got)
	}
	for i := 0; i < 250; i++ {
		c.AdvanceWrap(1)
	}
	if want, got := 0.5, c.Counter; !approx(want, got, 1e-9) {
		t.Errorf("counter after 2.5 periods: want %v, got %v", want, got)
	}

	c.Reset()
	if c.Counter != 0 || c.PhaseOffset != 0 {
		t.Errorf("reset left counter %v, offset %v", c.Counter, c.PhaseOffset)
	}
	if want, got := 441.0, c.Freq; want != got {
		t.Errorf("reset changed the frequency: want %v, got %v", want, got)
	}
}

func TestClockPhaseOffset(t *testing.T) {
	tests := []struct {
		inc, offset, during float64
	}{
		{0.1, 0.5, 0.7},
		{0.1, 0.9, 0.1},
		{-0.1, 0.5, 0.7},
		{-0.1, 0.3, 0.9},
	}
	for _, test := range tests {
		c := Clock{Counter: 0.2, PhaseInc: test.inc}
		c.AddPhaseOffset(test.offset, true)
		if want, got := test.during, c.Counter; !approx(want, got, 1e-12) {
			t.Errorf("inc %v offset %v: want %v, got %v", test.inc, test.offset, want, got)
		}
		c.RemovePhaseOffset()
		if want, got := 0.2, c.Counter; !approx(want, got, 1e-12) {
			t.Errorf("inc %v: offset not removed: want %v, got %v", test.inc, want, got)
		}
		if c.PhaseOffset != 0 {
			t.Errorf("phase offset still set: %v", c.PhaseOffset)
		}
	}
}
