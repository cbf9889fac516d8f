package clips

import (
	"math"
	"testing"
)

func TestRemapIdentityWhenEmpty(t *testing.T) {
	r := NewRemap(nil, 10)

	if !r.Empty() {
		t.Error("remap with no impacts should be empty")
	}
	if got := r.SourceTime(0); got != 0 {
		t.Errorf("SourceTime(0) = %v, want 0", got)
	}
	if got := r.SourceTime(5.0); got != 5.0 {
		t.Errorf("SourceTime(5.0) = %v, want 5.0", got)
	}
}

func TestRemapFreezeWindow(t *testing.T) {
	r := NewRemap([]float64{2.0}, 10)

	// At the impact the mapping passes through the impact time.
	if got := r.SourceTime(2.0); got != 2.0 {
		t.Errorf("SourceTime at impact = %v, want 2.0", got)
	}

	// Inside the window the source crawls at the freeze rate, covering
	// only FreezeWindow*FreezeRate seconds over the whole window.
	maxAdvance := FreezeWindow * FreezeRate
	for _, tt := range []float64{2.05, 2.1, 2.2, 2.249} {
		got := r.SourceTime(tt)
		if got < 2.0 || got > 2.0+maxAdvance {
			t.Errorf("SourceTime(%v) = %v, want within [2.0, %v]", tt, got, 2.0+maxAdvance)
		}
	}

	// Just past the window the mapping is identity again.
	if got := r.SourceTime(2.25); got != 2.25 {
		t.Errorf("SourceTime just after window = %v, want 2.25", got)
	}
	if got := r.SourceTime(1.5); got != 1.5 {
		t.Errorf("SourceTime before impact = %v, want 1.5", got)
	}
}

func TestRemapMonotonic(t *testing.T) {
	r := NewRemap([]float64{1.0, 1.1, 4.0, 7.5}, 10)

	prev := math.Inf(-1)
	for tt := 0.0; tt <= 10.0; tt += 0.005 {
		got := r.SourceTime(tt)
		if got < prev {
			t.Fatalf("SourceTime not monotonic: f(%v) = %v after %v", tt, got, prev)
		}
		prev = got
	}
}

func TestRemapClampsToLength(t *testing.T) {
	r := NewRemap([]float64{9.9}, 10)

	limit := 10 - 0.05
	for _, tt := range []float64{9.9, 9.99, 10.0, 12.0} {
		if got := r.SourceTime(tt); got > limit {
			t.Errorf("SourceTime(%v) = %v, exceeds %v", tt, got, limit)
		}
	}
	if got := r.SourceTime(-1); got != 0 {
		t.Errorf("SourceTime(-1) = %v, want 0", got)
	}
}

func TestRemapOwnsImpacts(t *testing.T) {
	impacts := []float64{3.0}
	r := NewRemap(impacts, 10)
	impacts[0] = 8.0

	if got := r.SourceTime(3.0); got != 3.0 {
		t.Errorf("mutating the input slice changed the remap: SourceTime(3.0) = %v", got)
	}
	if got := r.SourceTime(8.1); got != 8.1 {
		t.Errorf("SourceTime(8.1) = %v, want identity", got)
	}
}
