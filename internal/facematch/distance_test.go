package facematch

import (
	"math"
	"testing"
)

func descriptor(vals ...float32) []float32 {
	d := make([]float32, 128)
	copy(d, vals)
	return d
}

func TestDistance_Identity(t *testing.T) {
	a := descriptor(0.1, 0.2, 0.3)
	if d := Distance(a, a); d != 0 {
		t.Errorf("Distance(a, a) = %f, want 0", d)
	}
}

func TestDistance_Symmetry(t *testing.T) {
	a := descriptor(0.1, 0.9, -0.4)
	b := descriptor(0.7, -0.2, 0.5)
	if da, db := Distance(a, b), Distance(b, a); da != db {
		t.Errorf("Distance not symmetric: %f vs %f", da, db)
	}
}

func TestDistance_KnownValue(t *testing.T) {
	a := descriptor(3)
	b := descriptor(0, 4)
	// sqrt(3^2 + 4^2) = 5
	if d := Distance(a, b); math.Abs(d-5) > 1e-9 {
		t.Errorf("Distance = %f, want 5", d)
	}
}

func TestDistance_FailsClosed(t *testing.T) {
	full := descriptor(0.5)
	short := make([]float32, 64)

	tests := []struct {
		name string
		a, b []float32
	}{
		{"length mismatch", full, short},
		{"nil live", nil, full},
		{"nil reference", full, nil},
		{"both empty", nil, nil},
	}
	for _, tt := range tests {
		if d := Distance(tt.a, tt.b); d != MaxDistance {
			t.Errorf("%s: Distance = %f, want MaxDistance", tt.name, d)
		}
	}
}

func TestMinDistance(t *testing.T) {
	live := descriptor(1)
	refs := [][]float32{
		descriptor(4), // distance 3
		descriptor(2), // distance 1
		descriptor(9), // distance 8
	}
	if d := MinDistance(live, refs); math.Abs(d-1) > 1e-9 {
		t.Errorf("MinDistance = %f, want 1", d)
	}
}

func TestMinDistance_EmptyReferences(t *testing.T) {
	if d := MinDistance(descriptor(1), nil); d != MaxDistance {
		t.Errorf("MinDistance with no references = %f, want MaxDistance", d)
	}
}

func TestDisplaySimilarity(t *testing.T) {
	tests := []struct {
		distance float64
		want     float64
	}{
		{0, 1},
		{0.3, 0.7},
		{1, 0},
		{1.8, 0},  // clamped at 0
		{-0.5, 1}, // clamped at 1
	}
	for _, tt := range tests {
		if got := DisplaySimilarity(tt.distance); math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("DisplaySimilarity(%f) = %f, want %f", tt.distance, got, tt.want)
		}
	}
}

func TestDisplaySimilarity_Monotonic(t *testing.T) {
	prev := math.Inf(1)
	for d := 0.0; d <= 2.0; d += 0.05 {
		s := DisplaySimilarity(d)
		if s > prev {
			t.Fatalf("similarity increased with distance at %f", d)
		}
		prev = s
	}
}
