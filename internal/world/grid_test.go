package world

import (
	"math"
	"testing"
)

func TestDistanceIncludesFloorPenalty(t *testing.T) {
	a := Point{X: 0, Y: 0, Floor: 0}
	b := Point{X: 3, Y: 4, Floor: 2}

	got := Distance(a, b)
	want := 5.0 + 2*FloorPenalty
	if math.Abs(got-want) > 1e-9 {
		t.Fatalf("Distance = %v, want %v", got, want)
	}
	if Distance(b, a) != got {
		t.Fatalf("Distance is not symmetric")
	}
}

func TestDistanceSamePoint(t *testing.T) {
	p := Point{X: 7, Y: -2, Floor: 3}
	if d := Distance(p, p); d != 0 {
		t.Fatalf("Distance to self = %v, want 0", d)
	}
}

func TestTravelPhasesBands(t *testing.T) {
	p := ModeProfile{Near: 6, Mid: 20, Far: 45, MaxPhases: 3}

	cases := []struct {
		dist float64
		want int
	}{
		{0, 0},
		{6, 0},
		{6.1, 1},
		{20, 1},
		{21, 2},
		{45, 2},
		{46, 3},
		{500, 3},
	}
	for _, tc := range cases {
		if got := TravelPhases(tc.dist, p); got != tc.want {
			t.Errorf("TravelPhases(%v) = %d, want %d", tc.dist, got, tc.want)
		}
	}
}

func TestLerpEndpoints(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 10, Y: -6, Floor: 2}

	if got := Lerp(a, b, 0); got != a {
		t.Fatalf("Lerp(t=0) = %+v, want %+v", got, a)
	}
	if got := Lerp(a, b, 1); got != b {
		t.Fatalf("Lerp(t=1) = %+v, want %+v", got, b)
	}
	if got := Lerp(a, b, -0.5); got != a {
		t.Fatalf("Lerp clamps below 0, got %+v", got)
	}
	if got := Lerp(a, b, 2); got != b {
		t.Fatalf("Lerp clamps above 1, got %+v", got)
	}
}

func TestLerpMidpoint(t *testing.T) {
	a := Point{X: 0, Y: 0}
	b := Point{X: 10, Y: 4}

	mid := Lerp(a, b, 0.5)
	if mid.X != 5 || mid.Y != 2 {
		t.Fatalf("Lerp midpoint = %+v", mid)
	}
}
