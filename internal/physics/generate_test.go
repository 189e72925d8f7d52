package physics

import (
	"testing"

	"gonum.org/v1/gonum/spatial/r2"
)

func TestGenerate(t *testing.T) {
	ps := Generate(5, DefaultGenerator())

	if len(ps) != 5 {
		t.Fatalf("expected 5 particles, got %d", len(ps))
	}

	for i, p := range ps {
		if p.Mass != DefaultMass {
			t.Errorf("particle %d: mass %v, want %v", i, p.Mass, DefaultMass)
		}
		if p.Pos != (r2.Vec{X: float64(i) * DefaultGap}) {
			t.Errorf("particle %d: position %+v", i, p.Pos)
		}
		wantVy := DefaultSpeed
		if i%2 == 1 {
			wantVy = -DefaultSpeed
		}
		if p.Vel != (r2.Vec{Y: wantVy}) {
			t.Errorf("particle %d: velocity %+v, want vy=%v", i, p.Vel, wantVy)
		}
	}
}

func TestGenerate_Deterministic(t *testing.T) {
	a := Generate(64, DefaultGenerator())
	b := Generate(64, DefaultGenerator())
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("particle %d differs between calls", i)
		}
	}
}
