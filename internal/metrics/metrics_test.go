package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

func twoBody(t *testing.T) *dynamo.System {
	t.Helper()
	sys, err := dynamo.NewSystem([]dynamo.Particle{
		{Mass: 1, Pos: r2.Vec{X: 0}, Vel: r2.Vec{Y: 1}},
		{Mass: 1, Pos: r2.Vec{X: 1}, Vel: r2.Vec{Y: -1}},
	})
	if err != nil {
		t.Fatalf("NewSystem failed: %v", err)
	}
	return sys
}

func TestEnergyDrift(t *testing.T) {
	m := NewEnergyDrift()
	sys := twoBody(t)

	m.Observe(sys, dynamo.Sample{Measured: true, Energy: dynamo.EnergyReport{Kinetic: 10, Potential: -20}})
	m.Observe(sys, dynamo.Sample{Measured: true, Energy: dynamo.EnergyReport{Kinetic: 12, Potential: -20}})
	m.Observe(sys, dynamo.Sample{Measured: true, Energy: dynamo.EnergyReport{Kinetic: 11, Potential: -20}})

	if math.Abs(m.Value()-0.2) > 1e-12 {
		t.Errorf("expected max drift 0.2, got %f", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero drift after reset")
	}
}

func TestEnergyDrift_IgnoresUnmeasured(t *testing.T) {
	m := NewEnergyDrift()
	sys := twoBody(t)

	m.Observe(sys, dynamo.Sample{})
	m.Observe(sys, dynamo.Sample{Measured: true, Energy: dynamo.EnergyReport{Kinetic: 5}})
	m.Observe(sys, dynamo.Sample{Energy: dynamo.EnergyReport{Kinetic: 500}})

	if m.Value() != 0 {
		t.Errorf("unmeasured samples affected drift: %f", m.Value())
	}
}

func TestMomentum(t *testing.T) {
	m := NewMomentum()
	sys := twoBody(t)

	m.Observe(sys, dynamo.Sample{})
	if m.Value() != 0 {
		t.Errorf("expected zero COM speed, got %v", m.Value())
	}

	sys.Update(0, r2.Vec{}, r2.Vec{X: 4, Y: 1})
	m.Observe(sys, dynamo.Sample{})
	if math.Abs(m.Value()-2) > 1e-12 {
		t.Errorf("expected COM speed 2, got %v", m.Value())
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestStability(t *testing.T) {
	tests := []struct {
		name string
		pos  r2.Vec
		vel  r2.Vec
		want float64
	}{
		{"bounded", r2.Vec{X: 2}, r2.Vec{}, 1.0},
		{"escaped", r2.Vec{X: 200}, r2.Vec{}, 0.5},
		{"NaN", r2.Vec{X: math.NaN()}, r2.Vec{}, 0.5},
		{"Inf velocity", r2.Vec{}, r2.Vec{Y: math.Inf(1)}, 0.5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewStability(100)
			sys := twoBody(t)

			s.Observe(sys, dynamo.Sample{})
			sys.Update(1, tt.pos, tt.vel)
			s.Observe(sys, dynamo.Sample{})

			if s.Value() != tt.want {
				t.Errorf("Value() = %v, want %v", s.Value(), tt.want)
			}
		})
	}
}

func TestStability_NoSamples(t *testing.T) {
	if NewStability(1).Value() != 1.0 {
		t.Error("expected 1.0 with no samples")
	}
}
