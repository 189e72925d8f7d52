package analysis

import (
	"errors"
	"math"
	"testing"

	. "github.com/onsi/gomega"
	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
)

func builder(n int, g float64) func() (*sim.Simulator, error) {
	return func() (*sim.Simulator, error) {
		sys, err := dynamo.NewSystem(physics.Generate(n, physics.DefaultGenerator()))
		if err != nil {
			return nil, err
		}
		return sim.New(sys, physics.NewGravity(g), integrators.NewEuler(), physics.NewEnergyMonitor(g), compute.NewPool(1)), nil
	}
}

func TestLyapunovExponent_FreeParticles(t *testing.T) {
	g := NewWithT(t)

	est, err := LyapunovExponent(builder(3, 0), 1.0, 0.01, 100, 10)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(est.Separations).To(HaveLen(10))
	g.Expect(est.Times[9]).To(BeNumerically("~", 1.0, 1e-12))
	g.Expect(est.Exponent).To(BeNumerically("~", 0, 1e-9))
	for _, d := range est.Separations {
		g.Expect(d).To(BeNumerically("~", 1.0, 1e-9))
	}
}

func TestLyapunovExponent_Gravity(t *testing.T) {
	g := NewWithT(t)

	est, err := LyapunovExponent(builder(4, physics.G), 1.0, 0.01, 200, 20)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(est.Separations).To(HaveLen(10))
	g.Expect(math.IsNaN(est.Exponent)).To(BeFalse())
	g.Expect(math.IsInf(est.Exponent, 0)).To(BeFalse())
}

func TestLyapunovExponent_Invalid(t *testing.T) {
	tests := []struct {
		name          string
		delta, dt     float64
		steps, renorm int
		want          error
	}{
		{"zero delta", 0, 0.01, 10, 1, dynamo.ErrInvalidConfig},
		{"zero dt", 1, 0, 10, 1, dynamo.ErrInvalidConfig},
		{"zero renorm", 1, 0.01, 10, 0, dynamo.ErrInvalidConfig},
		{"too short", 1, 0.01, 5, 10, ErrInsufficientData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LyapunovExponent(builder(2, physics.G), tt.delta, tt.dt, tt.steps, tt.renorm)
			if !errors.Is(err, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestEnergySpectrum(t *testing.T) {
	g := NewWithT(t)

	const (
		n        = 64
		interval = 0.1
		period   = 1.6
	)
	samples := make([]dynamo.Sample, 0, n)
	for i := 0; i < n; i++ {
		tm := float64(i) * interval
		samples = append(samples, dynamo.Sample{
			Step:     i * 10,
			Time:     tm,
			Energy:   dynamo.EnergyReport{Kinetic: 5 + math.Sin(2*math.Pi*tm/period), Potential: -10},
			Measured: true,
		})
	}

	spec, err := EnergySpectrum(samples)
	g.Expect(err).NotTo(HaveOccurred())
	g.Expect(spec.Freq).To(HaveLen(n/2 + 1))
	g.Expect(spec.Power[0]).To(BeNumerically("~", 0, 1e-9))
	g.Expect(spec.DominantPeriod()).To(BeNumerically("~", period, 1e-9))
}

func TestEnergySpectrum_Insufficient(t *testing.T) {
	samples := []dynamo.Sample{{Measured: true}, {Time: 1, Measured: true}, {Time: 2}}
	if _, err := EnergySpectrum(samples); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData, got %v", err)
	}
}

func TestDominantPeriod_Flat(t *testing.T) {
	s := &Spectrum{Freq: []float64{0, 1, 2}, Power: []float64{0, 0, 0}}
	if !math.IsInf(s.DominantPeriod(), 1) {
		t.Error("flat spectrum should have no dominant period")
	}
}
