package physics

import (
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
)

type EnergyMonitor struct {
	G float64
}

func NewEnergyMonitor(g float64) *EnergyMonitor {
	return &EnergyMonitor{G: g}
}

// Measure returns the kinetic energy ½·Σ m·|v|² and the potential energy
// summed once over every unordered pair. Coincident pairs are left out of the
// potential.
func (e *EnergyMonitor) Measure(sys *dynamo.System) dynamo.EnergyReport {
	n := sys.Len()
	ke, pe := 0.0, 0.0

	for i := 0; i < n; i++ {
		p := sys.At(i)
		ke += p.Mass * (p.Vel.X*p.Vel.X + p.Vel.Y*p.Vel.Y)
	}
	ke *= 0.5

	for i := 0; i < n-1; i++ {
		pi := sys.At(i)
		for j := i + 1; j < n; j++ {
			pj := sys.At(j)
			dx := pi.Pos.X - pj.Pos.X
			dy := pi.Pos.Y - pj.Pos.Y
			dist := math.Sqrt(dx*dx + dy*dy)
			if dist > 0 {
				pe -= e.G * pi.Mass * pj.Mass / dist
			}
		}
	}

	return dynamo.EnergyReport{Kinetic: ke, Potential: pe}
}
