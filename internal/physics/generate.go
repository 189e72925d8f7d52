package physics

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	DefaultMass  = 5.0e24
	DefaultGap   = 1.0e5
	DefaultSpeed = 3.0e4
)

// GeneratorParams configures Generate.
type GeneratorParams struct {
	Mass  float64 `yaml:"mass"`
	Gap   float64 `yaml:"gap"`
	Speed float64 `yaml:"speed"`
}

func DefaultGenerator() GeneratorParams {
	return GeneratorParams{Mass: DefaultMass, Gap: DefaultGap, Speed: DefaultSpeed}
}

// Generate places n identical particles at equal intervals on the
// non-negative x-axis. Even-indexed particles move in +y, odd-indexed ones in
// -y, all at the same speed.
func Generate(n int, p GeneratorParams) []dynamo.Particle {
	ps := make([]dynamo.Particle, n)
	for i := range ps {
		vy := p.Speed
		if i%2 != 0 {
			vy = -p.Speed
		}
		ps[i] = dynamo.Particle{
			Mass: p.Mass,
			Pos:  r2.Vec{X: float64(i) * p.Gap},
			Vel:  r2.Vec{Y: vy},
		}
	}
	return ps
}
