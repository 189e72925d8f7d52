package physics

import (
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// G is the gravitational constant in m³/(kg·s²).
const G = 6.673e-11

// Gravity is the direct all-pairs Newtonian force field.
type Gravity struct {
	G float64
}

func NewGravity(g float64) *Gravity {
	return &Gravity{G: g}
}

// PairForce returns the force on a due to b. Coincident particles exert no
// force on each other.
//
// PairForce(a, b) is the exact negation of PairForce(b, a).
func (g *Gravity) PairForce(a, b dynamo.Particle) r2.Vec {
	d := r2.Sub(b.Pos, a.Pos)
	r := math.Sqrt(d.X*d.X + d.Y*d.Y)
	if r == 0 {
		return r2.Vec{}
	}
	return r2.Scale(g.G*(a.Mass*b.Mass)/(r*r*r), d)
}

// ForceOn sums the pair forces on particle i from every other particle.
func (g *Gravity) ForceOn(sys *dynamo.System, i int) r2.Vec {
	pi := sys.At(i)
	var f r2.Vec
	for k := 0; k < sys.Len(); k++ {
		if k == i {
			continue
		}
		f = r2.Add(f, g.PairForce(pi, sys.At(k)))
	}
	return f
}

// Compute fills forces with the net force on every particle. len(forces)
// must equal sys.Len().
func (g *Gravity) Compute(sys *dynamo.System, forces []r2.Vec) {
	for i := range forces {
		forces[i] = g.ForceOn(sys, i)
	}
}
