package integrators

import (
	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

// Euler is the explicit first-order update. Position advances with the
// velocity from before the step, velocity with the force from before the
// step. It does not conserve energy.
type Euler struct{}

func NewEuler() *Euler {
	return &Euler{}
}

func (e *Euler) Advance(sys *dynamo.System, i int, force r2.Vec, dt float64) {
	p := sys.At(i)
	pos := r2.Vec{
		X: p.Pos.X + dt*p.Vel.X,
		Y: p.Pos.Y + dt*p.Vel.Y,
	}
	a := dt / p.Mass
	vel := r2.Vec{
		X: p.Vel.X + a*force.X,
		Y: p.Vel.Y + a*force.Y,
	}
	sys.Update(i, pos, vel)
}
