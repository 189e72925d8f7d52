package sim

import (
	"math"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/physics"
	"gonum.org/v1/gonum/spatial/r2"
)

func newGenerated(n, workers int) (*Simulator, error) {
	sys, err := dynamo.NewSystem(physics.Generate(n, physics.DefaultGenerator()))
	if err != nil {
		return nil, err
	}
	return New(sys, physics.NewGravity(physics.G), integrators.NewEuler(),
		physics.NewEnergyMonitor(physics.G), compute.NewPool(workers)), nil
}

type recorder struct {
	samples []dynamo.Sample
	comV    []r2.Vec
	err     error
}

func (r *recorder) OnOutput(sys *dynamo.System, s dynamo.Sample) error {
	r.samples = append(r.samples, s)
	r.comV = append(r.comV, sys.CenterOfMassVelocity())
	return r.err
}

type nanField struct{}

func (nanField) ForceOn(sys *dynamo.System, i int) r2.Vec {
	return r2.Vec{Y: math.NaN()}
}
