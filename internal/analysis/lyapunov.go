package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
	"gonum.org/v1/gonum/stat"
)

var ErrInsufficientData = errors.New("analysis: not enough data")

// Estimate is the outcome of a separation run. Separations[k] is the
// position-space distance between the two trajectories at Times[k], just
// before it was rescaled back to the initial perturbation.
type Estimate struct {
	Exponent    float64
	Separations []float64
	Times       []float64
}

// LyapunovExponent estimates the largest Lyapunov exponent using the
// trajectory separation method. A positive value indicates chaos.
//
// build is called twice and must return independent simulators starting from
// the same state. The second one has particle 0 shifted by delta along x.
// Every renorm steps the separation is measured and the perturbed system is
// pulled back to distance delta along the current separation direction.
func LyapunovExponent(build func() (*sim.Simulator, error), delta, dt float64, steps, renorm int) (*Estimate, error) {
	if !(delta > 0) || !(dt > 0) || steps < 1 || renorm < 1 {
		return nil, fmt.Errorf("%w: delta=%g dt=%g steps=%d renorm=%d", dynamo.ErrInvalidConfig, delta, dt, steps, renorm)
	}
	if steps < renorm {
		return nil, fmt.Errorf("%w: %d steps is shorter than one renormalization interval (%d)", ErrInsufficientData, steps, renorm)
	}

	ref, err := build()
	if err != nil {
		return nil, err
	}
	defer ref.Close()
	pert, err := build()
	if err != nil {
		return nil, err
	}
	defer pert.Close()

	ps := pert.System()
	p0 := ps.At(0)
	ps.Update(0, r2.Add(p0.Pos, r2.Vec{X: delta}), p0.Vel)

	est := &Estimate{}
	logs := make([]float64, 0, steps/renorm)
	sumLog := 0.0

	for step := 1; step <= steps; step++ {
		ref.Step(dt)
		pert.Step(dt)
		if step%renorm != 0 {
			continue
		}

		t := float64(step) * dt
		d := separation(ref.System(), ps)
		if math.IsNaN(d) || math.IsInf(d, 0) {
			return nil, &dynamo.SimulationError{Step: step, Time: t, Wrapped: dynamo.ErrInvalidState}
		}
		est.Separations = append(est.Separations, d)
		est.Times = append(est.Times, t)

		if d == 0 {
			logs = append(logs, sumLog)
			continue
		}
		sumLog += math.Log(d / delta)
		logs = append(logs, sumLog)
		rescale(ref.System(), ps, delta/d)
	}

	if len(logs) >= 2 {
		_, est.Exponent = stat.LinearRegression(est.Times, logs, nil, true)
	} else {
		est.Exponent = sumLog / est.Times[0]
	}
	return est, nil
}

func separation(a, b *dynamo.System) float64 {
	sum := 0.0
	for i := 0; i < a.Len(); i++ {
		d := r2.Sub(b.At(i).Pos, a.At(i).Pos)
		sum += d.X*d.X + d.Y*d.Y
	}
	return math.Sqrt(sum)
}

// rescale moves every particle of b toward its counterpart in a, scaling both
// position and velocity offsets by k.
func rescale(a, b *dynamo.System, k float64) {
	for i := 0; i < a.Len(); i++ {
		pa, pb := a.At(i), b.At(i)
		pos := r2.Add(pa.Pos, r2.Scale(k, r2.Sub(pb.Pos, pa.Pos)))
		vel := r2.Add(pa.Vel, r2.Scale(k, r2.Sub(pb.Vel, pa.Vel)))
		b.Update(i, pos, vel)
	}
}
