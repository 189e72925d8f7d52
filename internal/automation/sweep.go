package automation

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/sim"
	"gonum.org/v1/gonum/floats"
)

// ParameterSweep runs Base once per evenly spaced value of Param in
// [Min, Max]. Input holds the initial conditions when Base ingests them.
type ParameterSweep struct {
	Base   *config.Config
	Input  []byte
	Param  string
	Min    float64
	Max    float64
	Points int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	Value       float64
	EnergyDrift float64
	MinEnergy   float64
	MaxEnergy   float64
	StepsTaken  int
	Elapsed     time.Duration
	Metrics     map[string]float64
	Errors      []error
}

func (s *ParameterSweep) Values() ([]float64, error) {
	switch {
	case s.Points < 1:
		return nil, fmt.Errorf("%w: sweep needs at least one point, got %d", dynamo.ErrInvalidConfig, s.Points)
	case s.Points == 1:
		return []float64{s.Min}, nil
	}
	return floats.Span(make([]float64, s.Points), s.Min, s.Max), nil
}

// RunSweep executes a parameter sweep. Every point is validated before any
// of them runs.
func (r *Runner) RunSweep(ctx context.Context, sw *ParameterSweep) ([]SweepResult, error) {
	values, err := sw.Values()
	if err != nil {
		return nil, err
	}

	ens := sim.NewEnsemble(r.Parallel)
	for _, v := range values {
		c := *sw.Base
		if err := c.SetParam(sw.Param, v); err != nil {
			return nil, err
		}
		if err := c.Validate(); err != nil {
			return nil, fmt.Errorf("%s=%g: %w", sw.Param, v, err)
		}
		ens.Add(sim.Member{
			Name: fmt.Sprintf("%s=%g", sw.Param, v),
			Build: func() (*sim.Simulator, error) {
				return experiment.Build(&c, bytes.NewReader(sw.Input))
			},
			Config: c.SimConfig(),
		})
	}

	r.logger().Info("sweeping", "param", sw.Param, "points", len(values))
	results, err := ens.Run(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]SweepResult, len(results))
	for i, res := range results {
		minE, maxE := energyRange(res.Samples)
		out[i] = SweepResult{
			Value:       values[i],
			EnergyDrift: res.EnergyDrift,
			MinEnergy:   minE,
			MaxEnergy:   maxE,
			StepsTaken:  res.StepsTaken,
			Elapsed:     res.Elapsed,
			Metrics:     res.Metrics,
			Errors:      res.Errors,
		}
	}
	return out, nil
}

// energyRange returns the extremes of the measured total energy, or zeros
// when nothing was measured.
func energyRange(samples []dynamo.Sample) (minE, maxE float64) {
	totals := make([]float64, 0, len(samples))
	for _, s := range samples {
		if s.Measured {
			totals = append(totals, s.Energy.Total())
		}
	}
	if len(totals) == 0 {
		return 0, 0
	}
	return floats.Min(totals), floats.Max(totals)
}
