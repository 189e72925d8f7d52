package automation

import (
	"bytes"
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/sim"
	"gonum.org/v1/gonum/spatial/r2"
)

// MonteCarlo runs Base repeatedly with every initial position shifted by a
// uniform random offset of at most Perturbation per axis. A zero Seed seeds
// from the clock.
type MonteCarlo struct {
	Base         *config.Config
	Input        []byte
	Perturbation float64
	Trials       int
	Seed         int64
}

// TrialResult holds the outcome of one perturbed run
type TrialResult struct {
	Trial       int
	Stable      bool
	Stability   float64
	EnergyDrift float64
	StepsTaken  int
}

// RunMonteCarlo executes the trials. A trial is stable when the run reported
// no errors and every output step passed the stability check.
func (r *Runner) RunMonteCarlo(ctx context.Context, mc *MonteCarlo) ([]TrialResult, error) {
	if mc.Trials < 1 {
		return nil, fmt.Errorf("%w: need at least one trial, got %d", dynamo.ErrInvalidConfig, mc.Trials)
	}
	if !(mc.Perturbation >= 0) {
		return nil, fmt.Errorf("%w: perturbation must be non-negative, got %g", dynamo.ErrInvalidConfig, mc.Perturbation)
	}
	base := *mc.Base
	if err := base.Validate(); err != nil {
		return nil, err
	}

	seed := mc.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	ens := sim.NewEnsemble(r.Parallel)
	for trial := 0; trial < mc.Trials; trial++ {
		offsets := make([]r2.Vec, base.Particles)
		for i := range offsets {
			offsets[i] = r2.Vec{
				X: (rng.Float64() - 0.5) * 2 * mc.Perturbation,
				Y: (rng.Float64() - 0.5) * 2 * mc.Perturbation,
			}
		}

		c := base
		ens.Add(sim.Member{
			Name: fmt.Sprintf("trial %d", trial),
			Build: func() (*sim.Simulator, error) {
				s, err := experiment.Build(&c, bytes.NewReader(mc.Input))
				if err != nil {
					return nil, err
				}
				perturb(s.System(), offsets)
				return s, nil
			},
			Config: c.SimConfig(),
		})
	}

	r.logger().Info("monte carlo", "trials", mc.Trials, "perturbation", mc.Perturbation, "seed", seed)
	results, err := ens.Run(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]TrialResult, len(results))
	for i, res := range results {
		stability, ok := res.Metrics["stability"]
		if !ok {
			stability = 1
		}
		out[i] = TrialResult{
			Trial:       i,
			Stable:      len(res.Errors) == 0 && stability == 1,
			Stability:   stability,
			EnergyDrift: res.EnergyDrift,
			StepsTaken:  res.StepsTaken,
		}
	}
	return out, nil
}

func perturb(sys *dynamo.System, offsets []r2.Vec) {
	for i := 0; i < sys.Len() && i < len(offsets); i++ {
		p := sys.At(i)
		sys.Update(i, r2.Add(p.Pos, offsets[i]), p.Vel)
	}
}

// MonteCarloStats counts stable and unstable trials
func MonteCarloStats(results []TrialResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
