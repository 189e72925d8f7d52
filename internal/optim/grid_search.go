// Package optim searches configuration space for the run that minimizes an
// objective.
package optim

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/experiment"
	"github.com/san-kum/gravsim/internal/sim"
)

var ErrNoFeasiblePoint = errors.New("optim: no grid point ran successfully")

// Objective scores a finished run; lower is better.
type Objective func(*sim.Result) float64

// MetricObjective scores runs by the named quantity: "elapsed" (seconds),
// "energy_drift", or any metric the run recorded.
func MetricObjective(name string) Objective {
	switch name {
	case "elapsed":
		return func(r *sim.Result) float64 { return r.Elapsed.Seconds() }
	case "energy_drift":
		return func(r *sim.Result) float64 { return r.EnergyDrift }
	}
	return func(r *sim.Result) float64 {
		v, ok := r.Metrics[name]
		if !ok {
			return math.NaN()
		}
		return v
	}
}

// Point is one evaluated combination. Err is set when the combination was
// invalid or the run failed.
type Point struct {
	Params map[string]float64
	Value  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Search runs base once per combination of the grid, one at a time so that
// timing objectives are not skewed. input holds the initial conditions when
// base ingests them.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, input []byte, objective Objective) (Point, []Point, error) {
	if len(g.paramNames) != len(g.ranges) {
		return Point{}, nil, fmt.Errorf("%w: %d parameters but %d ranges", dynamo.ErrInvalidConfig, len(g.paramNames), len(g.ranges))
	}

	var all []Point
	if err := g.searchRecursive(ctx, 0, make(map[string]float64), base, input, objective, &all); err != nil {
		return Point{}, all, err
	}

	best := -1
	for i, p := range all {
		if p.Err != nil || math.IsNaN(p.Value) {
			continue
		}
		if best < 0 || p.Value < all[best].Value {
			best = i
		}
	}
	if best < 0 {
		return Point{}, all, ErrNoFeasiblePoint
	}
	return all[best], all, nil
}

func (g *GridSearch) searchRecursive(
	ctx context.Context,
	depth int,
	current map[string]float64,
	base *config.Config,
	input []byte,
	objective Objective,
	all *[]Point,
) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if depth == len(g.paramNames) {
		*all = append(*all, evaluate(current, base, input, objective))
		return nil
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		newParams := make(map[string]float64, len(current)+1)
		for k, v := range current {
			newParams[k] = v
		}
		newParams[paramName] = val

		if err := g.searchRecursive(ctx, depth+1, newParams, base, input, objective, all); err != nil {
			return err
		}
	}
	return nil
}

func evaluate(params map[string]float64, base *config.Config, input []byte, objective Objective) Point {
	p := Point{Params: params, Value: math.Inf(1)}

	cfg := *base
	for name, v := range params {
		if err := cfg.SetParam(name, v); err != nil {
			p.Err = err
			return p
		}
	}

	s, err := experiment.Build(&cfg, bytes.NewReader(input))
	if err != nil {
		p.Err = err
		return p
	}
	defer s.Close()

	res, err := s.Run(cfg.SimConfig())
	if err != nil {
		p.Err = err
		return p
	}
	if len(res.Errors) > 0 {
		p.Err = res.Errors[0]
		return p
	}
	p.Value = objective(res)
	return p
}
