package sim

import (
	"fmt"
	"math"
	"time"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/dynamo"
	"gonum.org/v1/gonum/spatial/r2"
)

type Simulator struct {
	sys       *dynamo.System
	field     dynamo.ForceField
	integ     dynamo.Integrator
	monitor   dynamo.EnergyMonitor
	pool      *compute.Pool
	forces    []r2.Vec
	metrics   []dynamo.Metric
	observers []dynamo.Observer
	steps     int
}

// New wires a simulator around sys. The simulator takes ownership of pool and
// closes it in Close.
func New(sys *dynamo.System, field dynamo.ForceField, integ dynamo.Integrator, monitor dynamo.EnergyMonitor, pool *compute.Pool) *Simulator {
	return &Simulator{
		sys:       sys,
		field:     field,
		integ:     integ,
		monitor:   monitor,
		pool:      pool,
		forces:    make([]r2.Vec, sys.Len()),
		metrics:   make([]dynamo.Metric, 0),
		observers: make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) System() *dynamo.System { return s.sys }

// StepsTaken counts every Step since the simulator was built.
func (s *Simulator) StepsTaken() int { return s.steps }

func (s *Simulator) Energy() dynamo.EnergyReport { return s.monitor.Measure(s.sys) }

func (s *Simulator) Close() { s.pool.Close() }

// Step advances the system by dt. Forces for every particle are computed
// from the current state before any particle is moved.
func (s *Simulator) Step(dt float64) {
	n := s.sys.Len()

	s.pool.For(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			s.forces[i] = s.field.ForceOn(s.sys, i)
		}
	})

	s.pool.For(n, func(lo, hi int) {
		for i := lo; i < hi; i++ {
			s.integ.Advance(s.sys, i, s.forces[i], dt)
		}
	})

	s.steps++
}

// maxSampleHint bounds the up-front sample allocation; longer runs grow the
// slice as they go.
const maxSampleHint = 1 << 16

// Run performs cfg.Steps steps. Output fires at step 0 and at every step
// divisible by cfg.OutputFreq; observer errors abort the run.
func (s *Simulator) Run(cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Samples: make([]dynamo.Sample, 0, min(cfg.Steps/cfg.OutputFreq+1, maxSampleHint)),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	start := time.Now()

	if err := s.output(0, 0, cfg, result); err != nil {
		return result, err
	}

	for step := 1; step <= cfg.Steps; step++ {
		s.Step(cfg.Dt)
		result.StepsTaken++
		t := float64(step) * cfg.Dt

		if cfg.ValidateState && !s.sys.IsValid() {
			result.Errors = append(result.Errors, &dynamo.SimulationError{Step: step, Time: t, Wrapped: dynamo.ErrInvalidState})
			break
		}

		if step%cfg.OutputFreq == 0 {
			if err := s.output(step, t, cfg, result); err != nil {
				return result, err
			}
		}
	}

	result.Elapsed = time.Since(start)
	result.Final = s.sys.Snapshot()
	result.EnergyDrift = drift(result.Samples)

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) output(step int, t float64, cfg Config, result *Result) error {
	sample := dynamo.Sample{Step: step, Time: t}
	if cfg.Diagnostics {
		sample.Energy = s.monitor.Measure(s.sys)
		sample.Measured = true
	}
	result.Samples = append(result.Samples, sample)

	for _, m := range s.metrics {
		m.Observe(s.sys, sample)
	}
	for _, obs := range s.observers {
		if err := obs.OnOutput(s.sys, sample); err != nil {
			return &dynamo.SimulationError{Step: step, Time: t, Wrapped: err}
		}
	}
	return nil
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Steps < 0 {
		return fmt.Errorf("%w: steps must be non-negative, got %d", dynamo.ErrInvalidConfig, cfg.Steps)
	}
	if !(cfg.Dt > 0) || math.IsInf(cfg.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidConfig, cfg.Dt)
	}
	if cfg.OutputFreq < 1 {
		return fmt.Errorf("%w: output frequency must be positive, got %d", dynamo.ErrInvalidConfig, cfg.OutputFreq)
	}
	return nil
}

func drift(samples []dynamo.Sample) float64 {
	var first, last *dynamo.Sample
	for i := range samples {
		if !samples[i].Measured {
			continue
		}
		if first == nil {
			first = &samples[i]
		}
		last = &samples[i]
	}
	if first == nil || first.Energy.Total() == 0 {
		return 0
	}
	e0 := first.Energy.Total()
	return math.Abs(last.Energy.Total()-e0) / math.Abs(e0)
}
