package experiment

import (
	"fmt"
	"io"

	"github.com/san-kum/gravsim/internal/compute"
	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/integrators"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
)

type Experiment struct {
	cfg       *config.Config
	registry  *Registry
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{
		cfg:      cfg,
		registry: NewRegistry(),
	}
}

func (e *Experiment) Registry() *Registry { return e.registry }

// Setup validates the configuration, builds the initial system and wires
// the simulator. Nothing is stepped.
func (e *Experiment) Setup(in io.Reader) error {
	if err := e.cfg.Validate(); err != nil {
		return err
	}

	initFn, err := e.registry.GetInitializer(e.cfg.Init)
	if err != nil {
		return err
	}
	ps, err := initFn(e.cfg, in)
	if err != nil {
		return err
	}
	sys, err := dynamo.NewSystem(ps)
	if err != nil {
		return err
	}

	if e.simulator != nil {
		e.simulator.Close()
	}
	e.simulator = sim.New(
		sys,
		physics.NewGravity(e.cfg.Gravity),
		integrators.NewEuler(),
		physics.NewEnergyMonitor(e.cfg.Gravity),
		compute.NewPool(e.cfg.Workers),
	)
	for _, m := range e.registry.DefaultMetrics() {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run() (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	return e.simulator.Run(e.cfg.SimConfig())
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Close() {
	if e.simulator != nil {
		e.simulator.Close()
		e.simulator = nil
	}
}

// Build is Setup for callers that only need the simulator, such as
// ensemble members.
func Build(cfg *config.Config, in io.Reader) (*sim.Simulator, error) {
	e := New(cfg)
	if err := e.Setup(in); err != nil {
		return nil, err
	}
	return e.GetSimulator(), nil
}
