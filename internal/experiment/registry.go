package experiment

import (
	"fmt"
	"io"
	"sort"

	"github.com/san-kum/gravsim/internal/config"
	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/metrics"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/storage"
)

// Initializer produces the starting particles for cfg. in is only read by
// modes that ingest data.
type Initializer func(cfg *config.Config, in io.Reader) ([]dynamo.Particle, error)

type Registry struct {
	inits map[string]Initializer
}

func NewRegistry() *Registry {
	r := &Registry{
		inits: make(map[string]Initializer),
	}

	r.inits[config.InitGenerate] = func(cfg *config.Config, _ io.Reader) ([]dynamo.Particle, error) {
		return physics.Generate(cfg.Particles, cfg.Generator), nil
	}
	r.inits[config.InitIngest] = func(cfg *config.Config, in io.Reader) ([]dynamo.Particle, error) {
		if in == nil {
			return nil, fmt.Errorf("%w: no input for ingest", dynamo.ErrIngest)
		}
		return storage.ReadInitial(in, cfg.Particles)
	}

	return r
}

func (r *Registry) Register(name string, fn Initializer) {
	r.inits[name] = fn
}

func (r *Registry) GetInitializer(name string) (Initializer, error) {
	fn, ok := r.inits[name]
	if !ok {
		return nil, fmt.Errorf("%w: unknown init mode: %s", dynamo.ErrInvalidConfig, name)
	}
	return fn, nil
}

func (r *Registry) ListInits() []string {
	names := make([]string, 0, len(r.inits))
	for name := range r.inits {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewEnergyDrift(),
		metrics.NewMomentum(),
		metrics.NewStability(1e30),
	}
}
