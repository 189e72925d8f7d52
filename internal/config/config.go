package config

import (
	"fmt"
	"math"
	"os"
	"runtime"
	"strings"

	"github.com/san-kum/gravsim/internal/dynamo"
	"github.com/san-kum/gravsim/internal/physics"
	"github.com/san-kum/gravsim/internal/sim"
	"gopkg.in/yaml.v3"
)

const DefaultParticles = 100

// Initial-condition modes.
const (
	InitGenerate = "generate"
	InitIngest   = "ingest"
)

type Config struct {
	Particles     int                     `yaml:"particles"`
	Steps         int                     `yaml:"steps"`
	Dt            float64                 `yaml:"dt"`
	OutputFreq    int                     `yaml:"output_freq"`
	Workers       int                     `yaml:"workers"`
	Init          string                  `yaml:"init"`
	Input         string                  `yaml:"input,omitempty"`
	Diagnostics   bool                    `yaml:"diagnostics"`
	Snapshots     bool                    `yaml:"snapshots"`
	ValidateState bool                    `yaml:"validate_state"`
	Gravity       float64                 `yaml:"gravity"`
	Generator     physics.GeneratorParams `yaml:"generator"`
}

func DefaultConfig() *Config {
	run := sim.DefaultConfig()
	return &Config{
		Particles:     DefaultParticles,
		Steps:         run.Steps,
		Dt:            run.Dt,
		OutputFreq:    run.OutputFreq,
		Workers:       runtime.NumCPU(),
		Init:          InitGenerate,
		Input:         "-",
		Diagnostics:   run.Diagnostics,
		ValidateState: run.ValidateState,
		Gravity:       physics.G,
		Generator:     physics.DefaultGenerator(),
	}
}

func Load(path string) (*Config, error) {
	return LoadWith(path, DefaultConfig())
}

// LoadWith reads path on top of a copy of base; keys absent from the file
// keep their base values.
func LoadWith(path string, base *Config) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := *base
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ParseInit maps the long and single-letter spellings of an init mode to the
// canonical name.
func ParseInit(mode string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "g", InitGenerate:
		return InitGenerate, nil
	case "i", InitIngest:
		return InitIngest, nil
	}
	return "", fmt.Errorf("%w: unknown init mode %q (want generate|ingest)", dynamo.ErrInvalidConfig, mode)
}

// Validate reports the first field that would make the run impossible. It
// also canonicalises Init.
func (c *Config) Validate() error {
	if c.Particles <= 0 {
		return fmt.Errorf("%w: particle count must be positive, got %d", dynamo.ErrInvalidConfig, c.Particles)
	}
	if c.Particles > dynamo.MaxParticles {
		return fmt.Errorf("%w: %d particles (limit %d)", dynamo.ErrResourceExhausted, c.Particles, dynamo.MaxParticles)
	}
	if c.Steps < 0 {
		return fmt.Errorf("%w: step count must be non-negative, got %d", dynamo.ErrInvalidConfig, c.Steps)
	}
	if !(c.Dt > 0) || math.IsInf(c.Dt, 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", dynamo.ErrInvalidConfig, c.Dt)
	}
	if c.OutputFreq <= 0 {
		return fmt.Errorf("%w: output frequency must be positive, got %d", dynamo.ErrInvalidConfig, c.OutputFreq)
	}
	if c.Workers <= 0 {
		return fmt.Errorf("%w: worker count must be positive, got %d", dynamo.ErrInvalidConfig, c.Workers)
	}
	if !(c.Gravity > 0) || math.IsInf(c.Gravity, 0) {
		return fmt.Errorf("%w: gravitational constant must be positive, got %g", dynamo.ErrInvalidConfig, c.Gravity)
	}

	mode, err := ParseInit(c.Init)
	if err != nil {
		return err
	}
	c.Init = mode

	if mode == InitGenerate && !(c.Generator.Mass > 0) {
		return fmt.Errorf("%w: generator mass must be positive, got %g", dynamo.ErrInvalidConfig, c.Generator.Mass)
	}
	return nil
}

func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		Steps:         c.Steps,
		Dt:            c.Dt,
		OutputFreq:    c.OutputFreq,
		Diagnostics:   c.Diagnostics,
		ValidateState: c.ValidateState,
	}
}

// Params lists the names accepted by SetParam.
var Params = []string{"particles", "steps", "dt", "output_freq", "workers", "gravity", "mass", "gap", "speed"}

// SetParam assigns one numeric field by its config key. Integer fields
// reject values with a fractional part.
func (c *Config) SetParam(name string, v float64) error {
	asInt := func() (int, error) {
		if v != math.Trunc(v) || math.IsInf(v, 0) {
			return 0, fmt.Errorf("%w: %s must be an integer, got %g", dynamo.ErrInvalidConfig, name, v)
		}
		return int(v), nil
	}

	var err error
	switch name {
	case "particles":
		c.Particles, err = asInt()
	case "steps":
		c.Steps, err = asInt()
	case "output_freq", "freq":
		c.OutputFreq, err = asInt()
	case "workers":
		c.Workers, err = asInt()
	case "dt":
		c.Dt = v
	case "gravity":
		c.Gravity = v
	case "mass":
		c.Generator.Mass = v
	case "gap":
		c.Generator.Gap = v
	case "speed":
		c.Generator.Speed = v
	default:
		return fmt.Errorf("%w: unknown parameter %q", dynamo.ErrInvalidConfig, name)
	}
	return err
}
