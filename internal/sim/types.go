package sim

import (
	"time"

	"github.com/san-kum/gravsim/internal/dynamo"
)

// Config controls a single run. Steps, Dt and OutputFreq are fixed for the
// lifetime of the run.
type Config struct {
	Steps         int
	Dt            float64
	OutputFreq    int
	Diagnostics   bool
	ValidateState bool
}

// DefaultConfig runs every step to the end; state validation is opt-in.
func DefaultConfig() Config {
	return Config{
		Steps:       1000,
		Dt:          0.01,
		OutputFreq:  100,
		Diagnostics: true,
	}
}

type Result struct {
	Samples     []dynamo.Sample
	Final       []dynamo.Particle
	StepsTaken  int
	Elapsed     time.Duration
	EnergyDrift float64
	Metrics     map[string]float64
	Errors      []error
}
