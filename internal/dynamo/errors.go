package dynamo

import (
	"errors"
	"fmt"
)

// Domain errors for simulation operations.
var (
	// ErrInvalidConfig indicates a run configuration that cannot be simulated.
	ErrInvalidConfig = errors.New("dynamo: invalid configuration")

	// ErrIngest indicates malformed or truncated initial conditions.
	ErrIngest = errors.New("dynamo: malformed initial conditions")

	// ErrNonPositiveMass indicates a particle whose mass is not strictly positive.
	ErrNonPositiveMass = errors.New("dynamo: particle mass must be positive")

	// ErrNoParticles indicates an attempt to build an empty system.
	ErrNoParticles = errors.New("dynamo: system has no particles")

	// ErrResourceExhausted indicates the state for the requested size cannot be allocated.
	ErrResourceExhausted = errors.New("dynamo: particle state too large to allocate")

	// ErrInvalidState indicates a state with NaN or Inf components.
	ErrInvalidState = errors.New("dynamo: invalid state (NaN or Inf detected)")
)

// IngestError reports which particle and field of the initial conditions
// could not be read.
type IngestError struct {
	Particle int
	Field    string
	Err      error
}

func (e *IngestError) Error() string {
	return fmt.Sprintf("dynamo: reading %s of particle %d: %v", e.Field, e.Particle, e.Err)
}

func (e *IngestError) Unwrap() error {
	return e.Err
}

// SimulationError wraps an error with simulation context.
type SimulationError struct {
	Step    int
	Time    float64
	Wrapped error
}

func (e *SimulationError) Error() string {
	return fmt.Sprintf("step %d (t=%.4g): %v", e.Step, e.Time, e.Wrapped)
}

func (e *SimulationError) Unwrap() error {
	return e.Wrapped
}
