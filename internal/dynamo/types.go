package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r2"
)

// MaxParticles bounds the particle count accepted by NewSystem. The state and
// force arrays for this many particles already need several gigabytes.
const MaxParticles = 1 << 26

// Particle is a point mass in the plane.
type Particle struct {
	Mass float64
	Pos  r2.Vec
	Vel  r2.Vec
}

// System holds the mutable state of a fixed set of particles. Index order is
// the particle's identity for force evaluation and output.
//
// Update on distinct indices may run concurrently; each index owns a disjoint
// slot. Reads of index k while index k is being updated race.
type System struct {
	particles []Particle
}

// NewSystem copies ps into a new System after checking the mass invariant.
func NewSystem(ps []Particle) (*System, error) {
	if len(ps) == 0 {
		return nil, ErrNoParticles
	}
	if len(ps) > MaxParticles {
		return nil, fmt.Errorf("%w: %d particles (limit %d)", ErrResourceExhausted, len(ps), MaxParticles)
	}
	for i, p := range ps {
		if !(p.Mass > 0) || math.IsInf(p.Mass, 0) {
			return nil, fmt.Errorf("particle %d: %w (mass=%g)", i, ErrNonPositiveMass, p.Mass)
		}
	}
	particles := make([]Particle, len(ps))
	copy(particles, ps)
	return &System{particles: particles}, nil
}

func (s *System) Len() int { return len(s.particles) }

func (s *System) At(i int) Particle { return s.particles[i] }

// Update overwrites the position and velocity of particle i. Mass is fixed at
// construction and cannot be changed.
func (s *System) Update(i int, pos, vel r2.Vec) {
	p := &s.particles[i]
	p.Pos = pos
	p.Vel = vel
}

// Snapshot returns a copy of every particle in index order.
func (s *System) Snapshot() []Particle {
	out := make([]Particle, len(s.particles))
	copy(out, s.particles)
	return out
}

func (s *System) Clone() *System {
	return &System{particles: s.Snapshot()}
}

// IsValid reports whether every position and velocity component is finite.
func (s *System) IsValid() bool {
	for _, p := range s.particles {
		for _, v := range [...]float64{p.Pos.X, p.Pos.Y, p.Vel.X, p.Vel.Y} {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}

// TotalMass returns the sum of all particle masses.
func (s *System) TotalMass() float64 {
	m := 0.0
	for _, p := range s.particles {
		m += p.Mass
	}
	return m
}

// Momentum returns the total linear momentum Σ m·v.
func (s *System) Momentum() r2.Vec {
	var m r2.Vec
	for _, p := range s.particles {
		m = r2.Add(m, r2.Scale(p.Mass, p.Vel))
	}
	return m
}

// CenterOfMassVelocity returns Σ m·v / Σ m.
func (s *System) CenterOfMassVelocity() r2.Vec {
	return r2.Scale(1/s.TotalMass(), s.Momentum())
}

// EnergyReport is the kinetic and potential energy of a system at one instant.
type EnergyReport struct {
	Kinetic   float64
	Potential float64
}

func (e EnergyReport) Total() float64 { return e.Kinetic + e.Potential }

// ForceField computes the net force on one particle from the current state.
// Implementations must only read sys.
type ForceField interface {
	ForceOn(sys *System, i int) r2.Vec
}

// Integrator advances particle i by one step of size dt given its force.
// Implementations must only touch index i.
type Integrator interface {
	Advance(sys *System, i int, force r2.Vec, dt float64)
}

// EnergyMonitor measures the energy of a system without modifying it.
type EnergyMonitor interface {
	Measure(sys *System) EnergyReport
}

// Sample describes one output step.
type Sample struct {
	Step     int
	Time     float64
	Energy   EnergyReport
	Measured bool
}

type Metric interface {
	Name() string
	Observe(sys *System, s Sample)
	Value() float64
	Reset()
}

type Observer interface {
	OnOutput(sys *System, s Sample) error
}
