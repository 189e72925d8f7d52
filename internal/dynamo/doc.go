// Package dynamo provides the core state and interfaces for the gravitational
// n-body simulation.
//
//   - [System]: ordered set of [Particle] values, fixed size, mass immutable
//   - [ForceField]: net force on one particle from the current state
//   - [Integrator]: per-particle timestep update
//   - [EnergyMonitor]: kinetic and potential energy diagnostics
//   - [Metric], [Observer]: consumers of output steps
//
// # Example
//
//	sys, _ := dynamo.NewSystem(physics.Generate(100, physics.DefaultGenerator()))
//	s := sim.New(sys, physics.NewGravity(physics.G), integrators.NewEuler(),
//		physics.NewEnergyMonitor(physics.G), compute.NewPool(4))
//	result, _ := s.Run(cfg)
//
// # Thread Safety
//
// A [System] may be read concurrently, and concurrent [System.Update] calls
// are safe as long as each index is written by a single goroutine and no
// goroutine reads an index that is being written.
package dynamo
