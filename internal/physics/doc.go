// Package physics implements the gravitational force law, the energy
// diagnostics, and deterministic initial conditions.
//
//   - [Gravity]: direct O(N²) force field, implements [dynamo.ForceField]
//   - [EnergyMonitor]: kinetic and potential energy, implements [dynamo.EnergyMonitor]
//   - [Generate]: evenly spaced particles with alternating velocities
//
// The gravitational constant is a field of each value rather than a package
// variable, so independent simulations in one process may use different
// constants. [G] is the SI default.
//
// # Coincident Particles
//
// A pair at exactly the same position is singular. Both [Gravity] and
// [EnergyMonitor] treat such a pair as contributing nothing:
//
//	f := physics.NewGravity(physics.G).PairForce(a, a) // r2.Vec{}
package physics
