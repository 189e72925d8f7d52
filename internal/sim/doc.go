// Package sim sequences timesteps of a particle system.
//
// A [Simulator] alternates two parallel regions on its worker pool, force
// evaluation for every particle and then the integration of every particle,
// each ending in a barrier. After the integration barrier it emits output
// single-threaded at step 0 and every OutputFreq-th step.
//
// [Ensemble] runs several independently built simulators at the same time.
package sim
