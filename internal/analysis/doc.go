// Package analysis characterizes finished or running simulations.
//
//   - [LyapunovExponent]: largest Lyapunov exponent via trajectory separation
//   - [EnergySpectrum]: power spectrum of a measured energy history
//
// # Chaos Detection
//
// A positive largest Lyapunov exponent indicates chaotic dynamics:
//
//	est, err := analysis.LyapunovExponent(build, 1.0, dt, steps, 10)
//	if err == nil && est.Exponent > 0 {
//	    // System is chaotic
//	}
package analysis
