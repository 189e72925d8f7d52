// Package viz renders simulation output for the terminal.
//
//   - [Console]: observer printing energy lines and particle snapshots
//   - [LiveModel]: Bubble Tea view that steps a simulator and draws it
//   - [Canvas]: Braille-based pixel canvas
//   - [EnergyPlot]: asciigraph charts of an energy history
//
// # Key Bindings (live view)
//
//	Space - Pause/Resume simulation
//	+/-   - More/fewer steps per frame
//	F     - Refit the view to the particles
//	T     - Cycle color themes
//	?     - Show help overlay
//	Q     - Quit
package viz
