// Package viz renders simulation output in the terminal.
//
// Static output (run summaries, formula tables) is styled with lipgloss and
// time series are drawn with asciigraph. [LiveModel] is a Bubble Tea program
// that drives a processor frame by frame.
//
// # Key Bindings
//
//	Space - Pause/Resume simulation
//	+/-   - Double/halve the timestep
//	Q     - Quit
package viz
