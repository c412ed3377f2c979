// Package viz renders matrices and matrix trajectories in the terminal.
//
//   - [Matrix]: lipgloss-styled grid of a numeric matrix
//   - [EntryPlot], [EntriesPlot]: asciigraph line plots of entries over time
//   - [Phase]: Braille canvas portrait of one entry against another
//   - Theme selection with 5 built-in color schemes
package viz
