// Package analysis summarizes matrix trajectories.
//
//   - [Spectrum]: eigenvalues and definiteness of P(t) at query times
//   - [Distance] and [SettlingTime]: convergence toward a reference matrix
//   - [DominantFrequency]: oscillation frequency of one entry's series
//
// A Riccati solution should stay positive definite and settle toward the
// algebraic solution as t moves away from the terminal time:
//
//	ref := f.At(t0)
//	dist := analysis.Distance(f, times, ref)
//	ts, ok := analysis.SettlingTime(times, dist, 1e-3, true)
package analysis
