package analysis

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/trajectory"
)

// Distance is the Frobenius distance of f(t) from ref at each time.
func Distance(f *trajectory.MatrixCallable, times []float64, ref mat.Matrix) []float64 {
	out := make([]float64, len(times))
	var diff mat.Dense
	for k, t := range times {
		diff.Sub(f.At(t), ref)
		out[k] = mat.Norm(&diff, 2)
	}
	return out
}

// SettlingTime finds where dist enters tol for good. Forward, it is the
// earliest time after which every sample stays within tol. Backward, time
// runs from the end: the latest time before which every sample does. ok is
// false when the settled end itself is outside tol.
func SettlingTime(times, dist []float64, tol float64, backward bool) (float64, bool) {
	n := len(dist)
	if n == 0 || len(times) != n {
		return 0, false
	}

	if backward {
		if dist[0] >= tol {
			return 0, false
		}
		i := 0
		for i+1 < n && dist[i+1] < tol {
			i++
		}
		return times[i], true
	}

	if dist[n-1] >= tol {
		return 0, false
	}
	i := n - 1
	for i > 0 && dist[i-1] < tol {
		i--
	}
	return times[i], true
}
