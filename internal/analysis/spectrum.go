package analysis

import (
	"errors"
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/trajectory"
)

var (
	ErrNotSquare     = errors.New("analysis: matrix is not square")
	ErrNoConvergence = errors.New("analysis: eigendecomposition did not converge")
)

const symmetryTol = 1e-9

func IsSymmetric(m mat.Matrix, tol float64) bool {
	r, c := m.Dims()
	if r != c {
		return false
	}
	for i := 0; i < r; i++ {
		for j := i + 1; j < c; j++ {
			if math.Abs(m.At(i, j)-m.At(j, i)) > tol {
				return false
			}
		}
	}
	return true
}

func symmetric(m mat.Matrix) *mat.SymDense {
	n, _ := m.Dims()
	s := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			s.SetSym(i, j, (m.At(i, j)+m.At(j, i))/2)
		}
	}
	return s
}

// Eigenvalues of m. Symmetric input is solved with the symmetric solver and
// comes back real and ascending; otherwise values are sorted by real part.
func Eigenvalues(m mat.Matrix) ([]complex128, error) {
	r, c := m.Dims()
	if r != c {
		return nil, fmt.Errorf("%w: %dx%d", ErrNotSquare, r, c)
	}

	if IsSymmetric(m, symmetryTol) {
		var es mat.EigenSym
		if !es.Factorize(symmetric(m), false) {
			return nil, ErrNoConvergence
		}
		vals := es.Values(nil)
		out := make([]complex128, len(vals))
		for i, v := range vals {
			out[i] = complex(v, 0)
		}
		return out, nil
	}

	var eig mat.Eigen
	if !eig.Factorize(m, mat.EigenNone) {
		return nil, ErrNoConvergence
	}
	vals := eig.Values(nil)
	sort.Slice(vals, func(i, j int) bool {
		if real(vals[i]) != real(vals[j]) {
			return real(vals[i]) < real(vals[j])
		}
		return imag(vals[i]) < imag(vals[j])
	})
	return vals, nil
}

// PositiveDefinite reports whether m is symmetric with a Cholesky factor.
func PositiveDefinite(m mat.Matrix) bool {
	if !IsSymmetric(m, symmetryTol) {
		return false
	}
	var chol mat.Cholesky
	return chol.Factorize(symmetric(m))
}

type Snapshot struct {
	T                float64
	Eigenvalues      []complex128
	PositiveDefinite bool
	Norm             float64
}

// Spectrum evaluates f at each time and decomposes the matrix there.
func Spectrum(f *trajectory.MatrixCallable, times []float64) ([]Snapshot, error) {
	out := make([]Snapshot, len(times))
	for k, t := range times {
		m := f.At(t)
		vals, err := Eigenvalues(m)
		if err != nil {
			return nil, fmt.Errorf("t=%g: %w", t, err)
		}
		out[k] = Snapshot{
			T:                t,
			Eigenvalues:      vals,
			PositiveDefinite: PositiveDefinite(m),
			Norm:             mat.Norm(m, 2),
		}
	}
	return out, nil
}
