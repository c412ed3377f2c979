package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/matrices"
)

// Lyapunov builds the covariance propagation dP/dt = AP + PAᵀ + Q of a
// linear system driven by white noise of intensity Q.
func Lyapunov(A, Q *mat.Dense) (*Problem, error) {
	if err := requireSquare("A", A); err != nil {
		return nil, err
	}
	if err := requireSymmetric("Q", Q); err != nil {
		return nil, err
	}
	n, _ := A.Dims()
	if qn, _ := Q.Dims(); qn != n {
		return nil, fmt.Errorf("%w: A %dx%d, Q %dx%d", matrices.ErrDimensionMismatch, n, n, qn, qn)
	}

	syms, consts, err := bind(
		coefficient{name: "a", d: A},
		coefficient{name: "q", d: Q, opts: []matrices.Option{matrices.Symmetric()}},
	)
	if err != nil {
		return nil, err
	}
	a, q := syms["a"], syms["q"]

	p, err := matrices.Explicit("p", n, n, matrices.Symmetric(), matrices.Dynamic())
	if err != nil {
		return nil, err
	}
	P := p.Matrix()

	ap, err := mul(a, P)
	if err != nil {
		return nil, err
	}
	pat, err := mul(P, a.T())
	if err != nil {
		return nil, err
	}
	de, err := add(ap, pat, q)
	if err != nil {
		return nil, err
	}

	return &Problem{
		Name:      "lyapunov",
		DE:        de,
		Var:       p,
		Constants: consts,
		Params:    Params{A: A, Q: Q},
	}, nil
}
