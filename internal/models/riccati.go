package models

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/matrices"
)

// Riccati builds the differential Riccati equation of the finite-horizon LQR
// problem
//
//	-dP/dt = AᵀP + PA - PBR⁻¹BᵀP + Q
//
// with symmetric P. It is solved backward from a terminal condition.
func Riccati(A, B, Q, R *mat.Dense) (*Problem, error) {
	if err := requireSquare("A", A); err != nil {
		return nil, err
	}
	if B == nil {
		return nil, fmt.Errorf("%w: B", ErrMissingParam)
	}
	if err := requireSymmetric("Q", Q); err != nil {
		return nil, err
	}
	if err := requireSymmetric("R", R); err != nil {
		return nil, err
	}
	n, _ := A.Dims()
	br, bc := B.Dims()
	qn, _ := Q.Dims()
	rn, _ := R.Dims()
	if br != n || qn != n || rn != bc {
		return nil, fmt.Errorf("%w: A %dx%d, B %dx%d, Q %dx%d, R %dx%d", matrices.ErrDimensionMismatch, n, n, br, bc, qn, qn, rn, rn)
	}

	var Ri mat.Dense
	if err := Ri.Inverse(R); err != nil {
		return nil, fmt.Errorf("models: R is not invertible: %w", err)
	}
	// Inverse of a symmetric matrix is symmetric up to rounding.
	symmetrize(&Ri)

	syms, consts, err := bind(
		coefficient{name: "a", d: A},
		coefficient{name: "b", d: B},
		coefficient{name: "q", d: Q, opts: []matrices.Option{matrices.Symmetric()}},
		coefficient{name: "ri", d: &Ri, opts: []matrices.Option{matrices.Symmetric()}},
	)
	if err != nil {
		return nil, err
	}
	a, b, q, ri := syms["a"], syms["b"], syms["q"], syms["ri"]

	p, err := matrices.Explicit("p", n, n, matrices.Symmetric(), matrices.Dynamic())
	if err != nil {
		return nil, err
	}
	P := p.Matrix()

	atp, err := mul(a.T(), P)
	if err != nil {
		return nil, err
	}
	pa, err := mul(P, a)
	if err != nil {
		return nil, err
	}
	pbrbp, err := mul(P, b, ri, b.T(), P)
	if err != nil {
		return nil, err
	}
	rhs, err := add(atp, pa, pbrbp.Scale(-1), q)
	if err != nil {
		return nil, err
	}

	return &Problem{
		Name:      "riccati",
		DE:        rhs.Scale(-1),
		Var:       p,
		Constants: consts,
		Params:    Params{A: A, B: B, Q: Q, R: R},
		Backward:  true,
	}, nil
}

func symmetrize(d *mat.Dense) {
	n, _ := d.Dims()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			v := (d.At(i, j) + d.At(j, i)) / 2
			d.Set(i, j, v)
			d.Set(j, i, v)
		}
	}
}
