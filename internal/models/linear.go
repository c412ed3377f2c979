package models

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/matrices"
)

// Linear builds dX/dt = AX for a general square X, whose solution is
// X(t) = exp(At)X(0).
func Linear(A *mat.Dense) (*Problem, error) {
	if err := requireSquare("A", A); err != nil {
		return nil, err
	}
	n, _ := A.Dims()

	syms, consts, err := bind(coefficient{name: "a", d: A})
	if err != nil {
		return nil, err
	}
	x, err := matrices.Explicit("x", n, n, matrices.Dynamic())
	if err != nil {
		return nil, err
	}
	de, err := mul(syms["a"], x.Matrix())
	if err != nil {
		return nil, err
	}

	return &Problem{
		Name:      "linear",
		DE:        de,
		Var:       x,
		Constants: consts,
		Params:    Params{A: A},
	}, nil
}
