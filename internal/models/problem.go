// Package models builds the matrix differential equations matdyn ships with.
package models

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/matrices"
	"github.com/san-kum/matdyn/internal/symbolic"
	"github.com/san-kum/matdyn/internal/systems"
)

var (
	ErrUnknownProblem = errors.New("models: unknown problem")
	ErrNotSymmetric   = errors.New("models: matrix must be symmetric")
	ErrMissingParam   = errors.New("models: missing parameter")
)

// Params carries the numeric coefficient matrices of a problem. Problems
// read only the ones they need.
type Params struct {
	A, B, Q, R *mat.Dense
}

// Problem is dVar/dt = DE together with the constant bindings of its
// coefficient symbols.
type Problem struct {
	Name      string
	DE        *symbolic.Matrix
	Var       *matrices.Structured
	Constants symbolic.Substitution
	Params    Params

	// Backward problems carry a terminal condition and integrate with dt < 0.
	Backward bool
}

// System builds the vector-form system. Extra options are applied after the
// problem's constants.
func (p *Problem) System(opts ...systems.Option) (*systems.DynamicalSystem, error) {
	all := append([]systems.Option{systems.WithConstants(p.Constants)}, opts...)
	return systems.FromMatrixDE(p.DE, p.Var.Matrix(), all...)
}

// Initial reads a numeric initial (or terminal) matrix into vector form.
func (p *Problem) Initial(m mat.Matrix) ([]float64, error) {
	return p.Var.Mapping().Gather(m)
}

func (p *Problem) Dim() int {
	n, _ := p.Var.Dims()
	return n
}

// coefficient declares a named symbol matrix and binds it to d.
type coefficient struct {
	name string
	d    *mat.Dense
	opts []matrices.Option
}

func bind(coeffs ...coefficient) (map[string]*symbolic.Matrix, symbolic.Substitution, error) {
	syms := make(map[string]*symbolic.Matrix, len(coeffs))
	pairs := make(map[*symbolic.Matrix]*symbolic.Matrix, len(coeffs))
	for _, c := range coeffs {
		r, k := c.d.Dims()
		s, err := matrices.Explicit(c.name, r, k, c.opts...)
		if err != nil {
			return nil, nil, fmt.Errorf("coefficient %s: %w", c.name, err)
		}
		m := s.Matrix()
		syms[c.name] = m
		pairs[m] = symbolic.FromDense(c.d)
	}
	rules, err := matrices.SubsMap(pairs)
	if err != nil {
		return nil, nil, err
	}
	return syms, symbolic.FromMap(rules), nil
}

func mul(ms ...*symbolic.Matrix) (*symbolic.Matrix, error) {
	out := ms[0]
	for _, m := range ms[1:] {
		var err error
		if out, err = out.Mul(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func add(ms ...*symbolic.Matrix) (*symbolic.Matrix, error) {
	out := ms[0]
	for _, m := range ms[1:] {
		var err error
		if out, err = out.Add(m); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func requireSquare(name string, d *mat.Dense) error {
	if d == nil {
		return fmt.Errorf("%w: %s", ErrMissingParam, name)
	}
	r, c := d.Dims()
	if r != c {
		return fmt.Errorf("%w: %s is %dx%d, want square", matrices.ErrDimensionMismatch, name, r, c)
	}
	return nil
}

func requireSymmetric(name string, d *mat.Dense) error {
	if err := requireSquare(name, d); err != nil {
		return err
	}
	n, _ := d.Dims()
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			if math.Abs(d.At(i, j)-d.At(j, i)) > 1e-12 {
				return fmt.Errorf("%w: %s differs at (%d,%d)", ErrNotSymmetric, name, i, j)
			}
		}
	}
	return nil
}
