package control

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/dynamo"
)

// LQR applies u = -K(x - target) with a constant m x n gain.
type LQR struct {
	K      *mat.Dense
	Target dynamo.State
}

func NewLQR(k *mat.Dense, target dynamo.State) *LQR {
	return &LQR{K: k, Target: target}
}

func (l *LQR) Compute(x dynamo.State, t float64) dynamo.Control {
	return feedback(l.K, x, l.Target)
}

func feedback(k mat.Matrix, x, target dynamo.State) dynamo.Control {
	m, n := k.Dims()
	u := make(dynamo.Control, m)
	for i := range u {
		for j := 0; j < n && j < len(x); j++ {
			ref := 0.0
			if j < len(target) {
				ref = target[j]
			}
			u[i] -= k.At(i, j) * (x[j] - ref)
		}
	}
	return u
}

// Schedule yields a matrix for each query time. *trajectory.MatrixCallable
// satisfies it.
type Schedule interface {
	At(t float64) *mat.Dense
}

// TimeVaryingLQR is the finite-horizon regulator u = -R⁻¹BᵀP(t)(x - target).
type TimeVaryingLQR struct {
	p      Schedule
	riBt   *mat.Dense
	Target dynamo.State
}

func NewTimeVaryingLQR(p Schedule, B, R *mat.Dense, target dynamo.State) (*TimeVaryingLQR, error) {
	n, m := B.Dims()
	if rr, rc := R.Dims(); rr != m || rc != m {
		return nil, fmt.Errorf("%w: B is %dx%d, R is %dx%d", dynamo.ErrDimensionMismatch, n, m, rr, rc)
	}
	var ri mat.Dense
	if err := ri.Inverse(R); err != nil {
		return nil, fmt.Errorf("control: R is not invertible: %w", err)
	}
	riBt := mat.NewDense(m, n, nil)
	riBt.Mul(&ri, B.T())
	return &TimeVaryingLQR{p: p, riBt: riBt, Target: target}, nil
}

// Gain returns K(t).
func (c *TimeVaryingLQR) Gain(t float64) *mat.Dense {
	p := c.p.At(t)
	m, _ := c.riBt.Dims()
	_, n := p.Dims()
	k := mat.NewDense(m, n, nil)
	k.Mul(c.riBt, p)
	return k
}

func (c *TimeVaryingLQR) Compute(x dynamo.State, t float64) dynamo.Control {
	return feedback(c.Gain(t), x, c.Target)
}
