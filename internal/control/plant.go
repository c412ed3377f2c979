package control

import (
	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/dynamo"
)

// LinearPlant is dx/dt = Ax + Bu.
type LinearPlant struct {
	A, B *mat.Dense
}

func NewLinearPlant(a, b *mat.Dense) *LinearPlant {
	return &LinearPlant{A: a, B: b}
}

func (p *LinearPlant) StateDim() int {
	n, _ := p.A.Dims()
	return n
}

func (p *LinearPlant) ControlDim() int {
	_, m := p.B.Dims()
	return m
}

func (p *LinearPlant) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	n := p.StateDim()
	dx := mat.NewVecDense(n, nil)
	dx.MulVec(p.A, mat.NewVecDense(len(x), x))
	if m := p.ControlDim(); m > 0 && len(u) == m {
		var bu mat.VecDense
		bu.MulVec(p.B, mat.NewVecDense(m, u))
		dx.AddVec(dx, &bu)
	}
	return dynamo.State(dx.RawVector().Data)
}
