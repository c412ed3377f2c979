package metrics

import (
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/dynamo"
)

// QuadraticCost integrates xᵀQx + uᵀRu over the observed steps with the
// left rectangle rule. A nil R ignores the control.
type QuadraticCost struct {
	name  string
	q, r  mat.Matrix
	total float64
	prevT float64
	prevL float64
	seen  bool
}

func NewQuadraticCost(q, r mat.Matrix) *QuadraticCost {
	return &QuadraticCost{name: "cost", q: q, r: r}
}

func (c *QuadraticCost) Name() string { return c.name }

func (c *QuadraticCost) Observe(x dynamo.State, u dynamo.Control, t float64) {
	l := quad(c.q, x)
	if c.r != nil && len(u) > 0 {
		l += quad(c.r, u)
	}
	if c.seen {
		c.total += c.prevL * math.Abs(t-c.prevT)
	}
	c.prevT, c.prevL, c.seen = t, l, true
}

func (c *QuadraticCost) Value() float64 { return c.total }

func (c *QuadraticCost) Reset() {
	c.total, c.prevT, c.prevL, c.seen = 0, 0, 0, false
}

func quad(m mat.Matrix, v []float64) float64 {
	vec := mat.NewVecDense(len(v), v)
	return mat.Inner(vec, m, vec)
}
