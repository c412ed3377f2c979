package trajectory

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/ndarray"
	"github.com/san-kum/matdyn/internal/symbolic"
	"github.com/san-kum/matdyn/internal/vectorize"
)

type options struct {
	method Method
}

type Option func(*options)

// WithMethod overrides the default piecewise-linear interpolation.
func WithMethod(m Method) Option { return func(o *options) { o.method = m } }

// MatrixCallable maps a query time to the matrix reconstructed from an
// interpolated vector trajectory. It is read-only after construction.
type MatrixCallable struct {
	vec    *VectorCallable
	layout vectorize.Layout
}

// MatrixCallableFromVectorTrajectory relates raveled to the unique entry
// sequence unraveled and interpolates the columns of x, which must follow
// the order of unraveled. A matrix-shaped unique sequence is passed as its
// Flatten(). A zero entry of raveled that is absent from unraveled is a
// structural zero and reads as 0; any other absent entry fails with
// vectorize.ErrLookup.
func MatrixCallableFromVectorTrajectory(tt []float64, x mat.Matrix, unraveled []symbolic.Expr, raveled *symbolic.Matrix, opts ...Option) (*MatrixCallable, error) {
	mapping, err := vectorize.New(unraveled, raveled)
	if err != nil {
		return nil, err
	}
	return FromLayout(tt, x, mapping.Layout(), opts...)
}

// FromLayout builds a callable from a persisted layout.
func FromLayout(tt []float64, x mat.Matrix, layout vectorize.Layout, opts ...Option) (*MatrixCallable, error) {
	o := options{method: Linear}
	for _, opt := range opts {
		opt(&o)
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	if _, c := x.Dims(); c != len(layout.Names) {
		return nil, fmt.Errorf("%w: %d components, layout has %d unique entries", ErrSampleShape, c, len(layout.Names))
	}
	vec, err := FromTrajectory(tt, x, o.method)
	if err != nil {
		return nil, err
	}
	return &MatrixCallable{vec: vec, layout: layout}, nil
}

func (m *MatrixCallable) Dims() (int, int)         { return m.layout.Rows, m.layout.Cols }
func (m *MatrixCallable) Span() (float64, float64) { return m.vec.Span() }
func (m *MatrixCallable) Layout() vectorize.Layout { return m.layout }

// At reconstructs the matrix at t.
func (m *MatrixCallable) At(t float64) *mat.Dense {
	return m.layout.Dense(m.vec.At(nil, t))
}

// Eval returns an (r, c) array for a single query time and an (n, r, c)
// stack for n > 1.
func (m *MatrixCallable) Eval(ts ...float64) (*ndarray.Array, error) {
	r, c := m.Dims()
	switch len(ts) {
	case 0:
		return nil, ErrNoQuery
	case 1:
		return ndarray.FromDense(m.At(ts[0])), nil
	}

	out := ndarray.Zeros(len(ts), r, c)
	data := out.Data()
	buf := make([]float64, m.vec.Dim())
	for k, t := range ts {
		m.layout.Scatter(data[k*r*c:(k+1)*r*c], m.vec.At(buf, t))
	}
	return out, nil
}
