// Package trajectory interpolates a sampled vector-form solution and
// reconstructs the matrix it stands for at arbitrary times.
package trajectory

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/interp"
	"gonum.org/v1/gonum/mat"
)

var (
	ErrSampleShape   = errors.New("trajectory: sample count does not match times")
	ErrTooFewSamples = errors.New("trajectory: at least two samples required")
	ErrUnsortedTimes = errors.New("trajectory: times must be strictly increasing")
	ErrNoQuery       = errors.New("trajectory: no query times")
	ErrUnknownMethod = errors.New("trajectory: unknown interpolation method")
)

// Method selects the per-component interpolation scheme.
type Method string

const (
	Linear         Method = "linear"
	Akima          Method = "akima"
	FritschButland Method = "fritsch-butland"
	Cubic          Method = "cubic"
	Constant       Method = "constant"
)

func Methods() []Method { return []Method{Linear, Akima, FritschButland, Cubic, Constant} }

func (m Method) predictor() (interp.FittablePredictor, error) {
	switch m {
	case Linear, "":
		return &interp.PiecewiseLinear{}, nil
	case Akima:
		return &interp.AkimaSpline{}, nil
	case FritschButland:
		return &interp.FritschButland{}, nil
	case Cubic:
		return &interp.NaturalCubic{}, nil
	case Constant:
		return &interp.PiecewiseConstant{}, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMethod, string(m))
}

// VectorCallable evaluates an interpolated vector trajectory. Queries outside
// the sampled range return the end values.
type VectorCallable struct {
	t0, t1 float64
	preds  []interp.Predictor
}

// FromTrajectory fits one predictor per column of x, whose rows are the
// samples at times tt.
func FromTrajectory(tt []float64, x mat.Matrix, method Method) (*VectorCallable, error) {
	rows, cols := x.Dims()
	if rows != len(tt) {
		return nil, fmt.Errorf("%w: %d times, %d samples", ErrSampleShape, len(tt), rows)
	}
	if len(tt) < 2 {
		return nil, fmt.Errorf("%w: got %d", ErrTooFewSamples, len(tt))
	}
	for i := 1; i < len(tt); i++ {
		if !(tt[i] > tt[i-1]) {
			return nil, fmt.Errorf("%w: t[%d]=%g after t[%d]=%g", ErrUnsortedTimes, i, tt[i], i-1, tt[i-1])
		}
	}

	xs := slices.Clone(tt)
	preds := make([]interp.Predictor, cols)
	for j := 0; j < cols; j++ {
		p, err := method.predictor()
		if err != nil {
			return nil, err
		}
		if err := p.Fit(xs, mat.Col(nil, j, x)); err != nil {
			return nil, fmt.Errorf("trajectory: fit component %d: %w", j, err)
		}
		preds[j] = p
	}
	return &VectorCallable{t0: tt[0], t1: tt[len(tt)-1], preds: preds}, nil
}

// Span returns the first and last sample time.
func (v *VectorCallable) Span() (float64, float64) { return v.t0, v.t1 }

func (v *VectorCallable) Dim() int { return len(v.preds) }

// At fills dst with the vector at t and returns it, allocating when dst is
// too short.
func (v *VectorCallable) At(dst []float64, t float64) []float64 {
	if len(dst) < len(v.preds) {
		dst = make([]float64, len(v.preds))
	}
	dst = dst[:len(v.preds)]
	for j, p := range v.preds {
		dst[j] = p.Predict(t)
	}
	return dst
}
