package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/matdyn/internal/dynamo"
)

// Dormand-Prince 5(4). The seventh stage evaluates at the fifth-order
// solution and only feeds the error estimate.
var dopriTableau = Tableau{
	Name:  "rk45",
	Order: 5,
	A: [][]float64{
		{},
		{1.0 / 5},
		{3.0 / 40, 9.0 / 40},
		{44.0 / 45, -56.0 / 15, 32.0 / 9},
		{19372.0 / 6561, -25360.0 / 2187, 64448.0 / 6561, -212.0 / 729},
		{9017.0 / 3168, -355.0 / 33, 46732.0 / 5247, 49.0 / 176, -5103.0 / 18656},
		{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84},
	},
	B:    []float64{35.0 / 384, 0, 500.0 / 1113, 125.0 / 192, -2187.0 / 6784, 11.0 / 84, 0},
	C:    []float64{0, 1.0 / 5, 3.0 / 10, 4.0 / 5, 8.0 / 9, 1, 1},
	BHat: []float64{5179.0 / 57600, 0, 7571.0 / 16695, 393.0 / 640, -92097.0 / 339200, 187.0 / 2100, 1.0 / 40},
}

type RK45 struct {
	*Explicit
	safety   float64
	minScale float64
	maxScale float64
	minDt    float64
}

func NewRK45() *RK45 {
	return &RK45{
		Explicit: NewExplicit(dopriTableau),
		safety:   0.9,
		minScale: 0.2,
		maxScale: 10.0,
		minDt:    1e-12,
	}
}

var _ dynamo.AdaptiveIntegrator = (*RK45)(nil)

func (r *RK45) StepAdaptive(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt, tol float64) (dynamo.State, float64, float64, error) {
	for {
		newX, errMax := r.estimate(dyn, x, u, t, dt)
		ratio := errMax / tol

		if ratio <= 1 {
			next := dt * r.maxScale
			if ratio > 0 {
				next = dt * math.Min(r.maxScale, r.safety*math.Pow(ratio, -0.2))
			}
			return newX, dt, next, nil
		}

		dt *= math.Max(r.minScale, r.safety*math.Pow(ratio, -0.25))
		if math.Abs(dt) < r.minDt {
			return nil, 0, 0, fmt.Errorf("%w: t=%.6f", dynamo.ErrStepTooSmall, t)
		}
	}
}

// estimate returns the fifth-order solution and the largest error relative
// to |x| + |dt k1|.
func (r *RK45) estimate(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) (dynamo.State, float64) {
	tab := r.tab
	k := r.stages(dyn, x, u, t, dt)
	high := combine(x, k, tab.B, dt)
	low := combine(x, k, tab.BHat, dt)

	errMax := 0.0
	for i := range x {
		scale := math.Abs(x[i]) + math.Abs(dt*k[0][i]) + 1e-10
		errMax = math.Max(errMax, math.Abs(high[i]-low[i])/scale)
	}
	return high, errMax
}
