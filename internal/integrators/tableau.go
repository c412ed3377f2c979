package integrators

import (
	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/matdyn/internal/dynamo"
)

// Tableau is an explicit Runge-Kutta Butcher tableau. A is strictly lower
// triangular; BHat, when set, is the embedded lower-order solution used for
// error estimates.
type Tableau struct {
	Name  string
	Order int
	A     [][]float64
	B     []float64
	C     []float64
	BHat  []float64
}

// Explicit steps any explicit tableau. It holds no buffers between steps and
// is safe for concurrent use.
type Explicit struct {
	tab Tableau
}

func NewExplicit(tab Tableau) *Explicit { return &Explicit{tab: tab} }

func (e *Explicit) Tableau() Tableau { return e.tab }

func (e *Explicit) Step(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) dynamo.State {
	k := e.stages(dyn, x, u, t, dt)
	return combine(x, k, e.tab.B, dt)
}

// stages evaluates k_i = f(x + dt Σ a_ij k_j, t + c_i dt).
func (e *Explicit) stages(dyn dynamo.System, x dynamo.State, u dynamo.Control, t, dt float64) [][]float64 {
	k := make([][]float64, len(e.tab.B))
	k[0] = dyn.Derive(x, u, t)
	for i := 1; i < len(k); i++ {
		k[i] = dyn.Derive(combine(x, k[:i], e.tab.A[i], dt), u, t+e.tab.C[i]*dt)
	}
	return k
}

// combine returns x + dt Σ w_j k_j over the first len(k) weights.
func combine(x dynamo.State, k [][]float64, w []float64, dt float64) dynamo.State {
	out := x.Clone()
	for j, kj := range k {
		if j < len(w) && w[j] != 0 {
			floats.AddScaled(out, dt*w[j], kj)
		}
	}
	return out
}

var eulerTableau = Tableau{
	Name:  "euler",
	Order: 1,
	A:     [][]float64{{}},
	B:     []float64{1},
	C:     []float64{0},
}

var heunTableau = Tableau{
	Name:  "heun",
	Order: 2,
	A:     [][]float64{{}, {1}},
	B:     []float64{0.5, 0.5},
	C:     []float64{0, 1},
}

var rk4Tableau = Tableau{
	Name:  "rk4",
	Order: 4,
	A: [][]float64{
		{},
		{0.5},
		{0, 0.5},
		{0, 0, 1},
	},
	B: []float64{1.0 / 6, 1.0 / 3, 1.0 / 3, 1.0 / 6},
	C: []float64{0, 0.5, 0.5, 1},
}

func NewEuler() *Explicit { return NewExplicit(eulerTableau) }
func NewHeun() *Explicit  { return NewExplicit(heunTableau) }
func NewRK4() *Explicit   { return NewExplicit(rk4Tableau) }
