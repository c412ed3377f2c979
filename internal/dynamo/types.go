package dynamo

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

type State []float64

func (s State) Clone() State {
	c := make(State, len(s))
	copy(c, s)
	return c
}

// IsValid reports whether every entry is finite.
func (s State) IsValid() bool {
	for _, v := range s {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func (s State) Norm() float64 { return floats.Norm(s, 2) }

// Sub returns s - other. Entries of s beyond len(other) are kept.
func (s State) Sub(other State) State {
	out := s.Clone()
	n := min(len(s), len(other))
	floats.Sub(out[:n], other[:n])
	return out
}

type Control []float64

// System is a vector-form ODE dX/dt = f(X, u, t).
type System interface {
	Derive(x State, u Control, t float64) State
	StateDim() int
	ControlDim() int
}

type Integrator interface {
	Step(dyn System, x State, u Control, t float64, dt float64) State
}

type AdaptiveIntegrator interface {
	Integrator
	// StepAdaptive retries internally until the local error is within tol and
	// returns the accepted state, the step taken and a proposed next step.
	StepAdaptive(dyn System, x State, u Control, t, dt, tol float64) (State, float64, float64, error)
}

type Controller interface {
	Compute(x State, t float64) Control
}

type Observer interface {
	OnStep(x State, u Control, t float64)
}

// Config drives a run starting at T0 and covering Duration. A negative Dt
// integrates backward from T0 to T0-Duration.
type Config struct {
	Dt            float64 `yaml:"dt"`
	Duration      float64 `yaml:"duration"`
	T0            float64 `yaml:"t0"`
	Tolerance     float64 `yaml:"tolerance"`
	MaxDt         float64 `yaml:"max_dt"`
	MinDt         float64 `yaml:"min_dt"`
	Adaptive      bool    `yaml:"adaptive"`
	ValidateState bool    `yaml:"validate_state"`
}

func DefaultConfig() Config {
	return Config{
		Dt:            0.01,
		Duration:      10.0,
		Tolerance:     1e-6,
		MaxDt:         0.1,
		MinDt:         1e-8,
		Adaptive:      false,
		ValidateState: true,
	}
}

type Result struct {
	States     []State
	Controls   []Control
	Times      []float64
	StepsTaken int
	Errors     []error
}

// Chronological returns the run with times increasing. Forward runs are
// returned as is; backward runs are reversed into a copy.
func (r *Result) Chronological() *Result {
	n := len(r.Times)
	if n < 2 || r.Times[0] < r.Times[n-1] {
		return r
	}
	out := &Result{
		States:     make([]State, n),
		Times:      make([]float64, n),
		StepsTaken: r.StepsTaken,
		Errors:     r.Errors,
	}
	for i := 0; i < n; i++ {
		out.Times[i] = r.Times[n-1-i]
		out.States[i] = r.States[n-1-i]
	}
	if len(r.Controls) > 0 {
		out.Controls = make([]Control, len(r.Controls))
		for i := range r.Controls {
			out.Controls[i] = r.Controls[len(r.Controls)-1-i]
		}
	}
	return out
}

type SimError struct {
	Time    float64
	Step    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("step %d (t=%.4f): %s", e.Step, e.Time, e.Message)
}
