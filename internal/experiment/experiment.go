// Package experiment runs a configured matrix problem end to end: build the
// vector-form system, integrate it and wrap the samples as a matrix
// trajectory.
package experiment

import (
	"context"
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/san-kum/matdyn/internal/config"
	"github.com/san-kum/matdyn/internal/control"
	"github.com/san-kum/matdyn/internal/dynamo"
	"github.com/san-kum/matdyn/internal/integrators"
	"github.com/san-kum/matdyn/internal/metrics"
	"github.com/san-kum/matdyn/internal/models"
	"github.com/san-kum/matdyn/internal/systems"
	"github.com/san-kum/matdyn/internal/trajectory"
	"github.com/san-kum/matdyn/internal/vectorize"
)

// ErrNoPlant is returned by ClosedLoop for problems without input matrices.
var ErrNoPlant = errors.New("experiment: problem has no controlled plant")

// divergence bounds the stability metric of matrix runs.
const divergence = 1e6

type Experiment struct {
	cfg       *config.Config
	problem   *models.Problem
	system    *systems.DynamicalSystem
	compiled  *systems.Compiled
	observers []dynamo.Observer
}

func New(cfg *config.Config, reg *models.Registry) (*Experiment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	params, err := cfg.Params()
	if err != nil {
		return nil, err
	}
	problem, err := reg.Get(cfg.Problem, params)
	if err != nil {
		return nil, err
	}

	var opts []systems.Option
	if cfg.Strict {
		opts = append(opts, systems.Strict())
	}
	sys, err := problem.System(opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", problem.Name, err)
	}
	compiled, err := sys.Compile()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", problem.Name, err)
	}

	return &Experiment{cfg: cfg, problem: problem, system: sys, compiled: compiled}, nil
}

func (e *Experiment) Problem() *models.Problem         { return e.problem }
func (e *Experiment) System() *systems.DynamicalSystem { return e.system }
func (e *Experiment) Layout() vectorize.Layout         { return e.system.Mapping.Layout() }

func (e *Experiment) AddObserver(o dynamo.Observer) { e.observers = append(e.observers, o) }

// Outcome is a finished matrix run in increasing time order.
type Outcome struct {
	Result   *dynamo.Result
	Callable *trajectory.MatrixCallable
	Layout   vectorize.Layout
	Metrics  map[string]float64
	Backward bool

	// Loop is set by RunAll when a closed-loop run was made.
	Loop *LoopOutcome
}

// Run integrates from P0 over [0, duration]. Backward problems start from
// P0 at t = duration and step toward zero.
func (e *Experiment) Run(ctx context.Context) (*Outcome, error) {
	p0, err := e.cfg.InitialMatrix(e.problem.Dim())
	if err != nil {
		return nil, err
	}
	x0, err := e.problem.Initial(p0)
	if err != nil {
		return nil, fmt.Errorf("initial condition: %w", err)
	}
	integrator, err := integrators.New(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}

	simCfg := dynamo.DefaultConfig()
	simCfg.Dt = e.cfg.Dt
	simCfg.Duration = e.cfg.Duration
	simCfg.Adaptive = e.cfg.Adaptive
	simCfg.Tolerance = e.cfg.Tolerance

	stability := metrics.Set{metrics.NewStability(divergence)}
	observers := append([]dynamo.Observer{stability}, e.observers...)

	var dyn dynamo.System = e.compiled
	var reversed *timeReversal
	switch {
	case e.problem.Backward && e.cfg.Adaptive:
		// Adaptive steppers only move forward, so integrate the
		// time-reversed system and map times back afterwards.
		reversed = &timeReversal{sys: e.compiled, end: e.cfg.Duration}
		dyn = reversed
		for i, o := range observers {
			observers[i] = reversed.observer(o)
		}
	case e.problem.Backward:
		simCfg.T0 = e.cfg.Duration
		simCfg.Dt = -e.cfg.Dt
	}

	sim := dynamo.New(dyn, integrator, nil)
	for _, o := range observers {
		sim.AddObserver(o)
	}
	result, err := sim.Run(ctx, dynamo.State(x0), simCfg)
	if err != nil {
		return nil, err
	}
	if reversed != nil {
		for i, s := range result.Times {
			result.Times[i] = reversed.time(s)
		}
	}
	result = result.Chronological()

	layout := e.Layout()
	samples := mat.NewDense(len(result.States), len(layout.Names), nil)
	for i, x := range result.States {
		samples.SetRow(i, x)
	}
	callable, err := trajectory.FromLayout(result.Times, samples, layout,
		trajectory.WithMethod(trajectory.Method(e.cfg.Interpolation)))
	if err != nil {
		return nil, err
	}

	return &Outcome{Result: result, Callable: callable, Layout: layout, Metrics: stability.Values(), Backward: e.problem.Backward}, nil
}

// LoopOutcome is a closed-loop plant run under the time-varying regulator.
type LoopOutcome struct {
	Result  *dynamo.Result
	Metrics map[string]float64
}

// ClosedLoop drives dx/dt = Ax + Bu from X0 across p's span with
// u = -R⁻¹BᵀP(t)x, using fixed steps of the configured size. Observers
// added with AddObserver see only the matrix run.
func (e *Experiment) ClosedLoop(ctx context.Context, p *trajectory.MatrixCallable) (*LoopOutcome, error) {
	return e.ClosedLoopFrom(ctx, p, e.cfg.X0)
}

// ClosedLoopFrom is ClosedLoop started at x0. It is safe to call
// concurrently with a shared p.
func (e *Experiment) ClosedLoopFrom(ctx context.Context, p *trajectory.MatrixCallable, x0 []float64) (*LoopOutcome, error) {
	params := e.problem.Params
	if params.A == nil || params.B == nil || params.R == nil {
		return nil, fmt.Errorf("%w: %s", ErrNoPlant, e.problem.Name)
	}
	n := e.problem.Dim()
	if len(x0) != n {
		return nil, fmt.Errorf("%w: x0 has %d entries, plant has %d", dynamo.ErrDimensionMismatch, len(x0), n)
	}

	regulator, err := control.NewTimeVaryingLQR(p, params.B, params.R, make(dynamo.State, n))
	if err != nil {
		return nil, err
	}
	integrator, err := integrators.New(e.cfg.Integrator)
	if err != nil {
		return nil, err
	}

	t0, t1 := p.Span()
	simCfg := dynamo.DefaultConfig()
	simCfg.Dt = e.cfg.Dt
	simCfg.T0 = t0
	simCfg.Duration = t1 - t0

	set := metrics.Set{
		metrics.NewQuadraticCost(params.Q, params.R),
		metrics.NewControlEffort(),
	}
	sim := dynamo.New(control.NewLinearPlant(params.A, params.B), integrator, regulator)
	sim.AddObserver(set)

	result, err := sim.Run(ctx, dynamo.State(x0).Clone(), simCfg)
	if err != nil {
		return nil, err
	}
	return &LoopOutcome{Result: result, Metrics: set.Values()}, nil
}

// RunAll runs the matrix problem and, when X0 is configured and the problem
// has a plant, the closed loop on top of it. Loop metrics are merged into
// the outcome.
func (e *Experiment) RunAll(ctx context.Context) (*Outcome, error) {
	out, err := e.Run(ctx)
	if err != nil {
		return nil, err
	}
	if len(e.cfg.X0) == 0 {
		return out, nil
	}
	loop, err := e.ClosedLoop(ctx, out.Callable)
	switch {
	case errors.Is(err, ErrNoPlant):
		return out, nil
	case err != nil:
		return nil, err
	}
	for name, v := range loop.Metrics {
		out.Metrics[name] = v
	}
	out.Loop = loop
	return out, nil
}
