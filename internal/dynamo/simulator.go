package dynamo

import (
	"context"
	"fmt"
	"math"
)

type Simulator struct {
	dyn        System
	integrator Integrator
	controller Controller
	observers  []Observer
}

// New builds a simulator. A nil controller applies a zero control of the
// system's control dimension.
func New(dyn System, integrator Integrator, controller Controller) *Simulator {
	if controller == nil {
		controller = zeroControl(dyn.ControlDim())
	}
	return &Simulator{
		dyn:        dyn,
		integrator: integrator,
		controller: controller,
		observers:  make([]Observer, 0),
	}
}

func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

type zeroControl int

func (z zeroControl) Compute(State, float64) Control { return make(Control, int(z)) }

func (s *Simulator) Run(ctx context.Context, x0 State, cfg Config) (*Result, error) {
	if err := s.validate(x0, cfg); err != nil {
		return nil, err
	}

	steps := int(math.Round(cfg.Duration / math.Abs(cfg.Dt)))
	result := &Result{
		States:   make([]State, 0, steps+1),
		Controls: make([]Control, 0, steps),
		Times:    make([]float64, 0, steps+1),
		Errors:   make([]error, 0),
	}

	x := x0.Clone()
	t := cfg.T0
	dt := cfg.Dt
	end := cfg.T0 + math.Copysign(cfg.Duration, cfg.Dt)

	result.States = append(result.States, x.Clone())
	result.Times = append(result.Times, t)

	for i := 0; ; i++ {
		if cfg.Adaptive {
			if t >= end-1e-12 {
				break
			}
			dt = math.Min(dt, end-t)
		} else if i >= steps {
			break
		}

		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		u := s.controller.Compute(x, t)
		for _, obs := range s.observers {
			obs.OnStep(x, u, t)
		}

		var newX State
		used := dt
		if cfg.Adaptive {
			var next float64
			var err error
			newX, used, next, err = s.adaptiveStep(x, u, t, dt, cfg)
			if err != nil {
				result.Errors = append(result.Errors, err)
				return result, err
			}
			dt = next
		} else {
			newX = s.integrator.Step(s.dyn, x, u, t, dt)
		}

		if cfg.ValidateState && !newX.IsValid() {
			err := SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"}
			result.Errors = append(result.Errors, err)
			return result, fmt.Errorf("%w: %v", ErrInvalidState, err)
		}

		x = newX
		if cfg.Adaptive {
			t += used
		} else {
			t = cfg.T0 + float64(i+1)*cfg.Dt
		}
		result.StepsTaken++

		result.States = append(result.States, x.Clone())
		result.Controls = append(result.Controls, u)
		result.Times = append(result.Times, t)
	}

	return result, nil
}

func (s *Simulator) validate(x0 State, cfg Config) error {
	if cfg.Dt == 0 || math.IsNaN(cfg.Dt) {
		return fmt.Errorf("%w: dt must be nonzero, got %f", ErrInvalidConfig, cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("%w: duration must be positive, got %f", ErrInvalidConfig, cfg.Duration)
	}
	if cfg.Adaptive && cfg.Tolerance <= 0 {
		return fmt.Errorf("%w: tolerance must be positive for adaptive stepping", ErrInvalidConfig)
	}
	if cfg.Adaptive && cfg.Dt < 0 {
		return fmt.Errorf("%w: adaptive stepping runs forward in time only", ErrInvalidConfig)
	}
	if len(x0) != s.dyn.StateDim() {
		return fmt.Errorf("%w: x0 has %d entries, system has %d", ErrDimensionMismatch, len(x0), s.dyn.StateDim())
	}
	return nil
}

// adaptiveStep returns the new state, the step actually taken and the
// proposed next step.
func (s *Simulator) adaptiveStep(x State, u Control, t, dt float64, cfg Config) (State, float64, float64, error) {
	if adaptive, ok := s.integrator.(AdaptiveIntegrator); ok {
		newX, taken, next, err := adaptive.StepAdaptive(s.dyn, x, u, t, dt, cfg.Tolerance)
		if err != nil {
			return nil, 0, 0, err
		}
		return newX, taken, clampDt(next, cfg), nil
	}

	for {
		x1 := s.integrator.Step(s.dyn, x, u, t, dt)
		xHalf := s.integrator.Step(s.dyn, x, u, t, dt/2)
		x2 := s.integrator.Step(s.dyn, xHalf, u, t+dt/2, dt/2)

		errNorm := x1.Sub(x2).Norm()
		if errNorm > cfg.Tolerance {
			if dt/2 < cfg.MinDt {
				return nil, 0, 0, fmt.Errorf("%w: t=%.6f", ErrStepTooSmall, t)
			}
			dt /= 2
			continue
		}

		next := dt
		if errNorm < cfg.Tolerance/10 {
			next = dt * 2
		}
		return x2, dt, clampDt(next, cfg), nil
	}
}

func clampDt(dt float64, cfg Config) float64 {
	if cfg.MaxDt > 0 && dt > cfg.MaxDt {
		return cfg.MaxDt
	}
	if dt < cfg.MinDt {
		return cfg.MinDt
	}
	return dt
}
