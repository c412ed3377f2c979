package models

import (
	"fmt"
	"sort"
)

type Factory func(Params) (*Problem, error)

type Registry struct {
	problems map[string]Factory
}

func NewRegistry() *Registry {
	r := &Registry{problems: make(map[string]Factory)}

	r.problems["riccati"] = func(p Params) (*Problem, error) { return Riccati(p.A, p.B, p.Q, p.R) }
	r.problems["lyapunov"] = func(p Params) (*Problem, error) { return Lyapunov(p.A, p.Q) }
	r.problems["linear"] = func(p Params) (*Problem, error) { return Linear(p.A) }

	return r
}

func (r *Registry) Register(name string, f Factory) { r.problems[name] = f }

func (r *Registry) Get(name string, p Params) (*Problem, error) {
	fn, ok := r.problems[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownProblem, name)
	}
	return fn(p)
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.problems))
	for name := range r.problems {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
