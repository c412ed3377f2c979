// Package metrics accumulates scalar summaries of a run while it steps.
package metrics

import "github.com/san-kum/matdyn/internal/dynamo"

type Metric interface {
	Name() string
	Observe(x dynamo.State, u dynamo.Control, t float64)
	Value() float64
	Reset()
}

// Set feeds every metric from the simulator's observer hook.
type Set []Metric

var _ dynamo.Observer = Set(nil)

func (s Set) OnStep(x dynamo.State, u dynamo.Control, t float64) {
	for _, m := range s {
		m.Observe(x, u, t)
	}
}

func (s Set) Values() map[string]float64 {
	out := make(map[string]float64, len(s))
	for _, m := range s {
		out[m.Name()] = m.Value()
	}
	return out
}
