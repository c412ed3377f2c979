package metrics

import (
	"math"

	"github.com/san-kum/matdyn/internal/dynamo"
)

// ControlEffort is the time average of ‖u‖₂ over the observed span, using
// the same left rectangle rule as QuadraticCost.
type ControlEffort struct {
	integral     float64
	start, prevT float64
	prevNorm     float64
	seen         bool
}

func NewControlEffort() *ControlEffort { return &ControlEffort{} }

func (c *ControlEffort) Name() string { return "control_effort" }

func (c *ControlEffort) Observe(_ dynamo.State, u dynamo.Control, t float64) {
	var sq float64
	for _, v := range u {
		sq += v * v
	}
	if !c.seen {
		c.start = t
	} else {
		c.integral += c.prevNorm * math.Abs(t-c.prevT)
	}
	c.prevT, c.prevNorm, c.seen = t, math.Sqrt(sq), true
}

func (c *ControlEffort) Value() float64 {
	span := math.Abs(c.prevT - c.start)
	if span == 0 {
		return 0
	}
	return c.integral / span
}

func (c *ControlEffort) Reset() { *c = ControlEffort{} }
