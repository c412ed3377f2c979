package metrics

import (
	"math"

	"github.com/san-kum/matdyn/internal/dynamo"
)

// Stability is the fraction of observed steps whose state is finite and
// bounded by threshold in every entry.
type Stability struct {
	threshold float64
	bad, n    int
	firstBad  float64
}

func NewStability(threshold float64) *Stability {
	return &Stability{threshold: threshold}
}

func (s *Stability) Name() string { return "stability" }

func (s *Stability) Observe(x dynamo.State, _ dynamo.Control, t float64) {
	s.n++
	if bounded(x, s.threshold) {
		return
	}
	if s.bad == 0 {
		s.firstBad = t
	}
	s.bad++
}

func bounded(x dynamo.State, threshold float64) bool {
	for _, v := range x {
		if math.IsNaN(v) || math.Abs(v) > threshold {
			return false
		}
	}
	return true
}

func (s *Stability) Value() float64 {
	if s.n == 0 {
		return 1
	}
	return 1 - float64(s.bad)/float64(s.n)
}

// Diverged reports the time of the first out-of-bound step.
func (s *Stability) Diverged() (float64, bool) { return s.firstBad, s.bad > 0 }

func (s *Stability) Reset() { *s = Stability{threshold: s.threshold} }
