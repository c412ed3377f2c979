package experiment

import "github.com/san-kum/matdyn/internal/dynamo"

// timeReversal is dx/ds = -f(x, u, end-s), so that integrating s forward
// from zero walks t = end-s backward.
type timeReversal struct {
	sys dynamo.System
	end float64
}

func (r *timeReversal) time(s float64) float64 { return r.end - s }

func (r *timeReversal) StateDim() int   { return r.sys.StateDim() }
func (r *timeReversal) ControlDim() int { return r.sys.ControlDim() }

func (r *timeReversal) Derive(x dynamo.State, u dynamo.Control, s float64) dynamo.State {
	dx := r.sys.Derive(x, u, r.time(s))
	for i := range dx {
		dx[i] = -dx[i]
	}
	return dx
}

func (r *timeReversal) observer(o dynamo.Observer) dynamo.Observer {
	return reversedObserver{o: o, r: r}
}

type reversedObserver struct {
	o dynamo.Observer
	r *timeReversal
}

func (ro reversedObserver) OnStep(x dynamo.State, u dynamo.Control, s float64) {
	ro.o.OnStep(x, u, ro.r.time(s))
}
