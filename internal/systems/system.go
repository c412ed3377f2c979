// Package systems turns a matrix differential equation into a deduplicated
// vector-form dynamical system and compiles it for numerical integration.
package systems

import (
	"errors"
	"fmt"

	"github.com/san-kum/matdyn/internal/dynamo"
	"github.com/san-kum/matdyn/internal/ndarray"
	"github.com/san-kum/matdyn/internal/symbolic"
	"github.com/san-kum/matdyn/internal/vectorize"
)

var (
	// ErrInconsistentAlias is returned in strict mode when positions sharing a
	// state unknown carry different derivative expressions.
	ErrInconsistentAlias = errors.New("systems: aliased derivative entries disagree")

	// ErrNotSymbol indicates a state or input entry that is not a plain unknown.
	ErrNotSymbol = errors.New("systems: entry is not a symbol")
)

// Time is the symbol compiled derivatives read the current time from.
var Time = symbolic.NewSymbol("t")

// DynamicalSystem is the vector-form artifact: dState/dt = Derivative, with
// optional inputs and constant substitutions.
type DynamicalSystem struct {
	State      []symbolic.Expr
	Derivative []symbolic.Expr
	Inputs     []symbolic.Expr
	Constants  symbolic.Substitution

	// Mapping relates State back to the matrix positions it came from.
	Mapping *vectorize.Mapping
}

type builder struct {
	inputs    []symbolic.Expr
	constants symbolic.Substitution
	strict    bool
}

type Option func(*builder)

func WithInputs(inputs ...symbolic.Expr) Option {
	return func(b *builder) { b.inputs = append(b.inputs, inputs...) }
}

// WithConstants appends constant substitutions applied before compilation.
func WithConstants(rules symbolic.Substitution) Option {
	return func(b *builder) { b.constants = append(b.constants, rules...) }
}

// Strict fails the build when aliased positions disagree instead of letting
// the last position in row-major order win.
func Strict() Option { return func(b *builder) { b.strict = true } }

// FromMatrixDE deduplicates matVar into the state vector and writes each
// entry of matDE into the slot of the unknown at the same position. The two
// matrices must have the same shape.
func FromMatrixDE(matDE, matVar *symbolic.Matrix, opts ...Option) (*DynamicalSystem, error) {
	b := builder{constants: symbolic.Substitution{}}
	for _, opt := range opts {
		opt(&b)
	}

	mapping := vectorize.Of(matVar)
	derivative := make([]symbolic.Expr, mapping.Len())
	for i := range derivative {
		derivative[i] = symbolic.Zero()
	}
	assigned := make([]bool, mapping.Len())

	rows, cols := matDE.Dims()
	if vr, vc := matVar.Dims(); rows != vr || cols != vc {
		return nil, fmt.Errorf("%w: derivative %dx%d, state %dx%d", vectorize.ErrLookup, rows, cols, vr, vc)
	}
	for pos := range ndarray.Iter(rows, cols) {
		i, j := pos[0], pos[1]
		idx := mapping.Index(i, j)
		entry := matDE.At(i, j)
		if idx == vectorize.Zero {
			if b.strict && !entry.IsZero() {
				return nil, fmt.Errorf("%w: nonzero derivative %s at structural zero (%d,%d)", ErrInconsistentAlias, entry, i, j)
			}
			continue
		}
		if b.strict && assigned[idx] && !derivative[idx].Equal(entry) {
			return nil, fmt.Errorf("%w: %s has %s and %s", ErrInconsistentAlias, matVar.At(i, j), derivative[idx], entry)
		}
		derivative[idx] = entry
		assigned[idx] = true
	}

	return &DynamicalSystem{
		State:      mapping.Unique(),
		Derivative: derivative,
		Inputs:     b.inputs,
		Constants:  b.constants,
		Mapping:    mapping,
	}, nil
}

// Compile binds constants and lowers every derivative entry against the
// slots [state..., inputs..., t].
func (s *DynamicalSystem) Compile() (*Compiled, error) {
	vars := make([]symbolic.Symbol, 0, len(s.State)+len(s.Inputs)+1)
	for _, e := range s.State {
		sym, ok := e.(symbolic.Symbol)
		if !ok {
			return nil, fmt.Errorf("%w: state %s", ErrNotSymbol, e)
		}
		vars = append(vars, sym)
	}
	for _, e := range s.Inputs {
		sym, ok := e.(symbolic.Symbol)
		if !ok {
			return nil, fmt.Errorf("%w: input %s", ErrNotSymbol, e)
		}
		vars = append(vars, sym)
	}
	vars = append(vars, Time)

	fns := make([]symbolic.Func, len(s.Derivative))
	for i, e := range s.Derivative {
		fn, err := symbolic.Compile(e.Subs(s.Constants), vars)
		if err != nil {
			return nil, fmt.Errorf("derivative of %s: %w", s.State[i], err)
		}
		fns[i] = fn
	}
	return &Compiled{fns: fns, nState: len(s.State), nInput: len(s.Inputs)}, nil
}

// Compiled is a dynamo.System evaluating the derivative closures. It holds
// no mutable state and is safe for concurrent use.
type Compiled struct {
	fns    []symbolic.Func
	nState int
	nInput int
}

var _ dynamo.System = (*Compiled)(nil)

func (c *Compiled) StateDim() int   { return c.nState }
func (c *Compiled) ControlDim() int { return c.nInput }

func (c *Compiled) Derive(x dynamo.State, u dynamo.Control, t float64) dynamo.State {
	vals := make([]float64, c.nState+c.nInput+1)
	copy(vals, x)
	copy(vals[c.nState:c.nState+c.nInput], u)
	vals[len(vals)-1] = t

	dx := make(dynamo.State, len(c.fns))
	for i, fn := range c.fns {
		dx[i] = fn(vals)
	}
	return dx
}
