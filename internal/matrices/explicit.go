package matrices

import (
	"fmt"

	"github.com/san-kum/matdyn/internal/symbolic"
	"github.com/san-kum/matdyn/internal/vectorize"
)

type options struct {
	symmetric   bool
	diagonal    bool
	dynamic     bool
	assumptions []string
}

type Option func(*options)

// Symmetric aliases every entry below the diagonal to its mirror above it.
func Symmetric() Option { return func(o *options) { o.symmetric = true } }

// Diagonal zeroes every off-diagonal entry. It takes precedence over Symmetric.
func Diagonal() Option { return func(o *options) { o.diagonal = true } }

// Dynamic creates time-dependent unknowns.
func Dynamic() Option { return func(o *options) { o.dynamic = true } }

// WithAssumptions forwards tags to every created symbol.
func WithAssumptions(tags ...string) Option {
	return func(o *options) { o.assumptions = append(o.assumptions, tags...) }
}

// Structured is a symbolic matrix together with the index of the unique
// unknown stored at each position. Aliased positions share an index;
// structural zeros have index -1.
type Structured struct {
	matrix  *symbolic.Matrix
	mapping *vectorize.Mapping
}

// Explicit builds an n x m matrix of unknowns named name_<row><col>, 1-indexed.
// The digits are concatenated, so names are only unambiguous for n, m < 10.
func Explicit(name string, n, m int, opts ...Option) (*Structured, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if n <= 0 || m <= 0 {
		return nil, fmt.Errorf("%w: invalid shape %dx%d", ErrDimensionMismatch, n, m)
	}
	if n != m && (o.diagonal || o.symmetric) {
		return nil, fmt.Errorf("%w: got %dx%d", ErrInvalidConfig, n, m)
	}

	newSymbol := symbolic.NewSymbol
	if o.dynamic {
		newSymbol = symbolic.NewDynamicSymbol
	}
	entry := func(i, j int) symbolic.Symbol {
		return newSymbol(fmt.Sprintf("%s_%d%d", name, i+1, j+1), o.assumptions...)
	}

	var mtx *symbolic.Matrix
	if o.diagonal {
		diag := make([]symbolic.Expr, n)
		for i := range diag {
			diag[i] = entry(i, i)
		}
		mtx = symbolic.Diag(diag...)
	} else {
		mtx = symbolic.Zeros(n, m)
		for i := 0; i < n; i++ {
			for j := 0; j < m; j++ {
				if o.symmetric && i > j {
					mtx.Set(i, j, mtx.At(j, i))
					continue
				}
				mtx.Set(i, j, entry(i, j))
			}
		}
	}
	return &Structured{matrix: mtx, mapping: vectorize.Of(mtx)}, nil
}

// Matrix returns a copy of the symbolic grid.
func (s *Structured) Matrix() *symbolic.Matrix { return s.matrix.Clone() }

func (s *Structured) Mapping() *vectorize.Mapping { return s.mapping }
func (s *Structured) Dims() (int, int)            { return s.matrix.Dims() }
func (s *Structured) At(i, j int) symbolic.Expr   { return s.matrix.At(i, j) }

// IndexAt returns the unique-unknown index stored at (i, j), or -1 for a structural zero.
func (s *Structured) IndexAt(i, j int) int { return s.mapping.Index(i, j) }

// Unknowns lists the distinct unknowns in row-major first-seen order.
func (s *Structured) Unknowns() []symbolic.Symbol {
	uniq := s.mapping.Unique()
	out := make([]symbolic.Symbol, len(uniq))
	for i, e := range uniq {
		out[i] = e.(symbolic.Symbol)
	}
	return out
}
