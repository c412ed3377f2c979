// Package symbolic is a small polynomial expression kernel: named unknowns,
// constants, sums and products kept in a canonical expanded form, plus dense
// matrices of expressions.
//
// Sums and products are canonical: products are expanded over sums, factors
// and terms are sorted and like terms are merged. Two expressions that are
// equal as polynomials therefore compare [Equal] regardless of the order in
// which they were built.
package symbolic

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

var (
	// ErrUnbound indicates an expression references a symbol with no value.
	ErrUnbound = errors.New("symbolic: unbound symbol")

	// ErrDimensionMismatch indicates incompatible matrix shapes.
	ErrDimensionMismatch = errors.New("symbolic: dimension mismatch")
)

type Expr interface {
	fmt.Stringer
	Eval(env Env) (float64, error)
	Subs(s Substitution) Expr
	Equal(other Expr) bool
	IsZero() bool
	key() string
	walk(fn func(Symbol))
}

// Env binds symbols to numeric values for evaluation.
type Env map[Symbol]float64

// Key returns the canonical identity string of e. Equal expressions share a key.
func Key(e Expr) string { return e.key() }

// Symbols lists the distinct symbols of e in first-seen order.
func Symbols(e Expr) []Symbol {
	seen := make(map[Symbol]struct{})
	var out []Symbol
	e.walk(func(s Symbol) {
		if _, ok := seen[s]; ok {
			return
		}
		seen[s] = struct{}{}
		out = append(out, s)
	})
	return out
}

// Const is a numeric literal.
type Const float64

func Zero() Expr { return Const(0) }
func One() Expr  { return Const(1) }

func (c Const) String() string            { return strconv.FormatFloat(float64(c), 'g', -1, 64) }
func (c Const) Eval(Env) (float64, error) { return float64(c), nil }
func (c Const) Subs(s Substitution) Expr  { return s.apply(c, func() Expr { return c }) }
func (c Const) Equal(other Expr) bool     { o, ok := other.(Const); return ok && o == c }
func (c Const) IsZero() bool              { return c == 0 }
func (c Const) key() string               { return "c:" + c.String() }
func (c Const) walk(func(Symbol))         {}

// Symbol is a named unknown. Identity is name, kind and assumption tags, so
// Symbol values can be compared with == and used as map keys.
type Symbol struct {
	name        string
	dynamic     bool
	assumptions string
}

// NewSymbol creates a static unknown. Assumption tags are opaque labels that
// take part in identity only.
func NewSymbol(name string, assumptions ...string) Symbol {
	return Symbol{name: name, assumptions: joinTags(assumptions)}
}

// NewDynamicSymbol creates an unknown that is a function of time.
func NewDynamicSymbol(name string, assumptions ...string) Symbol {
	return Symbol{name: name, dynamic: true, assumptions: joinTags(assumptions)}
}

func joinTags(tags []string) string {
	if len(tags) == 0 {
		return ""
	}
	sorted := slices.Clone(tags)
	sort.Strings(sorted)
	return strings.Join(slices.Compact(sorted), ",")
}

func (s Symbol) Name() string  { return s.name }
func (s Symbol) Dynamic() bool { return s.dynamic }

func (s Symbol) Assumptions() []string {
	if s.assumptions == "" {
		return nil
	}
	return strings.Split(s.assumptions, ",")
}

func (s Symbol) String() string {
	if s.dynamic {
		return s.name + "(t)"
	}
	return s.name
}

func (s Symbol) Eval(env Env) (float64, error) {
	v, ok := env[s]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnbound, s)
	}
	return v, nil
}

func (s Symbol) Subs(sub Substitution) Expr { return sub.apply(s, func() Expr { return s }) }
func (s Symbol) Equal(other Expr) bool      { o, ok := other.(Symbol); return ok && o == s }
func (s Symbol) IsZero() bool               { return false }
func (s Symbol) walk(fn func(Symbol))       { fn(s) }

func (s Symbol) key() string {
	k := "s:" + strconv.Quote(s.name)
	if s.dynamic {
		k += "|d"
	}
	if s.assumptions != "" {
		k += "|" + s.assumptions
	}
	return k
}

// product is coeff * factors[0] * factors[1] ...; factors are atoms sorted by key.
type product struct {
	coeff   float64
	factors []Expr
}

func (p *product) String() string {
	parts := make([]string, len(p.factors))
	for i, f := range p.factors {
		parts[i] = f.String()
	}
	body := strings.Join(parts, "*")
	switch p.coeff {
	case 1:
		return body
	case -1:
		return "-" + body
	}
	return Const(p.coeff).String() + "*" + body
}

func (p *product) Eval(env Env) (float64, error) {
	v := p.coeff
	for _, f := range p.factors {
		fv, err := f.Eval(env)
		if err != nil {
			return 0, err
		}
		v *= fv
	}
	return v, nil
}

func (p *product) Subs(s Substitution) Expr {
	return s.apply(p, func() Expr {
		args := make([]Expr, 0, len(p.factors)+1)
		args = append(args, Const(p.coeff))
		for _, f := range p.factors {
			args = append(args, f.Subs(s))
		}
		return Mul(args...)
	})
}

func (p *product) Equal(other Expr) bool { return other != nil && p.key() == other.key() }
func (p *product) IsZero() bool          { return false }

func (p *product) key() string {
	parts := make([]string, len(p.factors))
	for i, f := range p.factors {
		parts[i] = f.key()
	}
	return "m:" + Const(p.coeff).String() + "*" + strings.Join(parts, "*")
}

func (p *product) walk(fn func(Symbol)) {
	for _, f := range p.factors {
		f.walk(fn)
	}
}

// sum holds merged terms sorted by monomial key, constant term last.
type sum struct {
	terms []Expr
}

func (a *sum) String() string {
	var sb strings.Builder
	for i, t := range a.terms {
		s := t.String()
		if i > 0 {
			if strings.HasPrefix(s, "-") {
				sb.WriteString(" - ")
				s = s[1:]
			} else {
				sb.WriteString(" + ")
			}
		}
		sb.WriteString(s)
	}
	return sb.String()
}

func (a *sum) Eval(env Env) (float64, error) {
	total := 0.0
	for _, t := range a.terms {
		v, err := t.Eval(env)
		if err != nil {
			return 0, err
		}
		total += v
	}
	return total, nil
}

func (a *sum) Subs(s Substitution) Expr {
	return s.apply(a, func() Expr {
		terms := make([]Expr, len(a.terms))
		for i, t := range a.terms {
			terms[i] = t.Subs(s)
		}
		return Add(terms...)
	})
}

func (a *sum) Equal(other Expr) bool { return other != nil && a.key() == other.key() }
func (a *sum) IsZero() bool          { return false }

func (a *sum) key() string {
	parts := make([]string, len(a.terms))
	for i, t := range a.terms {
		parts[i] = t.key()
	}
	return "a:" + strings.Join(parts, "+")
}

func (a *sum) walk(fn func(Symbol)) {
	for _, t := range a.terms {
		t.walk(fn)
	}
}

// monomial splits an atom or product into its coefficient and sorted factors.
func monomial(e Expr) (float64, []Expr) {
	switch v := e.(type) {
	case Const:
		return float64(v), nil
	case *product:
		return v.coeff, v.factors
	default:
		return 1, []Expr{e}
	}
}

func monomialKey(factors []Expr) string {
	parts := make([]string, len(factors))
	for i, f := range factors {
		parts[i] = f.key()
	}
	return strings.Join(parts, "*")
}

func makeProduct(coeff float64, factors []Expr) Expr {
	if coeff == 0 {
		return Zero()
	}
	if len(factors) == 0 {
		return Const(coeff)
	}
	sorted := slices.Clone(factors)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].key() < sorted[j].key() })
	if len(sorted) == 1 && coeff == 1 {
		return sorted[0]
	}
	return &product{coeff: coeff, factors: sorted}
}

func Add(terms ...Expr) Expr {
	type group struct {
		coeff   float64
		factors []Expr
	}
	groups := make(map[string]*group)
	var order []string
	var collect func(e Expr)
	collect = func(e Expr) {
		if s, ok := e.(*sum); ok {
			for _, t := range s.terms {
				collect(t)
			}
			return
		}
		coeff, factors := monomial(e)
		k := monomialKey(factors)
		g, ok := groups[k]
		if !ok {
			g = &group{factors: factors}
			groups[k] = g
			order = append(order, k)
		}
		g.coeff += coeff
	}
	for _, t := range terms {
		if t != nil {
			collect(t)
		}
	}

	sort.Slice(order, func(i, j int) bool {
		// constant term sorts last
		switch {
		case order[i] == "":
			return false
		case order[j] == "":
			return true
		}
		return order[i] < order[j]
	})

	out := make([]Expr, 0, len(order))
	for _, k := range order {
		g := groups[k]
		if g.coeff == 0 {
			continue
		}
		out = append(out, makeProduct(g.coeff, g.factors))
	}
	switch len(out) {
	case 0:
		return Zero()
	case 1:
		return out[0]
	}
	return &sum{terms: out}
}

// Mul multiplies its arguments, distributing over sums.
func Mul(factors ...Expr) Expr {
	type term struct {
		coeff   float64
		factors []Expr
	}
	acc := []term{{coeff: 1}}
	for _, f := range factors {
		if f == nil {
			continue
		}
		var parts []Expr
		if s, ok := f.(*sum); ok {
			parts = s.terms
		} else {
			parts = []Expr{f}
		}
		next := make([]term, 0, len(acc)*len(parts))
		for _, a := range acc {
			for _, p := range parts {
				c, fs := monomial(p)
				if c == 0 || a.coeff == 0 {
					continue
				}
				merged := make([]Expr, 0, len(a.factors)+len(fs))
				merged = append(merged, a.factors...)
				merged = append(merged, fs...)
				next = append(next, term{coeff: a.coeff * c, factors: merged})
			}
		}
		acc = next
		if len(acc) == 0 {
			return Zero()
		}
	}
	out := make([]Expr, len(acc))
	for i, t := range acc {
		out[i] = makeProduct(t.coeff, t.factors)
	}
	return Add(out...)
}

func Neg(e Expr) Expr    { return Mul(Const(-1), e) }
func Sub(a, b Expr) Expr { return Add(a, Neg(b)) }

// Scale multiplies e by a numeric factor.
func Scale(c float64, e Expr) Expr { return Mul(Const(c), e) }
