package symbolic

import (
	"sort"
)

// Rule replaces every occurrence of From with To.
type Rule struct {
	From Expr
	To   Expr
}

// Substitution is an ordered rule list. At each node the first rule whose
// From equals the node wins; replacements are not rescanned.
type Substitution []Rule

func (s Substitution) lookup(e Expr) (Expr, bool) {
	if len(s) == 0 {
		return nil, false
	}
	k := e.key()
	for _, r := range s {
		if r.From != nil && r.From.key() == k {
			return r.To, true
		}
	}
	return nil, false
}

func (s Substitution) apply(e Expr, rebuild func() Expr) Expr {
	if to, ok := s.lookup(e); ok {
		return to
	}
	return rebuild()
}

// Map returns the rules keyed by source expression. Later duplicates of a
// source are dropped, matching lookup order.
func (s Substitution) Map() map[Expr]Expr {
	out := make(map[Expr]Expr, len(s))
	seen := make(map[string]struct{}, len(s))
	for _, r := range s {
		k := r.From.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out[r.From] = r.To
	}
	return out
}

// FromMap builds a Substitution ordered by source key so the result does not
// depend on map iteration order.
func FromMap(m map[Expr]Expr) Substitution {
	out := make(Substitution, 0, len(m))
	for from, to := range m {
		out = append(out, Rule{From: from, To: to})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From.key() < out[j].From.key() })
	return out
}

// Values binds each symbol to a constant.
func Values(env Env) Substitution {
	m := make(map[Expr]Expr, len(env))
	for s, v := range env {
		m[s] = Const(v)
	}
	return FromMap(m)
}
