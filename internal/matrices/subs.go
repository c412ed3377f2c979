package matrices

import (
	"fmt"

	"github.com/san-kum/matdyn/internal/symbolic"
)

// Pair replaces each entry of From with the entry of To at the same position.
type Pair struct {
	From *symbolic.Matrix
	To   *symbolic.Matrix
}

// Subs flattens a single matrix-level substitution.
func Subs(from, to *symbolic.Matrix) (symbolic.Substitution, error) {
	return SubsPairs(Pair{From: from, To: to})
}

// SubsPairs flattens pairs into one rule per position, in pair order then
// row-major order. Positions whose source entry is zero are skipped.
func SubsPairs(pairs ...Pair) (symbolic.Substitution, error) {
	var out symbolic.Substitution
	for k, p := range pairs {
		if p.From == nil || p.To == nil {
			return nil, fmt.Errorf("%w: pair %d has a nil matrix", ErrDimensionMismatch, k)
		}
		fr, fc := p.From.Dims()
		tr, tc := p.To.Dims()
		if fr != tr || fc != tc {
			return nil, fmt.Errorf("%w: pair %d maps %dx%d to %dx%d", ErrDimensionMismatch, k, fr, fc, tr, tc)
		}
		for i := 0; i < fr; i++ {
			for j := 0; j < fc; j++ {
				src := p.From.At(i, j)
				if src.IsZero() {
					continue
				}
				out = append(out, symbolic.Rule{From: src, To: p.To.At(i, j)})
			}
		}
	}
	return out, nil
}

// SubsMap flattens keyed matrix pairs into a map from source entry to
// replacement entry.
func SubsMap(m map[*symbolic.Matrix]*symbolic.Matrix) (map[symbolic.Expr]symbolic.Expr, error) {
	pairs := make([]Pair, 0, len(m))
	for from, to := range m {
		pairs = append(pairs, Pair{From: from, To: to})
	}
	rules, err := SubsPairs(pairs...)
	if err != nil {
		return nil, err
	}
	out := make(map[symbolic.Expr]symbolic.Expr, len(rules))
	for _, r := range rules {
		out[r.From] = r.To
	}
	return out, nil
}
