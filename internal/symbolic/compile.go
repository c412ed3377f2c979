package symbolic

import "fmt"

// Func evaluates a compiled expression against positional values.
type Func func(vals []float64) float64

// Compile lowers e to a closure reading symbol values from the slot given by
// their position in vars. Every symbol in e must appear in vars.
func Compile(e Expr, vars []Symbol) (Func, error) {
	slots := make(map[Symbol]int, len(vars))
	for i, v := range vars {
		if _, ok := slots[v]; !ok {
			slots[v] = i
		}
	}
	return compile(e, slots)
}

func compile(e Expr, slots map[Symbol]int) (Func, error) {
	switch v := e.(type) {
	case Const:
		c := float64(v)
		return func([]float64) float64 { return c }, nil
	case Symbol:
		i, ok := slots[v]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnbound, v)
		}
		return func(vals []float64) float64 { return vals[i] }, nil
	case *product:
		fs := make([]Func, len(v.factors))
		for i, f := range v.factors {
			cf, err := compile(f, slots)
			if err != nil {
				return nil, err
			}
			fs[i] = cf
		}
		coeff := v.coeff
		return func(vals []float64) float64 {
			r := coeff
			for _, f := range fs {
				r *= f(vals)
			}
			return r
		}, nil
	case *sum:
		ts := make([]Func, len(v.terms))
		for i, t := range v.terms {
			ct, err := compile(t, slots)
			if err != nil {
				return nil, err
			}
			ts[i] = ct
		}
		return func(vals []float64) float64 {
			r := 0.0
			for _, t := range ts {
				r += t(vals)
			}
			return r
		}, nil
	}
	return nil, fmt.Errorf("symbolic: cannot compile %T", e)
}
