package vectorize

import (
	"fmt"

	"github.com/san-kum/matdyn/internal/symbolic"
	"gonum.org/v1/gonum/mat"
)

// Layout is the persisted form of a Mapping: the unique entry names and the
// row-major index grid.
type Layout struct {
	Rows  int      `json:"rows" yaml:"rows"`
	Cols  int      `json:"cols" yaml:"cols"`
	Names []string `json:"names" yaml:"names"`
	Index []int    `json:"index" yaml:"index"`
}

func (l Layout) Validate() error {
	if l.Rows <= 0 || l.Cols <= 0 {
		return fmt.Errorf("%w: invalid shape %dx%d", symbolic.ErrDimensionMismatch, l.Rows, l.Cols)
	}
	if len(l.Index) != l.Rows*l.Cols {
		return fmt.Errorf("%w: %d indices for %dx%d", symbolic.ErrDimensionMismatch, len(l.Index), l.Rows, l.Cols)
	}
	for p, idx := range l.Index {
		if idx != Zero && (idx < 0 || idx >= len(l.Names)) {
			return fmt.Errorf("%w: index %d at (%d,%d) outside %d unique entries", ErrLookup, idx, p/l.Cols, p%l.Cols, len(l.Names))
		}
	}
	return nil
}

// Scatter fills dst (row-major, Rows*Cols) from the unique-entry values in vec.
func (l Layout) Scatter(dst, vec []float64) {
	for p, idx := range l.Index {
		if idx == Zero {
			dst[p] = 0
			continue
		}
		dst[p] = vec[idx]
	}
}

// Dense reconstructs the matrix for one vector of unique-entry values.
func (l Layout) Dense(vec []float64) *mat.Dense {
	data := make([]float64, l.Rows*l.Cols)
	l.Scatter(data, vec)
	return mat.NewDense(l.Rows, l.Cols, data)
}

// Gather reads d into vector form.
func (l Layout) Gather(d mat.Matrix) ([]float64, error) {
	r, c := d.Dims()
	if r != l.Rows || c != l.Cols {
		return nil, fmt.Errorf("%w: got %dx%d, layout is %dx%d", symbolic.ErrDimensionMismatch, r, c, l.Rows, l.Cols)
	}
	vec := make([]float64, len(l.Names))
	for p, idx := range l.Index {
		if idx == Zero {
			continue
		}
		vec[idx] = d.At(p/l.Cols, p%l.Cols)
	}
	return vec, nil
}

// Positions returns the row-major positions that read unique entry idx.
func (l Layout) Positions(idx int) [][2]int {
	var out [][2]int
	for p, v := range l.Index {
		if v == idx {
			out = append(out, [2]int{p / l.Cols, p % l.Cols})
		}
	}
	return out
}
