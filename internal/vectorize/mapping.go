// Package vectorize maps a structured symbolic matrix to the ordered list of
// its distinct entries and back.
//
// A [Mapping] is built by walking the matrix row-major and assigning each
// entry the next free index the first time it is seen. The per-position index
// array is the mapping: aliased positions share an index, zero entries are
// structural and carry index -1.
package vectorize

import (
	"errors"
	"fmt"

	"github.com/san-kum/matdyn/internal/symbolic"
	"gonum.org/v1/gonum/mat"
)

// ErrLookup indicates a matrix entry with no counterpart in the unique sequence.
var ErrLookup = errors.New("vectorize: entry not found in unique sequence")

// Zero marks a structural-zero position in an index grid.
const Zero = -1

type Mapping struct {
	rows, cols int
	unique     []symbolic.Expr
	index      []int
	slots      map[string]int
}

// Of deduplicates m in row-major first-seen order. Zero entries are not unknowns.
func Of(m *symbolic.Matrix) *Mapping {
	rows, cols := m.Dims()
	mp := &Mapping{
		rows:  rows,
		cols:  cols,
		index: make([]int, rows*cols),
		slots: make(map[string]int),
	}
	for p, e := range m.Flatten() {
		if e.IsZero() {
			mp.index[p] = Zero
			continue
		}
		k := symbolic.Key(e)
		idx, ok := mp.slots[k]
		if !ok {
			idx = len(mp.unique)
			mp.slots[k] = idx
			mp.unique = append(mp.unique, e)
		}
		mp.index[p] = idx
	}
	return mp
}

// New relates an externally supplied unique sequence to raveled. A zero entry
// absent from unraveled is a structural zero; any other absent entry fails
// with ErrLookup.
func New(unraveled []symbolic.Expr, raveled *symbolic.Matrix) (*Mapping, error) {
	rows, cols := raveled.Dims()
	mp := &Mapping{
		rows:   rows,
		cols:   cols,
		unique: make([]symbolic.Expr, len(unraveled)),
		index:  make([]int, rows*cols),
		slots:  make(map[string]int, len(unraveled)),
	}
	for i, e := range unraveled {
		mp.unique[i] = e
		k := symbolic.Key(e)
		if _, ok := mp.slots[k]; !ok {
			mp.slots[k] = i
		}
	}
	for p, e := range raveled.Flatten() {
		idx, ok := mp.slots[symbolic.Key(e)]
		switch {
		case ok:
			mp.index[p] = idx
		case e.IsZero():
			mp.index[p] = Zero
		default:
			return nil, fmt.Errorf("%w: %s at (%d,%d)", ErrLookup, e, p/cols, p%cols)
		}
	}
	return mp, nil
}

func (m *Mapping) Dims() (int, int) { return m.rows, m.cols }

// Len is the number of unique entries.
func (m *Mapping) Len() int { return len(m.unique) }

// Unique returns the deduplicated entries, the vector-form state order.
func (m *Mapping) Unique() []symbolic.Expr {
	out := make([]symbolic.Expr, len(m.unique))
	copy(out, m.unique)
	return out
}

// Index returns the unique index at (i, j), or Zero.
func (m *Mapping) Index(i, j int) int {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("vectorize: index (%d,%d) out of range for %dx%d", i, j, m.rows, m.cols))
	}
	return m.index[i*m.cols+j]
}

// IndexOf finds e in the unique sequence.
func (m *Mapping) IndexOf(e symbolic.Expr) (int, error) {
	idx, ok := m.slots[symbolic.Key(e)]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrLookup, e)
	}
	return idx, nil
}

// Layout drops the symbolic entries, keeping their names and the index grid.
func (m *Mapping) Layout() Layout {
	names := make([]string, len(m.unique))
	for i, e := range m.unique {
		names[i] = e.String()
	}
	index := make([]int, len(m.index))
	copy(index, m.index)
	return Layout{Rows: m.rows, Cols: m.cols, Names: names, Index: index}
}

// Gather reads a numeric matrix into vector form. Where positions alias, the
// last one in row-major order wins.
func (m *Mapping) Gather(d mat.Matrix) ([]float64, error) {
	return m.Layout().Gather(d)
}
