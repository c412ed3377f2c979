package symbolic

import (
	"fmt"
	"strings"

	"gonum.org/v1/gonum/mat"
)

// Matrix is a dense row-major grid of expressions.
type Matrix struct {
	rows, cols int
	data       []Expr
}

// NewMatrix wraps data (row-major, len rows*cols). Nil entries become zero.
func NewMatrix(rows, cols int, data []Expr) (*Matrix, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: invalid shape %dx%d", ErrDimensionMismatch, rows, cols)
	}
	if data == nil {
		data = make([]Expr, rows*cols)
	}
	if len(data) != rows*cols {
		return nil, fmt.Errorf("%w: %d entries for %dx%d", ErrDimensionMismatch, len(data), rows, cols)
	}
	m := &Matrix{rows: rows, cols: cols, data: make([]Expr, len(data))}
	for i, e := range data {
		if e == nil {
			e = Zero()
		}
		m.data[i] = e
	}
	return m, nil
}

// FromRows builds a matrix from a rectangular grid.
func FromRows(rows [][]Expr) (*Matrix, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: no rows", ErrDimensionMismatch)
	}
	cols := len(rows[0])
	data := make([]Expr, 0, len(rows)*cols)
	for i, r := range rows {
		if len(r) != cols {
			return nil, fmt.Errorf("%w: row %d has %d entries, want %d", ErrDimensionMismatch, i, len(r), cols)
		}
		data = append(data, r...)
	}
	return NewMatrix(len(rows), cols, data)
}

func Zeros(rows, cols int) *Matrix {
	m, err := NewMatrix(rows, cols, nil)
	if err != nil {
		panic(err)
	}
	return m
}

// Diag returns a square matrix with entries on the diagonal and zeros elsewhere.
func Diag(entries ...Expr) *Matrix {
	n := len(entries)
	m := Zeros(n, n)
	for i, e := range entries {
		m.Set(i, i, e)
	}
	return m
}

// FromDense converts a numeric matrix to constant expressions.
func FromDense(d mat.Matrix) *Matrix {
	r, c := d.Dims()
	m := Zeros(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			m.data[i*c+j] = Const(d.At(i, j))
		}
	}
	return m
}

func (m *Matrix) Dims() (int, int) { return m.rows, m.cols }

func (m *Matrix) At(i, j int) Expr {
	m.check(i, j)
	return m.data[i*m.cols+j]
}

func (m *Matrix) Set(i, j int, e Expr) {
	m.check(i, j)
	if e == nil {
		e = Zero()
	}
	m.data[i*m.cols+j] = e
}

func (m *Matrix) check(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("symbolic: index (%d,%d) out of range for %dx%d", i, j, m.rows, m.cols))
	}
}

// Flatten returns the entries in row-major order.
func (m *Matrix) Flatten() []Expr {
	out := make([]Expr, len(m.data))
	copy(out, m.data)
	return out
}

func (m *Matrix) Clone() *Matrix {
	return &Matrix{rows: m.rows, cols: m.cols, data: m.Flatten()}
}

// RowJoin places ms side by side; all must share the row count.
func RowJoin(ms ...*Matrix) (*Matrix, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("%w: nothing to join", ErrDimensionMismatch)
	}
	rows := ms[0].rows
	cols := 0
	for k, b := range ms {
		if b.rows != rows {
			return nil, fmt.Errorf("%w: block %d has %d rows, want %d", ErrDimensionMismatch, k, b.rows, rows)
		}
		cols += b.cols
	}
	out := Zeros(rows, cols)
	off := 0
	for _, b := range ms {
		for i := 0; i < rows; i++ {
			copy(out.data[i*cols+off:i*cols+off+b.cols], b.data[i*b.cols:(i+1)*b.cols])
		}
		off += b.cols
	}
	return out, nil
}

// ColJoin stacks ms top to bottom; all must share the column count.
func ColJoin(ms ...*Matrix) (*Matrix, error) {
	if len(ms) == 0 {
		return nil, fmt.Errorf("%w: nothing to join", ErrDimensionMismatch)
	}
	cols := ms[0].cols
	data := make([]Expr, 0)
	rows := 0
	for k, b := range ms {
		if b.cols != cols {
			return nil, fmt.Errorf("%w: block %d has %d cols, want %d", ErrDimensionMismatch, k, b.cols, cols)
		}
		data = append(data, b.data...)
		rows += b.rows
	}
	return &Matrix{rows: rows, cols: cols, data: data}, nil
}

func (m *Matrix) T() *Matrix {
	out := Zeros(m.cols, m.rows)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}
	return out
}

func (m *Matrix) Add(o *Matrix) (*Matrix, error) {
	if m.rows != o.rows || m.cols != o.cols {
		return nil, fmt.Errorf("%w: add %dx%d and %dx%d", ErrDimensionMismatch, m.rows, m.cols, o.rows, o.cols)
	}
	out := Zeros(m.rows, m.cols)
	for i := range m.data {
		out.data[i] = Add(m.data[i], o.data[i])
	}
	return out, nil
}

func (m *Matrix) Sub(o *Matrix) (*Matrix, error) {
	if m.rows != o.rows || m.cols != o.cols {
		return nil, fmt.Errorf("%w: sub %dx%d and %dx%d", ErrDimensionMismatch, m.rows, m.cols, o.rows, o.cols)
	}
	out := Zeros(m.rows, m.cols)
	for i := range m.data {
		out.data[i] = Sub(m.data[i], o.data[i])
	}
	return out, nil
}

func (m *Matrix) Mul(o *Matrix) (*Matrix, error) {
	if m.cols != o.rows {
		return nil, fmt.Errorf("%w: mul %dx%d by %dx%d", ErrDimensionMismatch, m.rows, m.cols, o.rows, o.cols)
	}
	out := Zeros(m.rows, o.cols)
	terms := make([]Expr, m.cols)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < o.cols; j++ {
			for k := 0; k < m.cols; k++ {
				terms[k] = Mul(m.data[i*m.cols+k], o.data[k*o.cols+j])
			}
			out.data[i*o.cols+j] = Add(terms...)
		}
	}
	return out, nil
}

func (m *Matrix) Scale(c float64) *Matrix {
	out := Zeros(m.rows, m.cols)
	for i, e := range m.data {
		out.data[i] = Scale(c, e)
	}
	return out
}

func (m *Matrix) Subs(s Substitution) *Matrix {
	out := Zeros(m.rows, m.cols)
	for i, e := range m.data {
		out.data[i] = e.Subs(s)
	}
	return out
}

// Equal reports element-wise equality of same-shaped matrices.
func (m *Matrix) Equal(o *Matrix) bool {
	if o == nil || m.rows != o.rows || m.cols != o.cols {
		return false
	}
	for i := range m.data {
		if !m.data[i].Equal(o.data[i]) {
			return false
		}
	}
	return true
}

// Eval evaluates every entry against env.
func (m *Matrix) Eval(env Env) (*mat.Dense, error) {
	out := mat.NewDense(m.rows, m.cols, nil)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			v, err := m.data[i*m.cols+j].Eval(env)
			if err != nil {
				return nil, fmt.Errorf("entry (%d,%d): %w", i, j, err)
			}
			out.Set(i, j, v)
		}
	}
	return out, nil
}

func (m *Matrix) String() string {
	var sb strings.Builder
	sb.WriteString("[")
	for i := 0; i < m.rows; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("[")
		for j := 0; j < m.cols; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(m.data[i*m.cols+j].String())
		}
		sb.WriteString("]")
	}
	sb.WriteString("]")
	return sb.String()
}
