// Package ndarray provides a minimal row-major n-dimensional float64 array.
// Two-dimensional views are exchanged as gonum *mat.Dense.
package ndarray

import (
	"errors"
	"fmt"
	"iter"

	"gonum.org/v1/gonum/mat"
)

var ErrOutOfRange = errors.New("ndarray: index out of range")

type Array struct {
	shape   []int
	strides []int
	data    []float64
}

// Zeros allocates an array of the given shape. A zero-length shape is a scalar.
func Zeros(shape ...int) *Array {
	n := 1
	for _, d := range shape {
		if d < 0 {
			panic(fmt.Sprintf("ndarray: negative dimension in shape %v", shape))
		}
		n *= d
	}
	a := &Array{shape: append([]int(nil), shape...), data: make([]float64, n)}
	a.strides = make([]int, len(shape))
	stride := 1
	for i := len(shape) - 1; i >= 0; i-- {
		a.strides[i] = stride
		stride *= shape[i]
	}
	return a
}

// FromDense copies a matrix into a 2-D array.
func FromDense(m mat.Matrix) *Array {
	r, c := m.Dims()
	a := Zeros(r, c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			a.data[i*c+j] = m.At(i, j)
		}
	}
	return a
}

func (a *Array) Shape() []int { return append([]int(nil), a.shape...) }
func (a *Array) Ndim() int    { return len(a.shape) }
func (a *Array) Len() int     { return len(a.data) }

// Data returns the backing row-major slice.
func (a *Array) Data() []float64 { return a.data }

func (a *Array) offset(idx []int) int {
	if len(idx) != len(a.shape) {
		panic(fmt.Errorf("%w: %d indices for shape %v", ErrOutOfRange, len(idx), a.shape))
	}
	off := 0
	for k, i := range idx {
		if i < 0 || i >= a.shape[k] {
			panic(fmt.Errorf("%w: %v for shape %v", ErrOutOfRange, idx, a.shape))
		}
		off += i * a.strides[k]
	}
	return off
}

func (a *Array) At(idx ...int) float64     { return a.data[a.offset(idx)] }
func (a *Array) Set(v float64, idx ...int) { a.data[a.offset(idx)] = v }

// Dense returns a 2-D array as a matrix sharing its storage.
func (a *Array) Dense() *mat.Dense {
	if len(a.shape) != 2 {
		panic(fmt.Sprintf("ndarray: Dense on %d-D array", len(a.shape)))
	}
	return mat.NewDense(a.shape[0], a.shape[1], a.data)
}

// Slice returns the i-th 2-D matrix of a 3-D array, sharing storage.
func (a *Array) Slice(i int) *mat.Dense {
	if len(a.shape) != 3 {
		panic(fmt.Sprintf("ndarray: Slice on %d-D array", len(a.shape)))
	}
	if i < 0 || i >= a.shape[0] {
		panic(fmt.Errorf("%w: slice %d of %d", ErrOutOfRange, i, a.shape[0]))
	}
	n := a.strides[0]
	return mat.NewDense(a.shape[1], a.shape[2], a.data[i*n:(i+1)*n:(i+1)*n])
}

func (a *Array) Equal(b *Array) bool {
	if len(a.shape) != len(b.shape) {
		return false
	}
	for i := range a.shape {
		if a.shape[i] != b.shape[i] {
			return false
		}
	}
	for i := range a.data {
		if a.data[i] != b.data[i] {
			return false
		}
	}
	return true
}

// Iter yields every multi-index of shape in row-major order. The yielded
// slice is reused between iterations.
func Iter(shape ...int) iter.Seq[[]int] {
	return func(yield func([]int) bool) {
		for _, d := range shape {
			if d <= 0 {
				return
			}
		}
		idx := make([]int, len(shape))
		for {
			if !yield(idx) {
				return
			}
			k := len(idx) - 1
			for ; k >= 0; k-- {
				idx[k]++
				if idx[k] < shape[k] {
					break
				}
				idx[k] = 0
			}
			if k < 0 {
				return
			}
		}
	}
}
