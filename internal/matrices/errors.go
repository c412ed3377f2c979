package matrices

import (
	"errors"

	"github.com/san-kum/matdyn/internal/symbolic"
)

var (
	// ErrInvalidConfig indicates a structure that cannot apply to the requested shape.
	ErrInvalidConfig = errors.New("matrices: symmetric or diagonal structure requires n == m")

	// ErrDimensionMismatch is the symbolic layer's shape error; block
	// composition and substitution building both report it.
	ErrDimensionMismatch = symbolic.ErrDimensionMismatch
)
