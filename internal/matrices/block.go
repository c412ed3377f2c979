package matrices

import (
	"fmt"

	"github.com/san-kum/matdyn/internal/symbolic"
)

// Block joins each row of blocks left to right, then stacks the rows.
func Block(blocks [][]*symbolic.Matrix) (*symbolic.Matrix, error) {
	if len(blocks) == 0 {
		return nil, fmt.Errorf("%w: empty block grid", ErrDimensionMismatch)
	}
	rows := make([]*symbolic.Matrix, len(blocks))
	for i, row := range blocks {
		joined, err := symbolic.RowJoin(row...)
		if err != nil {
			return nil, fmt.Errorf("block row %d: %w", i, err)
		}
		rows[i] = joined
	}
	out, err := symbolic.ColJoin(rows...)
	if err != nil {
		return nil, fmt.Errorf("block rows: %w", err)
	}
	return out, nil
}
