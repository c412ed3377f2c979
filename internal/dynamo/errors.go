package dynamo

import "errors"

var (
	// ErrInvalidState is returned when a step produces NaN or Inf.
	ErrInvalidState = errors.New("dynamo: state is not finite")

	ErrInvalidConfig = errors.New("dynamo: invalid run configuration")

	// ErrStepTooSmall is returned when an adaptive step shrinks below MinDt.
	ErrStepTooSmall = errors.New("dynamo: adaptive step below minimum")

	// ErrDimensionMismatch is returned when x0 or a control does not fit
	// the system.
	ErrDimensionMismatch = errors.New("dynamo: dimension mismatch")
)
