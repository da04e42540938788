package robomath

import "errors"

var (
	// ErrInvalidOperand indicates that an operation was applied to a matrix of the wrong shape,
	// e.g. inverting a matrix that is not 4x4, or a conversion input of the wrong length.
	ErrInvalidOperand = errors.New("invalid operand")

	// ErrDimensionMismatch indicates that the dimensions of two operands are incompatible
	// for the requested operation.
	ErrDimensionMismatch = errors.New("dimension mismatch")
)
