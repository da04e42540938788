package wire

import "errors"

const (
	// MaxLineLength bounds a received line, newline excluded.
	MaxLineLength = 1 << 20
	// MaxArrayLength bounds the element count of a received array or matrix.
	MaxArrayLength = 1 << 26
)

var (
	// ErrShortRead indicates that the stream ended before a field was complete.
	// It always wraps io.EOF or io.ErrUnexpectedEOF as well.
	ErrShortRead = errors.New("short read")

	// ErrMalformed indicates a field whose decoded header cannot be valid,
	// e.g. a negative count or a line longer than MaxLineLength.
	ErrMalformed = errors.New("malformed field")

	// ErrInvalidPose indicates that a matrix sent as a pose is not 4x4.
	ErrInvalidPose = errors.New("pose must be a 4x4 matrix")
)
