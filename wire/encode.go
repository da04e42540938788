package wire

import (
	"bufio"
	"encoding/binary"
	"io"
	"math"
	"strings"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/RoboDK/RoboDK-API-sub002/robomath"
)

// Encoder writes protocol fields to a buffered stream.
//
// Fields are buffered until Flush; callers flush once per request so that a
// command line and its payload leave in as few segments as possible.
// Encoder is not goroutine-safe.
type Encoder struct {
	w   *bufio.Writer
	buf [8]byte
}

// NewEncoder returns an Encoder writing to w. If w is already a *bufio.Writer it is used as is.
func NewEncoder(w io.Writer) *Encoder {
	bw, ok := w.(*bufio.Writer)
	if !ok {
		bw = bufio.NewWriter(w)
	}

	return &Encoder{w: bw}
}

// Flush writes any buffered fields to the underlying writer.
func (e *Encoder) Flush() error {
	return errors.Wrap(e.w.Flush(), "flush")
}

// WriteLine writes s followed by '\n'. Newlines inside s are replaced with spaces.
func (e *Encoder) WriteLine(s string) error {
	s = strings.ReplaceAll(s, "\n", " ")
	if _, err := e.w.WriteString(s); err != nil {
		return errors.Wrap(err, "write line")
	}

	return errors.Wrap(e.w.WriteByte('\n'), "write line")
}

// WriteInt32 writes v as 4 big-endian bytes.
func (e *Encoder) WriteInt32(v int32) error {
	binary.BigEndian.PutUint32(e.buf[:4], uint32(v))
	_, err := e.w.Write(e.buf[:4])

	return errors.Wrap(err, "write int32")
}

// WriteUint64 writes v as 8 big-endian bytes.
func (e *Encoder) WriteUint64(v uint64) error {
	binary.BigEndian.PutUint64(e.buf[:8], v)
	_, err := e.w.Write(e.buf[:8])

	return errors.Wrap(err, "write uint64")
}

// WriteHandle writes an item handle. Requests identify items by handle only.
func (e *Encoder) WriteHandle(h uint64) error {
	return e.WriteUint64(h)
}

// WriteItemRef writes the handle followed by the kind.
func (e *Encoder) WriteItemRef(ref ItemRef) error {
	if err := e.WriteUint64(ref.Handle); err != nil {
		return err
	}

	return e.WriteInt32(ref.Kind)
}

// WriteFloat64 writes v as a big-endian IEEE-754 double.
func (e *Encoder) WriteFloat64(v float64) error {
	binary.BigEndian.PutUint64(e.buf[:8], math.Float64bits(v))
	_, err := e.w.Write(e.buf[:8])

	return errors.Wrap(err, "write double")
}

// WriteXYZ writes the three components of v.
func (e *Encoder) WriteXYZ(v r3.Vector) error {
	return e.writeFloats(v.X, v.Y, v.Z)
}

// WriteArray writes len(values) as Int32 followed by the values. A nil slice is sent as count 0.
func (e *Encoder) WriteArray(values []float64) error {
	if len(values) > MaxArrayLength {
		return errors.Wrapf(ErrMalformed, "array of %d values", len(values))
	}

	if err := e.WriteInt32(int32(len(values))); err != nil {
		return err
	}

	return e.writeFloats(values...)
}

// WritePose writes the 16 entries of a 4x4 pose in column-major order.
func (e *Encoder) WritePose(pose *robomath.Mat) error {
	if pose == nil || !pose.IsSquareHomogeneousShape() {
		return ErrInvalidPose
	}

	return e.writeFloats(pose.Flatten()...)
}

// WriteMatrix writes the row and column counts followed by the entries in column-major order.
// A nil matrix is sent as an empty 0x0 matrix.
func (e *Encoder) WriteMatrix(m *robomath.Mat) error {
	if m == nil {
		if err := e.WriteInt32(0); err != nil {
			return err
		}

		return e.WriteInt32(0)
	}

	rows, cols := m.Size()
	if rows*cols > MaxArrayLength {
		return errors.Wrapf(ErrMalformed, "matrix of %dx%d values", rows, cols)
	}

	if err := e.WriteInt32(int32(rows)); err != nil {
		return err
	}
	if err := e.WriteInt32(int32(cols)); err != nil {
		return err
	}

	return e.writeFloats(m.Flatten()...)
}

func (e *Encoder) writeFloats(values ...float64) error {
	for _, v := range values {
		if err := e.WriteFloat64(v); err != nil {
			return err
		}
	}

	return nil
}
