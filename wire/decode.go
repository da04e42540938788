package wire

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/golang/geo/r3"
	"github.com/pkg/errors"

	"github.com/RoboDK/RoboDK-API-sub002/robomath"
)

// Decoder reads protocol fields from a buffered stream.
//
// Decoder is not goroutine-safe. Read deadlines are the caller's concern: they are set
// on the underlying connection, and a timed-out read leaves the stream in an unknown
// position.
type Decoder struct {
	r   *bufio.Reader
	buf [8]byte
}

// NewDecoder returns a Decoder reading from r. If r is already a *bufio.Reader it is used as is.
func NewDecoder(r io.Reader) *Decoder {
	br, ok := r.(*bufio.Reader)
	if !ok {
		br = bufio.NewReader(r)
	}

	return &Decoder{r: br}
}

// ReadLine reads bytes up to and including '\n' and returns them without the newline.
func (d *Decoder) ReadLine() (string, error) {
	line := make([]byte, 0, 64)
	for {
		b, err := d.r.ReadByte()
		if err != nil {
			return "", readErr("read line", err)
		}
		if b == '\n' {
			return string(line), nil
		}
		if len(line) >= MaxLineLength {
			return "", errors.Wrapf(ErrMalformed, "read line: longer than %d bytes", MaxLineLength)
		}
		line = append(line, b)
	}
}

// ReadInt32 reads a big-endian Int32.
func (d *Decoder) ReadInt32() (int32, error) {
	if err := d.fill(4, "read int32"); err != nil {
		return 0, err
	}

	return int32(binary.BigEndian.Uint32(d.buf[:4])), nil
}

// ReadUint64 reads a big-endian UInt64.
func (d *Decoder) ReadUint64() (uint64, error) {
	if err := d.fill(8, "read uint64"); err != nil {
		return 0, err
	}

	return binary.BigEndian.Uint64(d.buf[:8]), nil
}

// ReadItemRef reads a handle followed by its kind.
func (d *Decoder) ReadItemRef() (ItemRef, error) {
	h, err := d.ReadUint64()
	if err != nil {
		return ItemRef{}, err
	}

	kind, err := d.ReadInt32()
	if err != nil {
		return ItemRef{}, err
	}

	return ItemRef{Handle: h, Kind: kind}, nil
}

// ReadFloat64 reads a big-endian IEEE-754 double.
func (d *Decoder) ReadFloat64() (float64, error) {
	if err := d.fill(8, "read double"); err != nil {
		return 0, err
	}

	return math.Float64frombits(binary.BigEndian.Uint64(d.buf[:8])), nil
}

// ReadXYZ reads three consecutive doubles.
func (d *Decoder) ReadXYZ() (r3.Vector, error) {
	v, err := d.readFloats(3)
	if err != nil {
		return r3.Vector{}, err
	}

	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}

// ReadArray reads an Int32 count followed by that many doubles. A count of 0 yields nil.
func (d *Decoder) ReadArray() ([]float64, error) {
	n, err := d.ReadCount("read array")
	if err != nil {
		return nil, err
	}
	if n == 0 {
		return nil, nil
	}

	return d.readFloats(n)
}

// ReadPose reads 16 doubles in column-major order into a 4x4 matrix.
func (d *Decoder) ReadPose() (*robomath.Mat, error) {
	v, err := d.readFloats(16)
	if err != nil {
		return nil, err
	}

	return robomath.NewFromColMajor(4, 4, v)
}

// ReadMatrix reads an Int32 row count, an Int32 column count and the column-major entries.
// An empty matrix is returned as a 0x0 Mat, never nil.
func (d *Decoder) ReadMatrix() (*robomath.Mat, error) {
	rows, err := d.ReadCount("read matrix rows")
	if err != nil {
		return nil, err
	}
	cols, err := d.ReadCount("read matrix cols")
	if err != nil {
		return nil, err
	}

	if rows == 0 || cols == 0 {
		return robomath.New(rows, cols), nil
	}
	if rows*cols > MaxArrayLength {
		return nil, errors.Wrapf(ErrMalformed, "read matrix: %dx%d exceeds %d values", rows, cols, MaxArrayLength)
	}

	v, err := d.readFloats(rows * cols)
	if err != nil {
		return nil, err
	}

	return robomath.NewFromColMajor(rows, cols, v)
}

// ReadCount reads an Int32 element count. A negative count or one above MaxArrayLength
// returns ErrMalformed; op names the field in the error.
func (d *Decoder) ReadCount(op string) (int, error) {
	n, err := d.ReadInt32()
	if err != nil {
		return 0, errors.WithMessage(err, op)
	}
	if n < 0 || n > MaxArrayLength {
		return 0, errors.Wrapf(ErrMalformed, "%s: count %d", op, n)
	}

	return int(n), nil
}

func (d *Decoder) readFloats(n int) ([]float64, error) {
	values := make([]float64, n)
	for i := range values {
		v, err := d.ReadFloat64()
		if err != nil {
			return nil, err
		}
		values[i] = v
	}

	return values, nil
}

func (d *Decoder) fill(n int, op string) error {
	if _, err := io.ReadFull(d.r, d.buf[:n]); err != nil {
		return readErr(op, err)
	}

	return nil
}

// readErr tags end-of-stream conditions with ErrShortRead, so a truncated field never
// decodes as a zero value. Other errors, such as deadline expiry, keep their identity.
func readErr(op string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return errors.Wrap(fmt.Errorf("%w: %w", ErrShortRead, err), op)
	}

	return errors.Wrap(err, op)
}
