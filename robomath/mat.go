package robomath

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/RoboDK/RoboDK-API-sub002/internal/util"
)

// Mat is a dense matrix of float64 values stored in row-major order.
//
// The zero value is an empty 0x0 matrix.
type Mat struct {
	rows int
	cols int
	data []float64
}

// New creates a zero-filled matrix with the given number of rows and columns.
//
// It panics if rows or cols is negative.
func New(rows, cols int) *Mat {
	if rows < 0 || cols < 0 {
		panic(fmt.Sprintf("robomath: negative dimension %dx%d", rows, cols))
	}

	return &Mat{rows: rows, cols: cols, data: make([]float64, rows*cols)}
}

// NewFromRows creates a matrix from a slice of rows.
//
// All rows must have the same length, otherwise ErrDimensionMismatch is returned.
func NewFromRows(rows [][]float64) (*Mat, error) {
	if len(rows) == 0 {
		return New(0, 0), nil
	}

	cols := len(rows[0])
	m := New(len(rows), cols)
	for i, row := range rows {
		if len(row) != cols {
			return nil, fmt.Errorf("%w: row %d has %d columns, expected %d", ErrDimensionMismatch, i, len(row), cols)
		}
		copy(m.data[i*cols:(i+1)*cols], row)
	}

	return m, nil
}

// NewFromColMajor creates a rows x cols matrix from values laid out column by column.
//
// It returns ErrDimensionMismatch if len(values) != rows*cols.
func NewFromColMajor(rows, cols int, values []float64) (*Mat, error) {
	if rows < 0 || cols < 0 || len(values) != rows*cols {
		return nil, fmt.Errorf("%w: %d values for a %dx%d matrix", ErrDimensionMismatch, len(values), rows, cols)
	}

	m := New(rows, cols)
	for j := range cols {
		for i := range rows {
			m.data[i*cols+j] = values[j*rows+i]
		}
	}

	return m, nil
}

// Eye returns the n x n identity matrix.
func Eye(n int) *Mat {
	m := New(n, n)
	for i := range n {
		m.data[i*n+i] = 1
	}

	return m
}

// Rows returns the number of rows.
func (m *Mat) Rows() int { return m.rows }

// Cols returns the number of columns.
func (m *Mat) Cols() int { return m.cols }

// Size returns the number of rows and columns.
func (m *Mat) Size() (rows, cols int) { return m.rows, m.cols }

// At returns the element at row i, column j.
//
// It panics if the index is out of range.
func (m *Mat) At(i, j int) float64 {
	m.checkIndex(i, j)
	return m.data[i*m.cols+j]
}

// Set sets the element at row i, column j.
//
// It panics if the index is out of range.
func (m *Mat) Set(i, j int, v float64) {
	m.checkIndex(i, j)
	m.data[i*m.cols+j] = v
}

func (m *Mat) checkIndex(i, j int) {
	if i < 0 || i >= m.rows || j < 0 || j >= m.cols {
		panic(fmt.Sprintf("robomath: index (%d,%d) out of range for %dx%d matrix", i, j, m.rows, m.cols))
	}
}

// Clone returns a deep copy of the matrix.
func (m *Mat) Clone() *Mat {
	return &Mat{rows: m.rows, cols: m.cols, data: util.CloneSlice(m.data, 0)}
}

// T returns the transpose of the matrix.
func (m *Mat) T() *Mat {
	t := New(m.cols, m.rows)
	for i := range m.rows {
		for j := range m.cols {
			t.data[j*m.rows+i] = m.data[i*m.cols+j]
		}
	}

	return t
}

// Neg returns a new matrix with every element negated.
func (m *Mat) Neg() *Mat {
	return m.Scale(-1)
}

// Scale returns a new matrix with every element multiplied by s.
func (m *Mat) Scale(s float64) *Mat {
	r := m.Clone()
	for i := range r.data {
		r.data[i] *= s
	}

	return r
}

// Add returns m + b. It returns ErrDimensionMismatch if the sizes differ.
func (m *Mat) Add(b *Mat) (*Mat, error) {
	if m.rows != b.rows || m.cols != b.cols {
		return nil, fmt.Errorf("%w: add %dx%d and %dx%d", ErrDimensionMismatch, m.rows, m.cols, b.rows, b.cols)
	}

	r := m.Clone()
	for i, v := range b.data {
		r.data[i] += v
	}

	return r, nil
}

// Sub returns m - b. It returns ErrDimensionMismatch if the sizes differ.
func (m *Mat) Sub(b *Mat) (*Mat, error) {
	if m.rows != b.rows || m.cols != b.cols {
		return nil, fmt.Errorf("%w: subtract %dx%d and %dx%d", ErrDimensionMismatch, m.rows, m.cols, b.rows, b.cols)
	}

	r := m.Clone()
	for i, v := range b.data {
		r.data[i] -= v
	}

	return r, nil
}

// Row returns a copy of row i.
func (m *Mat) Row(i int) []float64 {
	if i < 0 || i >= m.rows {
		panic(fmt.Sprintf("robomath: row %d out of range for %dx%d matrix", i, m.rows, m.cols))
	}
	return util.CloneSlice(m.data[i*m.cols:(i+1)*m.cols], 0)
}

// Col returns a copy of column j.
func (m *Mat) Col(j int) []float64 {
	if j < 0 || j >= m.cols {
		panic(fmt.Sprintf("robomath: column %d out of range for %dx%d matrix", j, m.rows, m.cols))
	}
	col := make([]float64, m.rows)
	for i := range m.rows {
		col[i] = m.data[i*m.cols+j]
	}

	return col
}

// SetCol replaces column j with values.
//
// It returns ErrDimensionMismatch if len(values) differs from the number of rows,
// and ErrInvalidOperand if j is out of range.
func (m *Mat) SetCol(j int, values []float64) error {
	if j < 0 || j >= m.cols {
		return fmt.Errorf("%w: column %d out of range [0, %d)", ErrInvalidOperand, j, m.cols)
	}
	if len(values) != m.rows {
		return fmt.Errorf("%w: column has %d values, matrix has %d rows", ErrDimensionMismatch, len(values), m.rows)
	}

	for i, v := range values {
		m.data[i*m.cols+j] = v
	}

	return nil
}

// Flatten returns the elements in column-major order, which is the order used on the wire.
func (m *Mat) Flatten() []float64 {
	out := make([]float64, 0, len(m.data))
	for j := range m.cols {
		for i := range m.rows {
			out = append(out, m.data[i*m.cols+j])
		}
	}

	return out
}

// Equal reports whether b has the same size as m and every element differs by at most tol.
func (m *Mat) Equal(b *Mat, tol float64) bool {
	if b == nil || m.rows != b.rows || m.cols != b.cols {
		return false
	}

	for i, v := range m.data {
		if math.Abs(v-b.data[i]) > tol {
			return false
		}
	}

	return true
}

// String renders the matrix for diagnostics, one bracketed row per line.
func (m *Mat) String() string {
	var sb strings.Builder
	sb.WriteString("Matrix: (")
	sb.WriteString(strconv.Itoa(m.rows))
	sb.WriteString(", ")
	sb.WriteString(strconv.Itoa(m.cols))
	sb.WriteString(")\n")

	for i := range m.rows {
		sb.WriteString("[ ")
		for j := range m.cols {
			if j > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(strconv.FormatFloat(m.data[i*m.cols+j], 'f', 3, 64))
		}
		sb.WriteString(" ]")
		if i < m.rows-1 {
			sb.WriteString(",\n")
		}
	}

	return sb.String()
}
