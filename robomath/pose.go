package robomath

import (
	"fmt"
	"math"

	"github.com/golang/geo/r3"
)

// NewPose creates a 4x4 homogeneous pose from the rows of its upper 3x4 block.
//
// The n, o and a vectors are the columns of the rotation block and t is the translation.
// The bottom row is fixed to [0 0 0 1].
func NewPose(nx, ox, ax, tx, ny, oy, ay, ty, nz, oz, az, tz float64) *Mat {
	return &Mat{rows: 4, cols: 4, data: []float64{
		nx, ox, ax, tx,
		ny, oy, ay, ty,
		nz, oz, az, tz,
		0, 0, 0, 1,
	}}
}

// NewPoint creates the 4x1 homogeneous point [x y z 1].
func NewPoint(v r3.Vector) *Mat {
	return &Mat{rows: 4, cols: 1, data: []float64{v.X, v.Y, v.Z, 1}}
}

// Identity returns the 4x4 identity pose.
func Identity() *Mat {
	return Eye(4)
}

// TransL returns a pure translation pose.
func TransL(x, y, z float64) *Mat {
	return NewPose(1, 0, 0, x, 0, 1, 0, y, 0, 0, 1, z)
}

// RotX returns a pure rotation of rx radians around the X axis.
func RotX(rx float64) *Mat {
	s, c := math.Sincos(rx)
	return NewPose(1, 0, 0, 0, 0, c, -s, 0, 0, s, c, 0)
}

// RotY returns a pure rotation of ry radians around the Y axis.
func RotY(ry float64) *Mat {
	s, c := math.Sincos(ry)
	return NewPose(c, 0, s, 0, 0, 1, 0, 0, -s, 0, c, 0)
}

// RotZ returns a pure rotation of rz radians around the Z axis.
func RotZ(rz float64) *Mat {
	s, c := math.Sincos(rz)
	return NewPose(c, -s, 0, 0, s, c, 0, 0, 0, 0, 1, 0)
}

// IsSquareHomogeneousShape reports whether m is 4x4.
//
// It does not check the bottom row or the rotation block; see IsOrthonormalRotation.
func (m *Mat) IsSquareHomogeneousShape() bool {
	return m.rows == 4 && m.cols == 4
}

// IsOrthonormalRotation reports whether m is 4x4 and its 3x3 rotation block R satisfies
// RᵀR = I and det(R) = +1 within tol.
func (m *Mat) IsOrthonormalRotation(tol float64) bool {
	if !m.IsSquareHomogeneousShape() {
		return false
	}

	r := func(i, j int) float64 { return m.data[i*4+j] }
	for a := range 3 {
		for b := range 3 {
			var dot float64
			for k := range 3 {
				dot += r(k, a) * r(k, b)
			}
			want := 0.0
			if a == b {
				want = 1
			}
			if math.Abs(dot-want) > tol {
				return false
			}
		}
	}

	det := r(0, 0)*(r(1, 1)*r(2, 2)-r(1, 2)*r(2, 1)) -
		r(0, 1)*(r(1, 0)*r(2, 2)-r(1, 2)*r(2, 0)) +
		r(0, 2)*(r(1, 0)*r(2, 1)-r(1, 1)*r(2, 0))

	return math.Abs(det-1) <= tol
}

// Inv returns the inverse of a rigid transform using the closed form [Rᵀ, -Rᵀt].
//
// Only the 4x4 shape is checked; the result is meaningless if the rotation block is
// not orthonormal. ErrInvalidOperand is returned for any other shape.
func (m *Mat) Inv() (*Mat, error) {
	if !m.IsSquareHomogeneousShape() {
		return nil, fmt.Errorf("%w: cannot invert %dx%d matrix as a pose", ErrInvalidOperand, m.rows, m.cols)
	}

	d := m.data
	tx, ty, tz := d[3], d[7], d[11]

	inv := NewPose(
		d[0], d[4], d[8], -(d[0]*tx + d[4]*ty + d[8]*tz),
		d[1], d[5], d[9], -(d[1]*tx + d[5]*ty + d[9]*tz),
		d[2], d[6], d[10], -(d[2]*tx + d[6]*ty + d[10]*tz),
	)

	return inv, nil
}

// Pos returns the translation of a pose, or the first three elements of a 4x1 or 3x1 point.
//
// It panics if m is neither.
func (m *Mat) Pos() r3.Vector {
	switch {
	case m.IsSquareHomogeneousShape():
		return r3.Vector{X: m.data[3], Y: m.data[7], Z: m.data[11]}
	case m.cols == 1 && m.rows >= 3:
		return r3.Vector{X: m.data[0], Y: m.data[1], Z: m.data[2]}
	default:
		panic(fmt.Sprintf("robomath: Pos on %dx%d matrix", m.rows, m.cols))
	}
}

// SetPos replaces the translation of a pose.
//
// It returns ErrInvalidOperand if m is not 4x4.
func (m *Mat) SetPos(v r3.Vector) error {
	if !m.IsSquareHomogeneousShape() {
		return fmt.Errorf("%w: SetPos on %dx%d matrix", ErrInvalidOperand, m.rows, m.cols)
	}
	m.data[3], m.data[7], m.data[11] = v.X, v.Y, v.Z

	return nil
}

// Transform applies the pose m to the point p.
func (m *Mat) Transform(p r3.Vector) (r3.Vector, error) {
	if !m.IsSquareHomogeneousShape() {
		return r3.Vector{}, fmt.Errorf("%w: transform by %dx%d matrix", ErrInvalidOperand, m.rows, m.cols)
	}

	v, _ := m.MulVec([]float64{p.X, p.Y, p.Z})

	return r3.Vector{X: v[0], Y: v[1], Z: v[2]}, nil
}

func requirePose(m *Mat, op string) error {
	if !m.IsSquareHomogeneousShape() {
		return fmt.Errorf("%w: %s requires a 4x4 pose, got %dx%d", ErrInvalidOperand, op, m.rows, m.cols)
	}

	return nil
}

func requireLen(v []float64, n int, op string) error {
	if len(v) != n {
		return fmt.Errorf("%w: %s requires %d values, got %d", ErrInvalidOperand, op, n, len(v))
	}

	return nil
}
