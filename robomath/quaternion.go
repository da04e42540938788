package robomath

import (
	"fmt"
	"math"
)

// ToQuaternion extracts the unit quaternion [w, x, y, z] of the rotation block.
//
// Each component magnitude comes from the diagonal (trace method); the signs of x, y and z
// are taken from the antisymmetric differences of the off-diagonal entries. Radicands
// are clamped to zero to absorb small negative values from rounding.
func (m *Mat) ToQuaternion() ([4]float64, error) {
	if err := requirePose(m, "ToQuaternion"); err != nil {
		return [4]float64{}, err
	}

	h := func(i, j int) float64 { return m.data[i*4+j] }
	a, b, c := h(0, 0), h(1, 1), h(2, 2)

	sign := func(v float64) float64 {
		if v < 0 {
			return -1
		}
		return 1
	}

	return [4]float64{
		math.Sqrt(math.Max(a+b+c+1, 0)) / 2,
		sign(h(2, 1)-h(1, 2)) * math.Sqrt(math.Max(a-b-c+1, 0)) / 2,
		sign(h(0, 2)-h(2, 0)) * math.Sqrt(math.Max(-a+b-c+1, 0)) / 2,
		sign(h(1, 0)-h(0, 1)) * math.Sqrt(math.Max(-a-b+c+1, 0)) / 2,
	}, nil
}

// FromQuaternion builds a pose with zero translation from the quaternion [w, x, y, z].
//
// The quaternion is normalized first; a zero quaternion returns ErrInvalidOperand.
func FromQuaternion(q [4]float64) (*Mat, error) {
	norm := math.Sqrt(q[0]*q[0] + q[1]*q[1] + q[2]*q[2] + q[3]*q[3])
	if norm == 0 || math.IsNaN(norm) || math.IsInf(norm, 0) {
		return nil, fmt.Errorf("%w: quaternion norm is %v", ErrInvalidOperand, norm)
	}

	w, x, y, z := q[0]/norm, q[1]/norm, q[2]/norm, q[3]/norm

	return NewPose(
		w*w+x*x-y*y-z*z, 2*(x*y-w*z), 2*(x*z+w*y), 0,
		2*(x*y+w*z), w*w-x*x+y*y-z*z, 2*(y*z-w*x), 0,
		2*(x*z-w*y), 2*(y*z+w*x), w*w-x*x-y*y+z*z, 0,
	), nil
}
