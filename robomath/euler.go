package robomath

import (
	"math"

	"github.com/golang/geo/r3"
)

// GimbalTolerance is the distance from ±1 at which a rotation entry is treated as a
// gimbal-lock singularity by the Euler decompositions.
const GimbalTolerance = 1e-6

const (
	deg2rad = math.Pi / 180
	rad2deg = 180 / math.Pi
)

// ToXYZRPW decomposes a pose into [x, y, z, roll, pitch, yaw] with angles in degrees,
// following pose = transl(x,y,z)·rotz(yaw)·roty(pitch)·rotx(roll).
//
// At the gimbal lock (entry (2,0) within GimbalTolerance of ±1) pitch is pinned to ∓90°,
// roll is set to 0 and yaw absorbs the remaining rotation.
func (m *Mat) ToXYZRPW() ([]float64, error) {
	if err := requirePose(m, "ToXYZRPW"); err != nil {
		return nil, err
	}

	h := func(i, j int) float64 { return m.data[i*4+j] }

	var roll, pitch, yaw float64
	switch {
	case h(2, 0) > 1-GimbalTolerance:
		pitch = -math.Pi / 2
		roll = 0
		yaw = math.Atan2(-h(1, 2), h(1, 1))
	case h(2, 0) < -1+GimbalTolerance:
		pitch = math.Pi / 2
		roll = 0
		yaw = math.Atan2(h(1, 2), h(1, 1))
	default:
		pitch = math.Atan2(-h(2, 0), math.Hypot(h(0, 0), h(1, 0)))
		cp := math.Cos(pitch)
		yaw = math.Atan2(h(1, 0)/cp, h(0, 0)/cp)
		roll = math.Atan2(h(2, 1)/cp, h(2, 2)/cp)
	}

	return []float64{h(0, 3), h(1, 3), h(2, 3), roll * rad2deg, pitch * rad2deg, yaw * rad2deg}, nil
}

// FromXYZRPW builds a pose from [x, y, z, roll, pitch, yaw], angles in degrees.
// It is the inverse of ToXYZRPW.
func FromXYZRPW(v []float64) (*Mat, error) {
	if err := requireLen(v, 6, "FromXYZRPW"); err != nil {
		return nil, err
	}

	srx, crx := math.Sincos(v[3] * deg2rad)
	sry, cry := math.Sincos(v[4] * deg2rad)
	srz, crz := math.Sincos(v[5] * deg2rad)

	return NewPose(
		cry*crz, crz*srx*sry-crx*srz, srx*srz+crx*crz*sry, v[0],
		cry*srz, crx*crz+srx*sry*srz, crx*sry*srz-crz*srx, v[1],
		-sry, cry*srx, crx*cry, v[2],
	), nil
}

// ToTxyzRxyz decomposes a pose into [x, y, z, rx, ry, rz] with angles in radians,
// following pose = transl(x,y,z)·rotx(rx)·roty(ry)·rotz(rz).
//
// The gimbal lock is detected on entry (0,2) with GimbalTolerance, like ToXYZRPW.
// Earlier releases of the host tooling compared that entry with exact equality;
// a pose within the tolerance band but not exactly at ±1 now decomposes with rx = 0,
// which can differ from the exact-equality result by how rx and rz share the rotation.
func (m *Mat) ToTxyzRxyz() ([]float64, error) {
	if err := requirePose(m, "ToTxyzRxyz"); err != nil {
		return nil, err
	}

	h := func(i, j int) float64 { return m.data[i*4+j] }

	var rx, ry, rz float64
	c := h(0, 2)
	switch {
	case c > 1-GimbalTolerance:
		ry = math.Pi / 2
		rx = 0
		rz = math.Atan2(h(1, 0), h(1, 1))
	case c < -1+GimbalTolerance:
		ry = -math.Pi / 2
		rx = 0
		rz = math.Atan2(h(1, 0), h(1, 1))
	default:
		cy := math.Sqrt(1 - c*c)
		rx = math.Atan2(-h(1, 2)/cy, h(2, 2)/cy)
		ry = math.Atan2(c, cy)
		rz = math.Atan2(-h(0, 1)/cy, h(0, 0)/cy)
	}

	return []float64{h(0, 3), h(1, 3), h(2, 3), rx, ry, rz}, nil
}

// FromTxyzRxyz builds a pose from [x, y, z, rx, ry, rz], angles in radians.
// It is the inverse of ToTxyzRxyz.
func FromTxyzRxyz(v []float64) (*Mat, error) {
	if err := requireLen(v, 6, "FromTxyzRxyz"); err != nil {
		return nil, err
	}

	srx, crx := math.Sincos(v[3])
	sry, cry := math.Sincos(v[4])
	srz, crz := math.Sincos(v[5])

	return NewPose(
		cry*crz, -cry*srz, sry, v[0],
		crx*srz+crz*srx*sry, crx*crz-srx*sry*srz, -cry*srx, v[1],
		srx*srz-crx*crz*sry, crz*srx+crx*sry*srz, crx*cry, v[2],
	), nil
}

// urTolerance guards the axis-angle extraction near 0° and 180°.
const urTolerance = 1e-8

// ToUR decomposes a pose into [x, y, z, rx, ry, rz] where (rx, ry, rz) is the rotation
// axis scaled by the rotation angle in radians. The identity rotation maps to (0, 0, 0).
func (m *Mat) ToUR() ([]float64, error) {
	if err := requirePose(m, "ToUR"); err != nil {
		return nil, err
	}

	h := func(i, j int) float64 { return m.data[i*4+j] }

	angle := math.Acos(clamp1((h(0, 0) + h(1, 1) + h(2, 2) - 1) * 0.5))
	axis := r3.Vector{X: h(2, 1) - h(1, 2), Y: h(0, 2) - h(2, 0), Z: h(1, 0) - h(0, 1)}

	var rot r3.Vector
	switch {
	case angle < urTolerance:
		// identity
	case math.Abs(math.Sin(angle)) < urTolerance || axis.Norm() < urTolerance:
		// close to 180°: recover the axis from the dominant diagonal entry
		d := [3]float64{h(0, 0), h(1, 1), h(2, 2)}
		idx := 0
		for i := 1; i < 3; i++ {
			if d[i] > d[idx] {
				idx = i
			}
		}
		switch idx {
		case 0:
			axis = r3.Vector{X: h(0, 0) + 1, Y: h(1, 0), Z: h(2, 0)}
		case 1:
			axis = r3.Vector{X: h(0, 1), Y: h(1, 1) + 1, Z: h(2, 1)}
		default:
			axis = r3.Vector{X: h(0, 2), Y: h(1, 2), Z: h(2, 2) + 1}
		}
		rot = axis.Mul(angle / math.Sqrt(math.Max(0, 2*(1+d[idx]))))
	default:
		rot = axis.Normalize().Mul(angle)
	}

	return []float64{h(0, 3), h(1, 3), h(2, 3), rot.X, rot.Y, rot.Z}, nil
}

// FromUR builds a pose from [x, y, z, rx, ry, rz] where (rx, ry, rz) is an axis-angle
// rotation vector in radians. A zero vector yields the identity rotation.
func FromUR(v []float64) (*Mat, error) {
	if err := requireLen(v, 6, "FromUR"); err != nil {
		return nil, err
	}

	rv := r3.Vector{X: v[3], Y: v[4], Z: v[5]}
	angle := rv.Norm()

	q := [4]float64{1, 0, 0, 0}
	if angle != 0 {
		s, c := math.Sincos(0.5 * angle)
		qv := rv.Mul(s / angle)
		q = [4]float64{c, qv.X, qv.Y, qv.Z}
	}

	pose, err := FromQuaternion(q)
	if err != nil {
		return nil, err
	}
	_ = pose.SetPos(r3.Vector{X: v[0], Y: v[1], Z: v[2]})

	return pose, nil
}

func clamp1(v float64) float64 {
	return math.Min(math.Max(v, -1), 1)
}
