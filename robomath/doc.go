// Package robomath provides the matrix algebra used to describe robot poses.
//
// The central type is Mat, a dense MxN matrix of float64 values. The same type serves
// three purposes:
//   - a plain linear-algebra object (transpose, add, multiply, ...);
//   - a 4x4 homogeneous transform ("pose"), whose top-left 3x3 block is a rotation,
//     whose top-right 3x1 block is a translation and whose bottom row is [0 0 0 1];
//   - a transport container for point lists (3xN or 6xN: position and optional normal)
//     and joint matrices exchanged with the simulation host.
//
// Pose Contract:
//
// Operations that treat a matrix as a rigid transform (Inv, the Euler/quaternion/axis-angle
// conversions, sending a pose over the wire) only check that the matrix is 4x4, see
// IsSquareHomogeneousShape. They do not verify that the rotation block is orthonormal.
// Callers that need that guarantee must check IsOrthonormalRotation explicitly.
//
// Conventions:
//   - ToXYZRPW/FromXYZRPW: [x,y,z,roll,pitch,yaw] in degrees, pose = transl·rotz(yaw)·roty(pitch)·rotx(roll).
//   - ToTxyzRxyz/FromTxyzRxyz: [x,y,z,rx,ry,rz] in radians, pose = transl·rotx(rx)·roty(ry)·rotz(rz).
//   - ToUR/FromUR: [x,y,z,rx,ry,rz] where the rotation vector is axis·angle in radians.
//   - ToQuaternion/FromQuaternion: [w,x,y,z].
//
// Multiplication:
//
// Mul switches to a recursive divide-and-conquer (Strassen) product when every involved
// dimension reaches StrassenThreshold, and uses the direct triple loop otherwise.
package robomath
