package geometry

import "math"

// Quaternion represents a rotation
type Quaternion struct {
	X, Y, Z, W float64
}

// IdentityQuaternion returns the quaternion for no rotation
func IdentityQuaternion() Quaternion {
	return Quaternion{W: 1}
}

// QuaternionFromAxisAngle creates a rotation of angle radians about axis
func QuaternionFromAxisAngle(axis Vector3, angle float64) Quaternion {
	a := axis.Normalize()
	s := math.Sin(angle / 2)
	return Quaternion{X: a.X * s, Y: a.Y * s, Z: a.Z * s, W: math.Cos(angle / 2)}
}

// QuaternionFromMatrix extracts the rotation from a pure rotation matrix
// (the upper 3x3 block must be orthonormal).
func QuaternionFromMatrix(m Matrix4) Quaternion {
	m11, m12, m13 := m[0], m[1], m[2]
	m21, m22, m23 := m[4], m[5], m[6]
	m31, m32, m33 := m[8], m[9], m[10]

	trace := m11 + m22 + m33
	switch {
	case trace > 0:
		s := 0.5 / math.Sqrt(trace+1.0)
		return Quaternion{
			W: 0.25 / s,
			X: (m32 - m23) * s,
			Y: (m13 - m31) * s,
			Z: (m21 - m12) * s,
		}
	case m11 > m22 && m11 > m33:
		s := 2.0 * math.Sqrt(1.0+m11-m22-m33)
		return Quaternion{
			W: (m32 - m23) / s,
			X: 0.25 * s,
			Y: (m12 + m21) / s,
			Z: (m13 + m31) / s,
		}
	case m22 > m33:
		s := 2.0 * math.Sqrt(1.0+m22-m11-m33)
		return Quaternion{
			W: (m13 - m31) / s,
			X: (m12 + m21) / s,
			Y: 0.25 * s,
			Z: (m23 + m32) / s,
		}
	default:
		s := 2.0 * math.Sqrt(1.0+m33-m11-m22)
		return Quaternion{
			W: (m21 - m12) / s,
			X: (m13 + m31) / s,
			Y: (m23 + m32) / s,
			Z: 0.25 * s,
		}
	}
}

// Normalize returns a unit quaternion
func (q Quaternion) Normalize() Quaternion {
	l := math.Sqrt(q.X*q.X + q.Y*q.Y + q.Z*q.Z + q.W*q.W)
	if l == 0 {
		return IdentityQuaternion()
	}
	return Quaternion{X: q.X / l, Y: q.Y / l, Z: q.Z / l, W: q.W / l}
}

// Matrix returns the rotation matrix for q
func (q Quaternion) Matrix() Matrix4 {
	x, y, z, w := q.X, q.Y, q.Z, q.W
	x2, y2, z2 := x+x, y+y, z+z
	xx, xy, xz := x*x2, x*y2, x*z2
	yy, yz, zz := y*y2, y*z2, z*z2
	wx, wy, wz := w*x2, w*y2, w*z2

	return Matrix4{
		1 - (yy + zz), xy - wz, xz + wy, 0,
		xy + wz, 1 - (xx + zz), yz - wx, 0,
		xz - wy, yz + wx, 1 - (xx + yy), 0,
		0, 0, 0, 1,
	}
}

// YawAngle returns the rotation about +Y, assuming q only rotates about Y
func (q Quaternion) YawAngle() float64 {
	return 2 * math.Atan2(q.Y, q.W)
}
