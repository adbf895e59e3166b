package geometry

import "math"

// Matrix4 is a 4x4 affine transform stored row-major. Points are treated as
// column vectors, so M.Mul(N) applies N first and M second.
type Matrix4 [16]float64

// Identity returns the identity matrix
func Identity() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Translation returns a matrix translating by t
func Translation(t Vector3) Matrix4 {
	m := Identity()
	m[3], m[7], m[11] = t.X, t.Y, t.Z
	return m
}

// Scaling returns a matrix scaling each axis by s
func Scaling(s Vector3) Matrix4 {
	m := Identity()
	m[0], m[5], m[10] = s.X, s.Y, s.Z
	return m
}

// UniformScaling returns a matrix scaling all axes by s
func UniformScaling(s float64) Matrix4 {
	return Scaling(NewVector3(s, s, s))
}

// RotationY returns a right-handed rotation about the +Y axis
func RotationY(angle float64) Matrix4 {
	c, s := math.Cos(angle), math.Sin(angle)
	return Matrix4{
		c, 0, s, 0,
		0, 1, 0, 0,
		-s, 0, c, 0,
		0, 0, 0, 1,
	}
}

// At returns the element at the given row and column
func (m Matrix4) At(row, col int) float64 {
	return m[row*4+col]
}

// Mul returns m * other
func (m Matrix4) Mul(other Matrix4) Matrix4 {
	var out Matrix4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[r*4+k] * other[k*4+c]
			}
			out[r*4+c] = sum
		}
	}
	return out
}

// TransformPoint applies the full affine transform to a point
func (m Matrix4) TransformPoint(p Vector3) Vector3 {
	return Vector3{
		X: m[0]*p.X + m[1]*p.Y + m[2]*p.Z + m[3],
		Y: m[4]*p.X + m[5]*p.Y + m[6]*p.Z + m[7],
		Z: m[8]*p.X + m[9]*p.Y + m[10]*p.Z + m[11],
	}
}

// TransformDirection applies only the linear part of the transform
func (m Matrix4) TransformDirection(d Vector3) Vector3 {
	return Vector3{
		X: m[0]*d.X + m[1]*d.Y + m[2]*d.Z,
		Y: m[4]*d.X + m[5]*d.Y + m[6]*d.Z,
		Z: m[8]*d.X + m[9]*d.Y + m[10]*d.Z,
	}
}

// Position returns the translation column
func (m Matrix4) Position() Vector3 {
	return Vector3{X: m[3], Y: m[7], Z: m[11]}
}

// Determinant3 returns the determinant of the upper-left 3x3 block
func (m Matrix4) Determinant3() float64 {
	return m[0]*(m[5]*m[10]-m[6]*m[9]) -
		m[1]*(m[4]*m[10]-m[6]*m[8]) +
		m[2]*(m[4]*m[9]-m[5]*m[8])
}

// NormalMatrix returns the inverse transpose of the linear part, used to
// transform surface normals. ok is false when the matrix is singular.
func (m Matrix4) NormalMatrix() (Matrix4, bool) {
	det := m.Determinant3()
	if math.Abs(det) < 1e-15 {
		return Identity(), false
	}
	inv := 1.0 / det

	// Cofactor matrix of the 3x3 block equals (inverse)^T * det
	n := Identity()
	n[0] = (m[5]*m[10] - m[6]*m[9]) * inv
	n[1] = -(m[4]*m[10] - m[6]*m[8]) * inv
	n[2] = (m[4]*m[9] - m[5]*m[8]) * inv
	n[4] = -(m[1]*m[10] - m[2]*m[9]) * inv
	n[5] = (m[0]*m[10] - m[2]*m[8]) * inv
	n[6] = -(m[0]*m[9] - m[1]*m[8]) * inv
	n[8] = (m[1]*m[6] - m[2]*m[5]) * inv
	n[9] = -(m[0]*m[6] - m[2]*m[4]) * inv
	n[10] = (m[0]*m[5] - m[1]*m[4]) * inv
	return n, true
}

// ApproxEqual reports whether every element differs by at most tol
func (m Matrix4) ApproxEqual(other Matrix4, tol float64) bool {
	for i := range m {
		if math.Abs(m[i]-other[i]) > tol {
			return false
		}
	}
	return true
}

// Inverse returns the inverse of an affine matrix. ok is false when the
// linear part is singular.
func (m Matrix4) Inverse() (Matrix4, bool) {
	normal, ok := m.NormalMatrix()
	if !ok {
		return Identity(), false
	}
	// The inverse of the linear part is the transpose of the normal matrix
	inv := Identity()
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			inv[r*4+c] = normal[c*4+r]
		}
	}
	t := inv.TransformDirection(m.Position())
	inv[3], inv[7], inv[11] = -t.X, -t.Y, -t.Z
	return inv, true
}
