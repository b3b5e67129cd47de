package mathutil

// Mat4 is a 4×4 matrix laid out the way the game stores it: four rows of
// [x, y, z, 0] with the translation in the last row (elements 12..14).
// Points are transformed as row vectors (p × M).
type Mat4 [16]float32

func Mat4Identity() Mat4 {
	return Mat4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Mat4FromRows builds a matrix from the 12 floats stored on disk
// (four rows of three); the last column becomes [0, 0, 0, 1].
func Mat4FromRows(f [12]float32) Mat4 {
	return Mat4{
		f[0], f[1], f[2], 0,
		f[3], f[4], f[5], 0,
		f[6], f[7], f[8], 0,
		f[9], f[10], f[11], 1,
	}
}

// Rows returns the 12 floats that Mat4FromRows consumed.
func (m Mat4) Rows() [12]float32 {
	return [12]float32{
		m[0], m[1], m[2],
		m[4], m[5], m[6],
		m[8], m[9], m[10],
		m[12], m[13], m[14],
	}
}

// Mat4Mul returns a × b (apply a, then b).
func Mat4Mul(a, b Mat4) Mat4 {
	var m Mat4
	for r := 0; r < 4; r++ {
		for c := 0; c < 4; c++ {
			m[r*4+c] = a[r*4+0]*b[0*4+c] + a[r*4+1]*b[1*4+c] +
				a[r*4+2]*b[2*4+c] + a[r*4+3]*b[3*4+c]
		}
	}
	return m
}

// MulPoint transforms a 3D point (w=1) by the matrix.
func (m Mat4) MulPoint(v Vec3) Vec3 {
	return Vec3{
		v[0]*m[0] + v[1]*m[4] + v[2]*m[8] + m[12],
		v[0]*m[1] + v[1]*m[5] + v[2]*m[9] + m[13],
		v[0]*m[2] + v[1]*m[6] + v[2]*m[10] + m[14],
	}
}

// MulDir transforms a direction (w=0): the translation row is ignored.
func (m Mat4) MulDir(v Vec3) Vec3 {
	return Vec3{
		v[0]*m[0] + v[1]*m[4] + v[2]*m[8],
		v[0]*m[1] + v[1]*m[5] + v[2]*m[9],
		v[0]*m[2] + v[1]*m[6] + v[2]*m[10],
	}
}

// Translation returns the translation row.
func (m Mat4) Translation() Vec3 {
	return Vec3{m[12], m[13], m[14]}
}

// IsIdentity checks if the matrix is approximately identity.
func (m Mat4) IsIdentity() bool {
	id := Mat4Identity()
	for i := 0; i < 16; i++ {
		d := m[i] - id[i]
		if d > 1e-6 || d < -1e-6 {
			return false
		}
	}
	return true
}
