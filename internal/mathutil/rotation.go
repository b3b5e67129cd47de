package mathutil

import "math"

// RotX returns a rotation around the X axis. Angle in radians; points are
// row vectors, so p.MulPoint turns Y towards Z for positive a.
func RotX(a float64) Mat4 {
	c, s := float32(math.Cos(a)), float32(math.Sin(a))
	return Mat4{
		1, 0, 0, 0,
		0, c, s, 0,
		0, -s, c, 0,
		0, 0, 0, 1,
	}
}

// RotZ returns a rotation around the Z axis (X towards Y for positive a).
func RotZ(a float64) Mat4 {
	c, s := float32(math.Cos(a)), float32(math.Sin(a))
	return Mat4{
		c, s, 0, 0,
		-s, c, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// Deg2Rad converts degrees to radians.
func Deg2Rad(d float64) float64 {
	return d * math.Pi / 180
}
