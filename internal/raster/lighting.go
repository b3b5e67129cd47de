package raster

import (
	"math"

	"sly-level-decoder/internal/mathutil"
)

// Light is a flat-shading setup: one directional light plus ambient, in view
// space (+Z towards the camera).
type Light struct {
	Dir     mathutil.Vec3
	Ambient float64
	Direct  float64
}

// DefaultLight lights from above and slightly behind the camera.
func DefaultLight() Light {
	return Light{
		Dir:     mathutil.Vec3{0.3, 0.4, 1}.Normalize(),
		Ambient: 0.45,
		Direct:  0.65,
	}
}

// Shade returns the lighting scalar for a unit face normal. Faces are
// double-sided.
func (l *Light) Shade(n mathutil.Vec3) float64 {
	return l.Ambient + math.Abs(float64(n.Dot(l.Dir)))*l.Direct
}
