package raster

import (
	"image/color"
	"math"

	"sly-level-decoder/internal/mathutil"
)

// Vertex is a projected vertex: X/Y in pixels, Z depth (larger is nearer),
// U/V texture coordinates.
type Vertex struct {
	X, Y, Z float64
	U, V    float64
}

// alphaCutoff is the lowest texel alpha, after hardware scaling, that still
// covers a pixel; cut-out foliage and fences stay see-through.
const alphaCutoff = 8

// RasterizeTriangle draws one flat-shaded triangle with z-buffering. When tex
// is nil, or a texture coordinate is not finite, the pixel is filled with base.
func RasterizeTriangle(fb *FrameBuffer, tri [3]Vertex, tex *Sampler, base color.NRGBA, light *Light) {
	a, b, c := tri[0], tri[1], tri[2]

	// Face normal for flat shading
	e1 := mathutil.Vec3{float32(b.X - a.X), float32(b.Y - a.Y), float32(b.Z - a.Z)}
	e2 := mathutil.Vec3{float32(c.X - a.X), float32(c.Y - a.Y), float32(c.Z - a.Z)}
	n := e1.Cross(e2)
	if n.Len() < 1e-8 {
		return
	}
	shade := light.Shade(n.Normalize())

	// Bounding box
	size := fb.Size
	minX := max(int(math.Floor(min(a.X, b.X, c.X))), 0)
	maxX := min(int(math.Ceil(max(a.X, b.X, c.X))), size-1)
	minY := max(int(math.Floor(min(a.Y, b.Y, c.Y))), 0)
	maxY := min(int(math.Ceil(max(a.Y, b.Y, c.Y))), size-1)
	if minX > maxX || minY > maxY {
		return
	}

	// Barycentric setup
	det := (b.Y-c.Y)*(a.X-c.X) + (c.X-b.X)*(a.Y-c.Y)
	if det > -1e-8 && det < 1e-8 {
		return
	}
	invDet := 1.0 / det
	dy12 := b.Y - c.Y
	dx21 := c.X - b.X
	dy20 := c.Y - a.Y
	dx02 := a.X - c.X

	for sy := minY; sy <= maxY; sy++ {
		dsy := float64(sy) - c.Y
		rowOff := sy * size
		for sx := minX; sx <= maxX; sx++ {
			dsx := float64(sx) - c.X
			w0 := (dy12*dsx + dx21*dsy) * invDet
			w1 := (dy20*dsx + dx02*dsy) * invDet
			w2 := 1.0 - w0 - w1
			if w0 < -0.001 || w1 < -0.001 || w2 < -0.001 {
				continue
			}

			z := w0*a.Z + w1*b.Z + w2*c.Z
			zIdx := rowOff + sx
			if z <= fb.ZBuf[zIdx] {
				continue
			}

			col := base
			if tex != nil {
				u := w0*a.U + w1*b.U + w2*c.U
				v := w0*a.V + w1*b.V + w2*c.V
				if c, ok := tex.At(u, v); ok {
					col = c
				}
			}
			if col.A < alphaCutoff {
				continue
			}
			fb.ZBuf[zIdx] = z

			px := zIdx * 4
			fb.Color[px] = clamp255(float64(col.R) * shade)
			fb.Color[px+1] = clamp255(float64(col.G) * shade)
			fb.Color[px+2] = clamp255(float64(col.B) * shade)
			fb.Color[px+3] = 255
		}
	}
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
