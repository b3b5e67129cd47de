package raster

import (
	"image"
	"image/color"
	"math"
)

// Sampler reads texels from a decoded palette texture. The texture keeps the
// hardware alpha range, where 0x80 is opaque; colors come back with alpha
// scaled to 0..255. Lookups take the nearest texel so palette edges stay hard.
type Sampler struct {
	img  *image.NRGBA
	w, h int
}

// NewSampler wraps img. It returns nil for a nil or empty image.
func NewSampler(img *image.NRGBA) *Sampler {
	if img == nil || img.Rect.Empty() {
		return nil
	}
	return &Sampler{img: img, w: img.Rect.Dx(), h: img.Rect.Dy()}
}

// At returns the texel under (u, v), wrapping coordinates outside [0, 1).
// ok is false when either coordinate is NaN or infinite.
func (s *Sampler) At(u, v float64) (c color.NRGBA, ok bool) {
	if !finite(u) || !finite(v) {
		return c, false
	}
	x := s.img.Rect.Min.X + wrapTexel(u, s.w)
	y := s.img.Rect.Min.Y + wrapTexel(v, s.h)
	p := s.img.Pix[s.img.PixOffset(x, y):]
	return color.NRGBA{p[0], p[1], p[2], hardwareAlpha(p[3])}, true
}

// Average is the mean color of the opaque-enough texels, used for triangles
// without usable texture coordinates. Fully transparent textures give
// untextured.
func (s *Sampler) Average() color.NRGBA {
	var sum [3]float64
	n := 0
	for y := s.img.Rect.Min.Y; y < s.img.Rect.Max.Y; y++ {
		for x := s.img.Rect.Min.X; x < s.img.Rect.Max.X; x++ {
			p := s.img.Pix[s.img.PixOffset(x, y):]
			if hardwareAlpha(p[3]) < alphaCutoff {
				continue
			}
			sum[0] += float64(p[0])
			sum[1] += float64(p[1])
			sum[2] += float64(p[2])
			n++
		}
	}
	if n == 0 {
		return untextured
	}
	f := float64(n)
	return color.NRGBA{uint8(sum[0]/f + 0.5), uint8(sum[1]/f + 0.5), uint8(sum[2]/f + 0.5), 255}
}

func wrapTexel(t float64, n int) int {
	i := int((t - math.Floor(t)) * float64(n))
	return min(max(i, 0), n-1)
}

func finite(f float64) bool { return !math.IsNaN(f) && !math.IsInf(f, 0) }

func hardwareAlpha(a uint8) uint8 {
	if a >= 0x80 {
		return 0xFF
	}
	return a * 2
}
