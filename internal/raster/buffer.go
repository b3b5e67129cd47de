package raster

import (
	"image"
	"math"

	"golang.org/x/image/draw"
)

// FrameBuffer holds the rendering target as flat slices for cache locality.
type FrameBuffer struct {
	Size  int
	Color []uint8   // RGBA interleaved, len = Size*Size*4
	ZBuf  []float64 // depth per pixel, initialized to -inf; larger is nearer
}

// NewFrameBuffer allocates a transparent square target.
func NewFrameBuffer(size int) *FrameBuffer {
	n := size * size
	zbuf := make([]float64, n)
	for i := range zbuf {
		zbuf[i] = math.Inf(-1)
	}
	return &FrameBuffer{
		Size:  size,
		Color: make([]uint8, n*4),
		ZBuf:  zbuf,
	}
}

// Image copies the color buffer into an image.
func (fb *FrameBuffer) Image() *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, fb.Size, fb.Size))
	copy(img.Pix, fb.Color)
	return img
}

// Resolve scales a supersampled buffer down to size. The scaler filters in
// premultiplied color, so silhouette edges fade out instead of darkening.
func (fb *FrameBuffer) Resolve(size int) *image.NRGBA {
	src := fb.Image()
	if size >= fb.Size {
		return src
	}
	mid := image.NewRGBA(image.Rect(0, 0, size, size))
	draw.BiLinear.Scale(mid, mid.Bounds(), src, src.Bounds(), draw.Src, nil)
	out := image.NewNRGBA(mid.Bounds())
	draw.Draw(out, out.Bounds(), mid, image.Point{}, draw.Src)
	return out
}
