// Package raster draws a preview image of a decoded level with a small
// software rasterizer: every chunk at every placement, orthographic, flat
// shaded, textured by descriptor role.
package raster

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"sly-level-decoder/internal/mathutil"
	"sly-level-decoder/internal/szms"
)

// View selects the preview camera.
type View string

const (
	ViewTop View = "top" // straight down the Z axis
	ViewIso View = "iso"
)

// ParseView accepts a view name; "" means ViewTop.
func ParseView(s string) (View, error) {
	switch v := View(s); v {
	case "":
		return ViewTop, nil
	case ViewTop, ViewIso:
		return v, nil
	}
	return "", fmt.Errorf("raster: unknown view %q", s)
}

func (v View) matrix() mathutil.Mat4 {
	if v == ViewIso {
		return mathutil.Mat4Mul(mathutil.RotZ(mathutil.Deg2Rad(45)), mathutil.RotX(mathutil.Deg2Rad(-60)))
	}
	return mathutil.Mat4Identity()
}

// Options controls a preview render.
type Options struct {
	Size        int
	Supersample int
	View        View
}

// TextureFunc returns the decoded texture for a role, or nil. Alpha is in the
// hardware range, where 0x80 is opaque.
type TextureFunc func(role int) *image.NRGBA

var untextured = color.NRGBA{160, 160, 170, 255}

// batch is one chunk at one placement, already in view space.
type batch struct {
	chunk *szms.Chunk
	pos   []mathutil.Vec3
}

// RenderLevel renders every container into a Size×Size image.
func RenderLevel(containers []*szms.Container, textures TextureFunc, opts Options) *image.NRGBA {
	if opts.Supersample < 1 {
		opts.Supersample = 1
	}
	renderSize := opts.Size * opts.Supersample
	view := opts.View.matrix()

	// Transform everything once and take the bounding box
	var batches []batch
	lo := mathutil.Vec3{math.MaxFloat32, math.MaxFloat32, math.MaxFloat32}
	hi := lo.Scale(-1)
	for _, ct := range containers {
		for _, def := range ct.Definitions() {
			for _, xf := range ct.Placements(def) {
				m := mathutil.Mat4Mul(xf, view)
				for _, ch := range def.Chunks {
					b := batch{chunk: ch, pos: make([]mathutil.Vec3, ch.VertexCount())}
					for i := range b.pos {
						p := m.MulPoint(mathutil.Vec3{ch.Positions[3*i], ch.Positions[3*i+1], ch.Positions[3*i+2]})
						b.pos[i] = p
						lo, hi = lo.Min(p), hi.Max(p)
					}
					batches = append(batches, b)
				}
			}
		}
	}

	fb := NewFrameBuffer(renderSize)
	if len(batches) == 0 || lo[0] > hi[0] {
		return fb.Resolve(opts.Size)
	}

	center := lo.Add(hi).Scale(0.5)
	span := float64(max(hi[0]-lo[0], hi[1]-lo[1], 0.001))
	margin := renderSize / 16
	scale := float64(renderSize-2*margin) / span
	half := float64(renderSize) / 2

	light := DefaultLight()
	for _, b := range batches {
		verts := make([]Vertex, len(b.pos))
		for i, p := range b.pos {
			verts[i] = Vertex{
				X: float64(p[0]-center[0])*scale + half,
				Y: float64(center[1]-p[1])*scale + half,
				Z: float64(p[2]),
			}
			if 2*i+1 < len(b.chunk.TexCoords) {
				verts[i].U = float64(b.chunk.TexCoords[2*i])
				verts[i].V = float64(b.chunk.TexCoords[2*i+1])
			}
		}

		for list, tris := range b.chunk.Triangles {
			var tex *Sampler
			if role, ok := b.chunk.Role(list); ok && textures != nil {
				tex = NewSampler(textures(role))
			}
			base := untextured
			if tex != nil {
				base = tex.Average()
			}
			for i := 0; i+2 < len(tris); i += 3 {
				a, bb, c := int(tris[i]), int(tris[i+1]), int(tris[i+2])
				if a >= len(verts) || bb >= len(verts) || c >= len(verts) {
					continue
				}
				RasterizeTriangle(fb, [3]Vertex{verts[a], verts[bb], verts[c]}, tex, base, &light)
			}
		}
	}

	return fb.Resolve(opts.Size)
}
