// Package export writes decoded mesh containers as Wavefront OBJ/MTL.
package export

import (
	"bufio"
	"fmt"
	"io"
	"slices"

	"sly-level-decoder/internal/mathutil"
	"sly-level-decoder/internal/szms"
)

// Summary describes what WriteOBJ wrote.
type Summary struct {
	Vertices int
	Faces    int
	// Roles lists every texture role referenced by a usemtl, sorted.
	Roles []int
	// Skipped counts triangles dropped for indexing past their chunk.
	Skipped int
}

// MaterialName is the OBJ material used for a texture role.
func MaterialName(role int) string { return fmt.Sprintf("role_%03d", role) }

// WriteOBJ writes every chunk of every definition mesh once per placement
// (the definition itself, its instance records and any instance meshes
// referring to it). mtllib is written when non-empty.
func WriteOBJ(w io.Writer, containers []*szms.Container, mtllib string) (Summary, error) {
	bw := bufio.NewWriter(w)
	var s Summary
	roles := map[int]bool{}

	if mtllib != "" {
		fmt.Fprintf(bw, "mtllib %s\n", mtllib)
	}
	for _, ct := range containers {
		for _, def := range ct.Definitions() {
			for p, xf := range ct.Placements(def) {
				for ci, ch := range def.Chunks {
					fmt.Fprintf(bw, "o c%d_s%d_p%d_%d\n", ct.Index, def.Slot, p, ci)
					base := s.Vertices + 1
					writeVertices(bw, ch, xf)
					s.Vertices += ch.VertexCount()

					for list, tris := range ch.Triangles {
						if len(tris) < 3 {
							continue
						}
						if role, ok := ch.Role(list); ok {
							roles[role] = true
							fmt.Fprintf(bw, "usemtl %s\n", MaterialName(role))
						}
						n := ch.VertexCount()
						for i := 0; i+2 < len(tris); i += 3 {
							a, b, c := int(tris[i]), int(tris[i+1]), int(tris[i+2])
							if a >= n || b >= n || c >= n {
								s.Skipped++
								continue
							}
							fmt.Fprintf(bw, "f %d/%d/%d %d/%d/%d %d/%d/%d\n", base+a, base+a, base+a, base+b, base+b, base+b, base+c, base+c, base+c)
							s.Faces++
						}
					}
				}
			}
		}
	}
	for r := range roles {
		s.Roles = append(s.Roles, r)
	}
	slices.Sort(s.Roles)
	return s, bw.Flush()
}

func writeVertices(w io.Writer, ch *szms.Chunk, xf mathutil.Mat4) {
	for i := 0; i < ch.VertexCount(); i++ {
		p := xf.MulPoint(mathutil.Vec3{ch.Positions[3*i], ch.Positions[3*i+1], ch.Positions[3*i+2]})
		fmt.Fprintf(w, "v %g %g %g\n", p[0], p[1], p[2])
	}
	for i := 0; i < ch.VertexCount(); i++ {
		var u, v float32
		if 2*i+1 < len(ch.TexCoords) {
			u, v = ch.TexCoords[2*i], ch.TexCoords[2*i+1]
		}
		fmt.Fprintf(w, "vt %g %g\n", u, 1-v)
	}
	for i := 0; i < ch.VertexCount(); i++ {
		var n mathutil.Vec3
		if 3*i+2 < len(ch.Normals) {
			n = xf.MulDir(mathutil.Vec3{ch.Normals[3*i], ch.Normals[3*i+1], ch.Normals[3*i+2]}).Normalize()
		}
		fmt.Fprintf(w, "vn %g %g %g\n", n[0], n[1], n[2])
	}
}

// WriteMTL writes one material per role. texture returns the file a role's
// diffuse map was written to, or "" when it has none.
func WriteMTL(w io.Writer, roles []int, texture func(role int) string) error {
	bw := bufio.NewWriter(w)
	for _, r := range roles {
		fmt.Fprintf(bw, "newmtl %s\nKd 1 1 1\n", MaterialName(r))
		if file := texture(r); file != "" {
			fmt.Fprintf(bw, "map_Kd %s\n", file)
		}
		fmt.Fprintln(bw)
	}
	return bw.Flush()
}
