package szms

import (
	"fmt"

	"sly-level-decoder/internal/cursor"
	"sly-level-decoder/internal/diag"
	"sly-level-decoder/internal/mathutil"
)

// MeshOptions carries the container state a mesh decode depends on.
type MeshOptions struct {
	// Variant is the owning container's Variant byte.
	Variant uint8
	// Slot is the mesh index assigned by the container.
	Slot int
}

// DecodeMesh reads one mesh at the cursor. Magic, version and bounds
// problems are returned as errors and leave the cursor somewhere inside the
// mesh; recoverable oddities (a descriptor record without a chunk) go to
// diags.
func DecodeMesh(c *cursor.Cursor, opts MeshOptions, diags *diag.List) (*Mesh, error) {
	m := &Mesh{Offset: c.Offset(), Slot: opts.Slot}

	flags, err := c.U16()
	if err != nil {
		return nil, err
	}
	m.Flags = MeshFlag(flags)

	if m.IsInstance() {
		return m, decodeInstance(c, m)
	}
	return m, decodeDefinition(c, m, opts, diags)
}

func decodeInstance(c *cursor.Cursor, m *Mesh) error {
	ref, err := c.U16()
	if err != nil {
		return err
	}
	m.Ref = int(ref)
	m.TransformOffset = c.Offset()
	if m.Transform, err = c.Mat4(); err != nil {
		return err
	}

	// Instances carry the preamble and fixed header without the SZME magic.
	if m.Preamble, err = readPreamble(c, m.Flags); err != nil {
		return err
	}
	m.Header, err = readHeader(c)
	return err
}

func decodeDefinition(c *cursor.Cursor, m *Mesh, opts MeshOptions, diags *diag.List) error {
	if err := expectU32(c, MagicSZMS, "SZMS magic"); err != nil {
		return err
	}
	if err := expectU32(c, Version, "SZMS version"); err != nil {
		return err
	}
	var err error
	if m.TotalSize, err = c.U32(); err != nil {
		return err
	}

	if m.Chunks, err = readGeometry(c, m.Offset); err != nil {
		return err
	}
	if len(m.Chunks) == 0 {
		return diag.Errorf(diag.FormatMismatch, m.Offset, "definition mesh has no geometry chunks")
	}
	if end := m.Offset + 14 + int(m.TotalSize); end > c.Len() {
		diags.Addf(diag.OutOfBounds, m.Offset, "declared SZMS size 0x%X runs past end of buffer", m.TotalSize)
	}

	if err := expectU32(c, MagicSZME, "SZME magic"); err != nil {
		return err
	}
	if m.Preamble, err = readPreamble(c, m.Flags); err != nil {
		return err
	}
	if m.Header, err = readHeader(c); err != nil {
		return err
	}
	if err := readDescriptors(c, m, diags); err != nil {
		return err
	}
	if err := skipTrailingArray(c); err != nil {
		return err
	}
	return readInstances(c, m, opts.Variant)
}

func expectU32(c *cursor.Cursor, want uint32, what string) error {
	off := c.Offset()
	got, err := c.U32()
	if err != nil {
		return err
	}
	if got != want {
		return diag.Errorf(diag.FormatMismatch, off, "bad %s: got 0x%08X, want 0x%08X", what, got, want)
	}
	return nil
}

// readGeometry reads the geometry header and visits every chunk through the
// offset table. Offsets are relative to the first byte after the size field.
func readGeometry(c *cursor.Cursor, meshOffset int) ([]*Chunk, error) {
	base := c.Offset()

	c.Skip(4 + 2) // opaque header words
	n, err := c.U16()
	if err != nil {
		return nil, err
	}
	offsets, err := c.U32s(int(n))
	if err != nil {
		return nil, err
	}

	chunks := make([]*Chunk, 0, n)
	for _, rel := range offsets {
		ch, err := readChunk(c, base, rel)
		if err != nil {
			return nil, err
		}
		ch.Name = fmt.Sprintf("SZMS %06X %2d | %06X", meshOffset, n, ch.Offset)
		chunks = append(chunks, ch)
	}
	return chunks, nil
}

func readChunk(c *cursor.Cursor, base int, rel uint32) (*Chunk, error) {
	ch := &Chunk{Offset: cursor.Rel(base, rel)}
	c.Seek(ch.Offset)

	c.Skip(4)
	vertexCount, err := c.U16()
	if err != nil {
		return nil, err
	}
	c.Skip(2)
	vertexRel, err := c.U32()
	if err != nil {
		return nil, err
	}
	indexRel, err := c.U32()
	if err != nil {
		return nil, err
	}

	ch.VertexDataOffset = cursor.Rel(base, vertexRel)
	c.Seek(ch.VertexDataOffset)
	if err := readVertices(c, ch, int(vertexCount)); err != nil {
		return nil, err
	}

	c.Seek(cursor.Rel(base, indexRel))
	type indexHeader struct {
		triangles, aux      uint16
		triangleRel, auxRel uint32
	}
	var hdr [2]indexHeader
	for i := range hdr {
		if hdr[i].triangles, err = c.U16(); err != nil {
			return nil, err
		}
		if hdr[i].aux, err = c.U16(); err != nil {
			return nil, err
		}
		if hdr[i].triangleRel, err = c.U32(); err != nil {
			return nil, err
		}
		if hdr[i].auxRel, err = c.U32(); err != nil {
			return nil, err
		}
	}
	for i, h := range hdr {
		c.Seek(cursor.Rel(base, h.triangleRel))
		if ch.Triangles[i], err = c.U16s(int(h.triangles) * 3); err != nil {
			return nil, err
		}
		c.Seek(cursor.Rel(base, h.auxRel))
		if ch.AuxIndices[i], err = c.U16s(int(h.aux)); err != nil {
			return nil, err
		}
	}
	return ch, nil
}

func readVertices(c *cursor.Cursor, ch *Chunk, n int) error {
	if c.Remaining() < n*VertexStride {
		return diag.Errorf(diag.OutOfBounds, c.Offset(), "%d vertices need 0x%X bytes", n, n*VertexStride)
	}
	ch.Positions = make([]float32, 0, n*3)
	ch.Normals = make([]float32, 0, n*3)
	ch.TexCoords = make([]float32, 0, n*2)
	ch.Colors = make([]uint32, 0, n)
	ch.ColorFloats = make([]float32, 0, n*4)

	for i := 0; i < n; i++ {
		pos, err := c.Vec3()
		if err != nil {
			return err
		}
		nrm, err := c.Vec3()
		if err != nil {
			return err
		}
		uv, err := c.Vec2()
		if err != nil {
			return err
		}
		col, err := c.U32()
		if err != nil {
			return err
		}
		ch.Positions = append(ch.Positions, pos[:]...)
		ch.Normals = append(ch.Normals, nrm[:]...)
		ch.TexCoords = append(ch.TexCoords, uv[:]...)
		ch.Colors = append(ch.Colors, col)

		// Same four bytes again, one channel at a time.
		c.Skip(-4)
		for k := 0; k < 4; k++ {
			b, err := c.U8()
			if err != nil {
				return err
			}
			ch.ColorFloats = append(ch.ColorFloats, float32(b)/255)
		}
	}
	return nil
}

// readDescriptors reads the SZME record list and attaches each record to the
// chunk with the same index.
func readDescriptors(c *cursor.Cursor, m *Mesh, diags *diag.List) error {
	count, err := c.U16()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		d, err := readDescriptor(c)
		if err != nil {
			return err
		}
		if i >= len(m.Chunks) {
			diags.Addf(diag.IndexOutOfRange, d.Offset, "descriptor %d has no chunk (mesh has %d)", i, len(m.Chunks))
			continue
		}
		m.Chunks[i].Descriptor = d
	}
	return nil
}

func readDescriptor(c *cursor.Cursor) (*Descriptor, error) {
	d := &Descriptor{Offset: c.Offset()}
	var err error
	if d.Origin, err = c.Vec3(); err != nil {
		return nil, err
	}
	if d.Param, err = c.F32(); err != nil {
		return nil, err
	}
	counts, err := c.Bytes(5)
	if err != nil {
		return nil, err
	}
	nPos, nRot, nCol, nUV, nIdx := int(counts[0]), int(counts[1]), int(counts[2]), int(counts[3]), int(counts[4])
	c.Align(4)

	if d.Positions, err = readVec3s(c, nPos); err != nil {
		return nil, err
	}
	if d.Rotations, err = readVec3s(c, nRot); err != nil {
		return nil, err
	}
	if d.Colors, err = c.U32s(nCol); err != nil {
		return nil, err
	}
	d.TexCoords = make([]mathutil.Vec2, 0, nUV)
	for i := 0; i < nUV; i++ {
		uv, err := c.Vec2()
		if err != nil {
			return nil, err
		}
		d.TexCoords = append(d.TexCoords, uv)
	}
	if d.Indices, err = c.U32s(nIdx); err != nil {
		return nil, err
	}

	if d.Role0, err = c.U16(); err != nil {
		return nil, err
	}
	if d.Role1, err = c.U8(); err != nil {
		return nil, err
	}
	if d.WeightCount, err = c.U8(); err != nil {
		return nil, err
	}
	w := int(d.WeightCount)
	c.Skip(w)            // u8 per weight
	c.Skip(w * nPos * 4) // f32 per weight and position
	return d, nil
}

func readVec3s(c *cursor.Cursor, n int) ([]mathutil.Vec3, error) {
	out := make([]mathutil.Vec3, 0, n)
	for i := 0; i < n; i++ {
		v, err := c.Vec3()
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// skipTrailingArray consumes the count-prefixed array that follows the
// descriptor records. Its contents are unknown.
func skipTrailingArray(c *cursor.Cursor) error {
	count, err := c.U16()
	if err != nil {
		return err
	}
	for i := 0; i < int(count); i++ {
		a, err := c.U8()
		if err != nil {
			return err
		}
		c.Skip(int(a) * 12) // vec3
		b, err := c.U8()
		if err != nil {
			return err
		}
		c.Skip(int(b) * 4) // u32
		n, err := c.U8()
		if err != nil {
			return err
		}
		c.Skip(int(n))              // u8
		c.Skip(int(a) * int(n) * 4) // f32
	}
	return nil
}

// readInstances reads the trailing instance records of a definition mesh.
func readInstances(c *cursor.Cursor, m *Mesh, variant uint8) error {
	n := m.InstanceCount()
	if n == 0 {
		return nil
	}
	m.Instances = make([]Instance, 0, n)
	for i := 0; i < n; i++ {
		c.Skip(1)
		if variant == 0 {
			c.Skip(4)
		}
		c.Skip(2)
		inst := Instance{Offset: c.Offset()}
		var err error
		if inst.Transform, err = c.Mat4(); err != nil {
			return err
		}
		c.Skip(4 + 1)
		if err := skipK13(c); err != nil {
			return err
		}
		m.Instances = append(m.Instances, inst)
	}
	return nil
}

// skipK13 consumes the nested list structure shared by instance records.
func skipK13(c *cursor.Cursor) error {
	groups, err := c.U16()
	if err != nil {
		return err
	}
	if groups == 0 {
		return nil
	}
	for i := 0; i < int(groups); i++ {
		n, err := c.U16()
		if err != nil {
			return err
		}
		c.Skip(int(n) * (2 + 2 + 1))
	}
	tail, err := c.U16()
	if err != nil {
		return err
	}
	c.Skip(int(tail) * 2)
	return nil
}
