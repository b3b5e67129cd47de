// Package bake writes edited transforms and vertex positions back into a
// level buffer. Only fixed-width float fields whose offsets were recorded
// during decode can be edited; nothing is resized or re-encoded.
package bake

import (
	"encoding/binary"
	"fmt"
	"math"

	"sly-level-decoder/internal/diag"
	"sly-level-decoder/internal/mathutil"
	"sly-level-decoder/internal/szms"
)

// Edit overwrites len(Floats) consecutive f32 values at Offset.
type Edit struct {
	Offset int
	Floats []float32
}

// Matrix stores m as the 12 on-disk floats at off.
func Matrix(off int, m mathutil.Mat4) Edit {
	rows := m.Rows()
	return Edit{Offset: off, Floats: rows[:]}
}

// Position stores v at off.
func Position(off int, v mathutil.Vec3) Edit {
	return Edit{Offset: off, Floats: []float32{v[0], v[1], v[2]}}
}

// InstanceTransform replaces the transform of an instance mesh.
func InstanceTransform(m *szms.Mesh, t mathutil.Mat4) (Edit, error) {
	if !m.IsInstance() {
		return Edit{}, fmt.Errorf("bake: mesh at 0x%06X is not an instance", m.Offset)
	}
	return Matrix(m.TransformOffset, t), nil
}

// RecordTransform replaces the i-th trailing instance transform of a
// definition mesh.
func RecordTransform(m *szms.Mesh, i int, t mathutil.Mat4) (Edit, error) {
	if i < 0 || i >= len(m.Instances) {
		return Edit{}, fmt.Errorf("bake: mesh at 0x%06X: instance %d of %d", m.Offset, i, len(m.Instances))
	}
	return Matrix(m.Instances[i].Offset, t), nil
}

// SubmeshTransform replaces a submesh record's local transform.
func SubmeshTransform(r szms.SubmeshRecord, t mathutil.Mat4) (Edit, error) {
	if r.Transform == nil {
		return Edit{}, fmt.Errorf("bake: submesh %d at 0x%06X has no transform", r.ID, r.Offset)
	}
	return Matrix(r.TransformOffset, t), nil
}

// VertexPosition moves vertex i of ch.
func VertexPosition(ch *szms.Chunk, i int, v mathutil.Vec3) (Edit, error) {
	if i < 0 || i >= ch.VertexCount() {
		return Edit{}, fmt.Errorf("bake: %s: vertex %d of %d", ch.Name, i, ch.VertexCount())
	}
	return Position(ch.VertexDataOffset+i*szms.VertexStride, v), nil
}

// Apply returns a copy of buf with every edit written. The copy always has
// the same length as buf; an edit that would not fit fails the whole call.
func Apply(buf []byte, edits []Edit) ([]byte, error) {
	for _, e := range edits {
		if n := 4 * len(e.Floats); e.Offset < 0 || e.Offset > len(buf)-n {
			return nil, diag.Errorf(diag.OutOfBounds, e.Offset, "edit of %d bytes past end of %d-byte buffer", n, len(buf))
		}
	}
	out := make([]byte, len(buf))
	copy(out, buf)
	for _, e := range edits {
		for i, f := range e.Floats {
			binary.LittleEndian.PutUint32(out[e.Offset+4*i:], math.Float32bits(f))
		}
	}
	return out, nil
}
