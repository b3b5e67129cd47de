package szms

import (
	"fmt"

	"go.uber.org/zap"

	"sly-level-decoder/internal/cursor"
	"sly-level-decoder/internal/diag"
	"sly-level-decoder/internal/mathutil"
)

// Fixed record widths of the small tables between the submesh table and the
// mesh list.
const (
	tableARecord = 2 + 2 + 2 + 3*4 + 2 + 3*4
	tableBRecord = 2 + 2 + 1 + 1
	tableCRecord = 1 + 4 + 4 + 4 + 4 + 3*4 + 3*4
	lightRecord  = 2 + 0x20
)

// DecodeContainer decodes the mesh container at the cursor.
//
// Only a bounds error on one of the container's own count or header fields is
// returned: every later offset would be wrong. A truncated submesh record is
// recorded in Diagnostics and ends the read at the buffer end. An error inside
// a mesh is recorded with the mesh offset and decoding stops there; the meshes
// decoded so far are kept.
func DecodeContainer(c *cursor.Cursor, index int, log *zap.Logger) (*Container, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ct := &Container{Index: index, Offset: c.Offset()}
	log = log.With(zap.Int("container", index), zap.String("offset", hex(ct.Offset)))

	if err := readSubmeshTable(c, ct); err != nil {
		return nil, fmt.Errorf("szms: container %d submesh table: %w", index, err)
	}
	if err := readContainerTables(c, ct); err != nil {
		return nil, fmt.Errorf("szms: container %d tables: %w", index, err)
	}

	meshCount, err := c.U16()
	if err != nil {
		return nil, fmt.Errorf("szms: container %d mesh count: %w", index, err)
	}
	ct.MeshCount = int(meshCount)
	log.Debug("mesh table", zap.Int("slots", ct.MeshCount), zap.Int("submeshes", len(ct.Submeshes)))

	for slot := 0; slot < ct.MeshCount; {
		off := c.Offset()
		m, err := DecodeMesh(c, MeshOptions{Variant: ct.Variant, Slot: slot}, &ct.Diagnostics)
		if err != nil {
			ct.Diagnostics.Add(off, err)
			log.Warn("mesh decode failed, dropping rest of container",
				zap.Int("slot", slot), zap.String("mesh_offset", hex(off)), zap.Error(err))
			break
		}
		ct.Meshes = append(ct.Meshes, m)
		slot = NextMeshIndex(slot, m)
	}

	ct.checkInstanceRefs()
	log.Debug("container decoded", zap.Int("meshes", len(ct.Meshes)), zap.Int("diagnostics", len(ct.Diagnostics)))
	return ct, nil
}

func readSubmeshTable(c *cursor.Cursor, ct *Container) error {
	count, err := c.U16()
	if err != nil {
		return err
	}
	ct.Submeshes = make([]SubmeshRecord, 0, count)
	for i := 0; i < int(count); i++ {
		r, err := readSubmesh(c)
		if err != nil {
			ct.Diagnostics.Add(r.Offset, err)
			c.Seek(c.Len())
			return nil
		}
		ct.Submeshes = append(ct.Submeshes, r)
	}
	return nil
}

func readSubmesh(c *cursor.Cursor) (SubmeshRecord, error) {
	r := SubmeshRecord{Offset: c.Offset()}
	var err error
	if r.ID, err = c.U16(); err != nil {
		return r, err
	}
	if r.Kind, err = c.U16(); err != nil {
		return r, err
	}
	if r.Param, err = c.U32(); err != nil {
		return r, err
	}
	if r.Flags, err = c.U8(); err != nil {
		return r, err
	}
	c.Skip(submeshFlagBytes(r.Flags))

	hasMatrix, skip := localTransformLayout(r.Kind)
	if !hasMatrix {
		c.Skip(skip)
		return r, nil
	}
	r.TransformOffset = c.Offset()
	m, err := c.Mat4()
	if err != nil {
		return r, err
	}
	r.Transform = &m
	return r, nil
}

// submeshFlagBytes returns how many opaque bytes the record's flag byte adds
// before the transform.
func submeshFlagBytes(flags uint8) int {
	n := 0
	if flags&0x1 != 0 {
		n += 4
	} else if flags&0x2 != 0 {
		n += 4 + 4
	}
	if flags&0x4 != 0 {
		n += 1
	}
	if flags&0x8 != 0 {
		n += 1 + 4 + 3*4*4 + 1 + 1 + 4
	}
	if flags&0x10 != 0 {
		n += 1 + 4 + 4
	}
	if flags&0x20 != 0 {
		n += 3 * 4
	}
	return n
}

func readContainerTables(c *cursor.Cursor, ct *Container) error {
	n, err := c.U8()
	if err != nil {
		return err
	}
	c.Skip(int(n) * tableARecord)

	if n, err = c.U8(); err != nil {
		return err
	}
	c.Skip(int(n) * tableBRecord)

	if n, err = c.U8(); err != nil {
		return err
	}
	for i := 0; i < int(n); i++ {
		c.Skip(tableCRecord)
		k, err := c.U8()
		if err != nil {
			return err
		}
		c.Skip(int(k) * 2)
	}

	c.Skip(2 + 2 + 2 + 4)

	if ct.Variant, err = c.U8(); err != nil {
		return err
	}
	if ct.Center, err = c.Vec3(); err != nil {
		return err
	}
	if ct.Radius, err = c.F32(); err != nil {
		return err
	}
	if n, err = c.U8(); err != nil {
		return err
	}
	c.Skip(int(n)*lightRecord + 1)
	return nil
}

// checkInstanceRefs records instance meshes whose back-reference does not
// name a definition slot of this container.
func (ct *Container) checkInstanceRefs() {
	for _, m := range ct.Meshes {
		if !m.IsInstance() {
			continue
		}
		if _, ok := ct.Definition(m.Ref); !ok {
			ct.Diagnostics.Addf(diag.IndexOutOfRange, m.Offset, "instance refers to slot %d, which is not a definition", m.Ref)
		}
	}
}

// Definition returns the definition mesh occupying slot.
func (ct *Container) Definition(slot int) (*Mesh, bool) {
	for _, m := range ct.Meshes {
		if !m.IsInstance() && m.Slot == slot {
			return m, true
		}
	}
	return nil, false
}

// Placements returns every transform def is drawn with: identity for the
// definition itself, its trailing instance records, then any instance meshes
// that refer to it.
func (ct *Container) Placements(def *Mesh) []mathutil.Mat4 {
	out := []mathutil.Mat4{mathutil.Mat4Identity()}
	for _, inst := range def.Instances {
		out = append(out, inst.Transform)
	}
	for _, m := range ct.Meshes {
		if m.IsInstance() && m.Ref == def.Slot {
			out = append(out, m.Transform)
		}
	}
	return out
}

// Definitions returns the container's definition meshes in decode order.
func (ct *Container) Definitions() []*Mesh {
	var out []*Mesh
	for _, m := range ct.Meshes {
		if !m.IsInstance() {
			out = append(out, m)
		}
	}
	return out
}

// ChunkCount returns the number of chunks over all definition meshes.
func (ct *Container) ChunkCount() int {
	n := 0
	for _, m := range ct.Meshes {
		n += len(m.Chunks)
	}
	return n
}

func hex(off int) string { return fmt.Sprintf("0x%06X", off) }
