package szms

import (
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"sly-level-decoder/internal/cursor"
	"sly-level-decoder/internal/diag"
	"sly-level-decoder/internal/mathutil"
)

func writeSubmesh(w *builder, id, kind uint16, flags uint8, rows [12]float32) {
	w.u16(id)
	w.u16(kind)
	w.u32(0)
	w.u8(flags)
	w.zeros(submeshFlagBytes(flags))
	if hasMatrix, skip := localTransformLayout(kind); hasMatrix {
		w.mat4(rows)
	} else {
		w.zeros(skip)
	}
}

func decodeContainerSpec(t *testing.T, s containerSpec) (*Container, *cursor.Cursor, []byte) {
	t.Helper()
	var w builder
	writeContainer(&w, s)
	buf := w.bytes()
	c := cursor.New(buf)
	ct, err := DecodeContainer(c, 0, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("DecodeContainer: %v", err)
	}
	return ct, c, buf
}

func TestDecodeContainerMinimal(t *testing.T) {
	ct, c, buf := decodeContainerSpec(t, containerSpec{
		submeshes: func(w *builder) int {
			writeSubmesh(w, 1, 0, 0, translation(1, 2, 3))
			writeSubmesh(w, 2, 8, 0x1|0x4, translation(0, 0, 0))
			writeSubmesh(w, 3, 0x20, 0x8|0x10|0x20, translation(4, 5, 6))
			return 3
		},
		variant: 1,
		slots:   1,
		meshes:  func(w *builder) { writeDefinition(w, oneTriangle()) },
	})

	if c.Offset() != len(buf) {
		t.Errorf("consumed %d of %d bytes", c.Offset(), len(buf))
	}
	if len(ct.Diagnostics) != 0 {
		t.Errorf("diagnostics = %v", ct.Diagnostics)
	}
	if ct.Variant != 1 || ct.Radius != 100 {
		t.Errorf("variant/radius = %d/%v", ct.Variant, ct.Radius)
	}
	if len(ct.Submeshes) != 3 {
		t.Fatalf("submeshes = %d, want 3", len(ct.Submeshes))
	}
	if tr := ct.Submeshes[0].Transform; tr == nil || tr.Translation() != (mathutil.Vec3{1, 2, 3}) {
		t.Errorf("submesh 0 transform = %v", tr)
	}
	if ct.Submeshes[1].Transform != nil {
		t.Error("kind 8 record should carry no transform")
	}
	if tr := ct.Submeshes[2].Transform; tr == nil || tr.Translation() != (mathutil.Vec3{4, 5, 6}) {
		t.Errorf("submesh 2 transform = %v", tr)
	}
	if len(ct.Meshes) != 1 || ct.ChunkCount() != 1 {
		t.Fatalf("meshes = %d chunks = %d", len(ct.Meshes), ct.ChunkCount())
	}
	if got := ct.Meshes[0].Chunks[0].Triangles[0]; len(got) != 3 {
		t.Errorf("triangles = %v", got)
	}
}

func TestDecodeContainerSlots(t *testing.T) {
	for _, variant := range []uint8{0, 1} {
		def := oneTriangle()
		def.variant = variant
		def.header.instances = 1
		ct, c, buf := decodeContainerSpec(t, containerSpec{
			variant: variant,
			slots:   3,
			meshes: func(w *builder) {
				writeDefinition(w, def)
				writeInstanceMesh(w, 0, 0, translation(5, 6, 7), nil)
			},
		})

		if c.Offset() != len(buf) {
			t.Errorf("variant %d: consumed %d of %d bytes", variant, c.Offset(), len(buf))
		}
		if len(ct.Meshes) != 2 {
			t.Fatalf("variant %d: meshes = %d, want 2", variant, len(ct.Meshes))
		}
		if ct.Meshes[1].Slot != 2 {
			t.Errorf("variant %d: instance slot = %d, want 2", variant, ct.Meshes[1].Slot)
		}
		if len(ct.Diagnostics) != 0 {
			t.Errorf("variant %d: diagnostics = %v", variant, ct.Diagnostics)
		}

		d, ok := ct.Definition(0)
		if !ok {
			t.Fatalf("variant %d: no definition at slot 0", variant)
		}
		got := ct.Placements(d)
		want := []mathutil.Vec3{{0, 0, 0}, {1, 0, 0}, {5, 6, 7}}
		if len(got) != len(want) {
			t.Fatalf("variant %d: placements = %d, want %d", variant, len(got), len(want))
		}
		for i := range want {
			if got[i].Translation() != want[i] {
				t.Errorf("variant %d: placement %d = %v, want %v", variant, i, got[i].Translation(), want[i])
			}
		}
		if !got[0].IsIdentity() {
			t.Errorf("variant %d: first placement is not identity", variant)
		}
		if len(ct.Definitions()) != 1 {
			t.Errorf("variant %d: definitions = %d", variant, len(ct.Definitions()))
		}
	}
}

func TestDecodeContainerStopsOnBadMesh(t *testing.T) {
	bad := oneTriangle()
	bad.badSZMS = true
	var badAt int
	ct, _, _ := decodeContainerSpec(t, containerSpec{
		variant: 1,
		slots:   3,
		meshes: func(w *builder) {
			writeDefinition(w, oneTriangle())
			badAt = w.off()
			writeDefinition(w, bad)
			writeDefinition(w, oneTriangle())
		},
	})

	if len(ct.Meshes) != 1 {
		t.Errorf("meshes = %d, want 1", len(ct.Meshes))
	}
	if n := ct.Diagnostics.Count(diag.FormatMismatch); n != 1 {
		t.Fatalf("FormatMismatch diagnostics = %d, want 1 (%v)", n, ct.Diagnostics)
	}
	if ct.Diagnostics[0].Offset != badAt {
		t.Errorf("diagnostic offset = %#x, want %#x", ct.Diagnostics[0].Offset, badAt)
	}
}

func TestDecodeContainerTruncatedTables(t *testing.T) {
	var w builder
	writeContainer(&w, containerSpec{slots: 0})
	full := w.bytes()
	for _, cut := range []int{1, 5, 60, len(full) - 1} {
		_, err := DecodeContainer(cursor.New(full[:cut]), 3, nil)
		if !errors.Is(err, diag.ErrOutOfBounds) {
			t.Errorf("cut at %d: err = %v, want ErrOutOfBounds", cut, err)
		}
	}
}

func TestDecodeContainerBadInstanceRef(t *testing.T) {
	ct, _, _ := decodeContainerSpec(t, containerSpec{
		variant: 1,
		slots:   3,
		meshes: func(w *builder) {
			writeDefinition(w, oneTriangle())
			writeInstanceMesh(w, 0, 7, translation(0, 0, 0), nil)
			writeInstanceMesh(w, 0, 1, translation(0, 0, 0), nil) // slot 1 is an instance
		},
	})
	if len(ct.Meshes) != 3 {
		t.Fatalf("meshes = %d, want 3", len(ct.Meshes))
	}
	if n := ct.Diagnostics.Count(diag.IndexOutOfRange); n != 2 {
		t.Errorf("IndexOutOfRange diagnostics = %d, want 2 (%v)", n, ct.Diagnostics)
	}
	d, _ := ct.Definition(0)
	if n := len(ct.Placements(d)); n != 1 {
		t.Errorf("placements = %d, want 1", n)
	}
}

func TestLocalTransformLayout(t *testing.T) {
	tests := []struct {
		kind      uint16
		hasMatrix bool
		skip      int
	}{
		{0, true, 0},
		{1, true, 0},
		{8, false, 2},
		{13, true, 0},
		{14, false, 2},
		{15, true, 0},
		{0x10, true, 0},
		{0x108, true, 0},
	}
	for _, tt := range tests {
		hasMatrix, skip := localTransformLayout(tt.kind)
		if hasMatrix != tt.hasMatrix || skip != tt.skip {
			t.Errorf("kind %#x: got (%v, %d), want (%v, %d)", tt.kind, hasMatrix, skip, tt.hasMatrix, tt.skip)
		}
	}
}

func TestSubmeshFlagBytes(t *testing.T) {
	tests := []struct {
		flags uint8
		want  int
	}{
		{0, 0},
		{0x1, 4},
		{0x2, 8},
		{0x3, 4},
		{0x4, 1},
		{0x8, 59},
		{0x10, 9},
		{0x20, 12},
		{0x3F, 4 + 1 + 59 + 9 + 12},
	}
	for _, tt := range tests {
		if got := submeshFlagBytes(tt.flags); got != tt.want {
			t.Errorf("submeshFlagBytes(%#x) = %d, want %d", tt.flags, got, tt.want)
		}
	}
}

func TestNextMeshIndex(t *testing.T) {
	inst := &Mesh{Flags: FlagInstance, Header: Header{InstanceCount: 9}}
	def := &Mesh{Header: Header{InstanceCount: 2}}
	if got := NextMeshIndex(4, inst); got != 5 {
		t.Errorf("instance: next = %d, want 5", got)
	}
	if got := NextMeshIndex(4, def); got != 7 {
		t.Errorf("definition: next = %d, want 7", got)
	}
}
