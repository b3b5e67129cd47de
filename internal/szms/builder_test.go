package szms

import (
	"encoding/binary"
	"math"
)

// builder assembles little-endian fixtures.
type builder struct {
	b []byte
}

func (w *builder) off() int      { return len(w.b) }
func (w *builder) bytes() []byte { return w.b }

func (w *builder) u8(v uint8)   { w.b = append(w.b, v) }
func (w *builder) u16(v uint16) { w.b = binary.LittleEndian.AppendUint16(w.b, v) }
func (w *builder) u32(v uint32) { w.b = binary.LittleEndian.AppendUint32(w.b, v) }
func (w *builder) f32(v float32) {
	w.u32(math.Float32bits(v))
}

func (w *builder) vec3(x, y, z float32) {
	w.f32(x)
	w.f32(y)
	w.f32(z)
}

func (w *builder) mat4(rows [12]float32) {
	for _, f := range rows {
		w.f32(f)
	}
}

func (w *builder) zeros(n int) { w.b = append(w.b, make([]byte, n)...) }

func (w *builder) align(k int) {
	for len(w.b)%k != 0 {
		w.u8(0)
	}
}

func (w *builder) putU32(at int, v uint32) { binary.LittleEndian.PutUint32(w.b[at:], v) }

func translation(x, y, z float32) [12]float32 {
	return [12]float32{1, 0, 0, 0, 1, 0, 0, 0, 1, x, y, z}
}

type chunkSpec struct {
	verts int
	tris  [2][]uint16
	aux   []uint16
}

type recordSpec struct {
	role0   uint16
	role1   uint8
	weights int

	nPos, nRot, nCol, nUV, nIdx int
}

type meshSpec struct {
	flags    uint16
	chunks   []chunkSpec
	order    []int // offset table order over chunks; nil means as laid out
	preamble func(w *builder)
	header   headerSpec
	records  []recordSpec
	trailing int // entries in the trailing array, each a=1 b=1 c=1
	variant  uint8

	badSZMS, badVersion, badSZME bool
}

type headerSpec struct {
	instances uint16
}

// vertexPos is the position written for vertex i of chunk ci.
func vertexPos(ci, i int) [3]float32 {
	return [3]float32{float32(ci*100 + i), float32(i) + 0.5, -float32(i)}
}

const fixtureColor = 0x80FF4000

func writeDefinition(w *builder, s meshSpec) {
	w.u16(s.flags)
	if s.badSZMS {
		w.u32(0xDEADBEEF)
	} else {
		w.u32(MagicSZMS)
	}
	if s.badVersion {
		w.u32(3)
	} else {
		w.u32(Version)
	}
	sizeAt := w.off()
	w.u32(0)
	base := w.off()

	w.u32(0)
	w.u16(0)
	w.u16(uint16(len(s.chunks)))
	tableAt := w.off()
	w.zeros(4 * len(s.chunks))

	// aux list 2 of every chunk is empty and points at endRel so the cursor
	// always finishes at the end of the geometry.
	var aux2Patch []int
	rels := make([]uint32, len(s.chunks))
	for ci, cs := range s.chunks {
		rels[ci] = uint32(w.off() - base)
		w.u32(0)
		w.u16(uint16(cs.verts))
		w.u16(0)
		vtxAt := w.off()
		w.u32(0)
		idxAt := w.off()
		w.u32(0)

		w.putU32(vtxAt, uint32(w.off()-base))
		for i := 0; i < cs.verts; i++ {
			p := vertexPos(ci, i)
			w.vec3(p[0], p[1], p[2])
			w.vec3(0, 1, 0)
			w.f32(float32(i) / 10)
			w.f32(1 - float32(i)/10)
			w.u32(fixtureColor)
		}

		w.putU32(idxAt, uint32(w.off()-base))
		hdrAt := w.off()
		w.zeros(24)
		tri0 := uint32(w.off() - base)
		for _, v := range cs.tris[0] {
			w.u16(v)
		}
		aux0 := uint32(w.off() - base)
		for _, v := range cs.aux {
			w.u16(v)
		}
		tri1 := uint32(w.off() - base)
		for _, v := range cs.tris[1] {
			w.u16(v)
		}
		binary.LittleEndian.PutUint16(w.b[hdrAt:], uint16(len(cs.tris[0])/3))
		binary.LittleEndian.PutUint16(w.b[hdrAt+2:], uint16(len(cs.aux)))
		w.putU32(hdrAt+4, tri0)
		w.putU32(hdrAt+8, aux0)
		binary.LittleEndian.PutUint16(w.b[hdrAt+12:], uint16(len(cs.tris[1])/3))
		binary.LittleEndian.PutUint16(w.b[hdrAt+14:], 0)
		w.putU32(hdrAt+16, tri1)
		aux2Patch = append(aux2Patch, hdrAt+20)
	}
	endRel := uint32(w.off() - base)
	for _, at := range aux2Patch {
		w.putU32(at, endRel)
	}
	order := s.order
	if order == nil {
		for i := range s.chunks {
			order = append(order, i)
		}
	}
	for i, ci := range order {
		w.putU32(tableAt+4*i, rels[ci])
	}
	w.putU32(sizeAt, endRel)

	if s.badSZME {
		w.u32(0)
	} else {
		w.u32(MagicSZME)
	}
	if s.preamble != nil {
		s.preamble(w)
	}
	writeHeader(w, s.header)

	w.u16(uint16(len(s.records)))
	for _, r := range s.records {
		writeRecord(w, r)
	}

	w.u16(uint16(s.trailing))
	for i := 0; i < s.trailing; i++ {
		w.u8(1)
		w.zeros(12)
		w.u8(1)
		w.zeros(4)
		w.u8(1)
		w.zeros(1)
		w.zeros(1 * 1 * 4)
	}

	for i := 0; i < int(s.header.instances); i++ {
		w.u8(0xAA)
		if s.variant == 0 {
			w.zeros(4)
		}
		w.zeros(2)
		w.mat4(translation(float32(i+1), 0, 0))
		w.zeros(5)
		// k13 with one group of one entry and a two-entry tail
		w.u16(1)
		w.u16(1)
		w.zeros(5)
		w.u16(2)
		w.zeros(4)
	}
}

func writeHeader(w *builder, h headerSpec) {
	w.vec3(7, 8, 9)
	w.f32(1)
	w.u16(h.instances)
	w.u8(1)
	w.u8(2)
	w.u8(3)
}

func writeRecord(w *builder, r recordSpec) {
	w.vec3(1, 2, 3)
	w.f32(0.25)
	w.u8(uint8(r.nPos))
	w.u8(uint8(r.nRot))
	w.u8(uint8(r.nCol))
	w.u8(uint8(r.nUV))
	w.u8(uint8(r.nIdx))
	w.align(4)
	for i := 0; i < r.nPos; i++ {
		w.vec3(float32(i), 0, 0)
	}
	for i := 0; i < r.nRot; i++ {
		w.vec3(0, float32(i), 0)
	}
	for i := 0; i < r.nCol; i++ {
		w.u32(0xFF000000 | uint32(i))
	}
	for i := 0; i < r.nUV; i++ {
		w.f32(float32(i))
		w.f32(float32(i))
	}
	for i := 0; i < r.nIdx; i++ {
		w.u32(uint32(i))
	}
	w.u16(r.role0)
	w.u8(r.role1)
	w.u8(uint8(r.weights))
	w.zeros(r.weights)
	w.zeros(r.weights * r.nPos * 4)
}

func writeInstanceMesh(w *builder, flags uint16, ref uint16, rows [12]float32, preamble func(w *builder)) {
	w.u16(flags | uint16(FlagInstance))
	w.u16(ref)
	w.mat4(rows)
	if preamble != nil {
		preamble(w)
	}
	writeHeader(w, headerSpec{})
}

type containerSpec struct {
	submeshes func(w *builder) int // returns record count written
	variant   uint8
	slots     uint16
	meshes    func(w *builder)
}

func writeContainer(w *builder, s containerSpec) {
	countAt := w.off()
	w.u16(0)
	if s.submeshes != nil {
		n := s.submeshes(w)
		binary.LittleEndian.PutUint16(w.b[countAt:], uint16(n))
	}
	// table A: one record
	w.u8(1)
	w.zeros(tableARecord)
	// table B: empty
	w.u8(0)
	// table C: one record with a 2-entry list
	w.u8(1)
	w.zeros(tableCRecord)
	w.u8(2)
	w.zeros(4)
	w.zeros(2 + 2 + 2 + 4)
	w.u8(s.variant)
	w.vec3(0, 0, 0)
	w.f32(100)
	w.u8(1)
	w.zeros(lightRecord)
	w.zeros(1)
	w.u16(s.slots)
	if s.meshes != nil {
		s.meshes(w)
	}
}

// oneTriangle is the smallest useful definition: one chunk, 3 vertices,
// indices 0 1 2, one descriptor.
func oneTriangle() meshSpec {
	return meshSpec{
		chunks:  []chunkSpec{{verts: 3, tris: [2][]uint16{{0, 1, 2}, nil}}},
		records: []recordSpec{{role0: 5, role1: 0xFF}},
		variant: 1,
	}
}
