// Package fixture builds small synthetic level files for tests.
package fixture

import (
	"encoding/binary"
	"math"
)

// Writer appends little-endian values.
type Writer struct {
	b []byte
}

func (w *Writer) Off() int      { return len(w.b) }
func (w *Writer) Bytes() []byte { return w.b }

func (w *Writer) Raw(p []byte)  { w.b = append(w.b, p...) }
func (w *Writer) U8(v uint8)    { w.b = append(w.b, v) }
func (w *Writer) U16(v uint16)  { w.b = binary.LittleEndian.AppendUint16(w.b, v) }
func (w *Writer) U32(v uint32)  { w.b = binary.LittleEndian.AppendUint32(w.b, v) }
func (w *Writer) F32(v float32) { w.U32(math.Float32bits(v)) }
func (w *Writer) Zeros(n int)   { w.b = append(w.b, make([]byte, n)...) }
func (w *Writer) PutU32(at int, v uint32) {
	binary.LittleEndian.PutUint32(w.b[at:], v)
}

func (w *Writer) Vec3(x, y, z float32) {
	w.F32(x)
	w.F32(y)
	w.F32(z)
}

// Rows writes a 4x3 matrix: identity rotation and the given translation.
func (w *Writer) Rows(x, y, z float32) {
	w.Vec3(1, 0, 0)
	w.Vec3(0, 1, 0)
	w.Vec3(0, 0, 1)
	w.Vec3(x, y, z)
}

func (w *Writer) Align(k int) {
	for len(w.b)%k != 0 {
		w.U8(0)
	}
}

// Offsets locates the parts of a level built by Level.
type Offsets struct {
	ObjectTable      int
	MeshContainer    int
	TextureContainer int
	TextureDataSize  int

	// VertexData is the first vertex record of the only chunk.
	VertexData int
	// InstanceMatrix is the matrix of the instance mesh.
	InstanceMatrix int
}

// Triangle holds the positions Level writes for its single chunk.
var Triangle = [3][3]float32{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}}

// InstanceOffset is the translation of Level's instance mesh.
var InstanceOffset = [3]float32{10, 0, 0}

// Level returns a level with one object, one mesh container holding a
// one-triangle definition (descriptor role 0) plus an instance of it, and a
// texture container whose descriptor 0 pairs a 16-entry palette with a 2x2
// image.
func Level() ([]byte, Offsets) {
	var w Writer
	var o Offsets

	w.Zeros(0x10)
	o.ObjectTable = w.Off()
	writeObjects(&w)

	w.Align(16)
	o.MeshContainer = w.Off()
	o.VertexData, o.InstanceMatrix = writeMeshContainer(&w)

	w.Align(16)
	o.TextureContainer = w.Off()
	writeTextures(&w)
	return w.Bytes(), o
}

func writeObjects(w *Writer) {
	w.U16(1)
	desc := make([]byte, 0x40)
	copy(desc, "P2_Ljt_main")
	w.Raw(desc)
	w.Zeros(8)
	w.U32(0x1234)
	w.Zeros(4)
	w.U32(2)
}

func writeMeshContainer(w *Writer) (vertexData, instanceMatrix int) {
	w.U16(0) // submeshes
	w.U8(0)
	w.U8(0)
	w.U8(0)
	w.Zeros(10)
	w.U8(1) // variant
	w.Vec3(0, 0, 0)
	w.F32(50)
	w.U8(0)
	w.Zeros(1)
	w.U16(2) // slots

	// Definition.
	w.U16(0)
	w.U32(0x534D5A53)
	w.U32(4)
	sizeAt := w.Off()
	w.U32(0)
	base := w.Off()
	w.U32(0)
	w.U16(0)
	w.U16(1)
	w.U32(uint32(w.Off() + 4 - base))

	w.U32(0)
	w.U16(3)
	w.U16(0)
	w.U32(uint32(w.Off() + 8 - base))
	idxAt := w.Off()
	w.U32(0)
	vertexData = w.Off()
	for _, p := range Triangle {
		w.Vec3(p[0], p[1], p[2])
		w.Vec3(0, 0, 1)
		w.F32(p[0])
		w.F32(p[1])
		w.U32(0x80FFFFFF)
	}
	w.PutU32(idxAt, uint32(w.Off()-base))
	triRel := uint32(w.Off() + 24 - base)
	end := triRel + 6
	w.U16(1)
	w.U16(0)
	w.U32(triRel)
	w.U32(end)
	w.U16(0)
	w.U16(0)
	w.U32(end)
	w.U32(end)
	w.U16(0)
	w.U16(1)
	w.U16(2)
	w.PutU32(sizeAt, end)

	w.U32(0x454D5A53)
	writeHeader(w)
	w.U16(1) // records
	w.Vec3(0, 0, 0)
	w.F32(0)
	w.Zeros(5)
	w.Align(4)
	w.U16(0)   // role0
	w.U8(0xFF) // role1
	w.U8(0)    // weights
	w.U16(0)   // trailing array

	// Instance of slot 0.
	w.U16(1)
	w.U16(0)
	instanceMatrix = w.Off()
	w.Rows(InstanceOffset[0], InstanceOffset[1], InstanceOffset[2])
	writeHeader(w)
	return vertexData, instanceMatrix
}

func writeHeader(w *Writer) {
	w.Vec3(0, 0, 0)
	w.F32(0)
	w.U16(0)
	w.Zeros(3)
}

func writeTextures(w *Writer) {
	w.U16(1)
	w.Zeros(4)
	w.U8(0)
	w.U8(0)
	w.Zeros(2)
	w.U16(16)
	w.U8(4)
	w.Zeros(1)
	w.U32(0)
	for k := 0; k < 16; k++ {
		w.Raw([]byte{uint8(k * 16), 0, 0, 0x80})
	}

	w.U16(1)
	w.Zeros(4)
	w.U8(0)
	w.U8(0)
	w.Zeros(2)
	w.U16(2)
	w.U16(2)
	w.Zeros(4)
	w.U32(4)
	w.U32(0)
	w.Raw([]byte{0, 1, 2, 3})

	w.U16(0) // metadata

	w.U16(1)
	w.Zeros(0x17)
	w.U8(1)
	w.Zeros(2)
	w.Zeros(6)
	w.U8(1)
	w.U8(1)
	w.U16(0)
	w.U16(0)
	w.Align(16)
}
