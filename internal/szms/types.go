// Package szms decodes the game's mesh containers: the per-submesh transform
// table, SZMS geometry blocks and their SZME descriptors.
package szms

import (
	"sly-level-decoder/internal/diag"
	"sly-level-decoder/internal/mathutil"
)

const (
	MagicSZMS = 0x534D5A53 // "SZMS"
	MagicSZME = 0x454D5A53 // "SZME"

	// Version is the only SZMS version the decoder accepts.
	Version = 4
)

// MeshFlag is the 16-bit flag word at the head of every mesh. It is kept
// verbatim; the renderer buckets meshes by individual bits.
type MeshFlag uint16

const (
	FlagInstance       MeshFlag = 1 << 0
	FlagStatic         MeshFlag = 1 << 1
	FlagNoShading      MeshFlag = 1 << 2 // maybe
	FlagSkybox         MeshFlag = 1 << 3
	FlagSpotlights     MeshFlag = 1 << 4
	FlagTreasureKeys   MeshFlag = 1 << 5
	FlagMetaAlt        MeshFlag = 1 << 6
	FlagCoins          MeshFlag = 1 << 7 // also the glow part of treasure keys
	FlagTransformBlock MeshFlag = 1 << 8
	FlagBit9           MeshFlag = 1 << 9
)

// Has reports whether every bit of f is set.
func (m MeshFlag) Has(f MeshFlag) bool { return m&f == f }

// Chunk is one draw call worth of geometry. The float slices are flat and
// parallel (3 floats per vertex for positions and normals, 2 for texcoords,
// 4 for ColorFloats) so they can be uploaded as vertex buffers directly.
type Chunk struct {
	Name string

	// Offset is the absolute offset of the vertex sub-header; VertexDataOffset
	// the absolute offset of the first interleaved vertex record.
	Offset           int
	VertexDataOffset int

	Positions   []float32
	Normals     []float32
	TexCoords   []float32
	Colors      []uint32
	ColorFloats []float32

	// Triangles holds one triangle list per texture role (Descriptor.Role0
	// and Role1). AuxIndices are read only to keep offsets right.
	Triangles  [2][]uint16
	AuxIndices [2][]uint16

	Descriptor *Descriptor
}

// VertexCount returns the number of vertices in the chunk.
func (c *Chunk) VertexCount() int { return len(c.Positions) / 3 }

// NoRole is the Role1 value of a chunk without a second texture.
const NoRole = 0xFF

// Role returns the texture role of triangle list 0 (Descriptor.Role0) or 1
// (Descriptor.Role1). ok is false without a descriptor or when list 1 has no
// role.
func (c *Chunk) Role(list int) (role int, ok bool) {
	switch {
	case c.Descriptor == nil:
		return 0, false
	case list == 0:
		return int(c.Descriptor.Role0), true
	case c.Descriptor.Role1 == NoRole:
		return 0, false
	}
	return int(c.Descriptor.Role1), true
}

// VertexStride is the size in bytes of one interleaved vertex record.
const VertexStride = 3*4 + 3*4 + 2*4 + 4

// Descriptor is the per-chunk SZME record.
type Descriptor struct {
	Offset int

	Origin    mathutil.Vec3
	Param     float32
	Positions []mathutil.Vec3
	Rotations []mathutil.Vec3
	Colors    []uint32
	TexCoords []mathutil.Vec2
	Indices   []uint32

	// Role0 and Role1 index the owning object's texture assignment table.
	Role0 uint16
	Role1 uint8

	WeightCount uint8
}

// Header is the fixed part of the descriptor that follows the preamble.
type Header struct {
	Position mathutil.Vec3
	Param    float32

	// InstanceCount is the number of trailing instance records of a
	// definition mesh; each of them also occupies a mesh slot.
	InstanceCount uint16

	Unk [3]uint8
}

// Instance is a placement of a definition mesh read from its trailing
// instance records.
type Instance struct {
	Transform mathutil.Mat4
	Offset    int // absolute offset of the 12 stored floats
}

// Mesh is either a definition (geometry plus descriptor) or an instance that
// points back at a definition in the same container.
type Mesh struct {
	Offset int
	Flags  MeshFlag

	// Slot is the mesh index in the container's slot space.
	Slot int

	// Instance fields.
	Ref             int
	Transform       mathutil.Mat4
	TransformOffset int

	// Definition fields.
	TotalSize uint32
	Chunks    []*Chunk
	Instances []Instance

	Preamble Preamble
	Header   Header
}

// IsInstance reports whether m references another mesh instead of carrying
// geometry.
func (m *Mesh) IsInstance() bool { return m.Flags.Has(FlagInstance) }

// InstanceCount returns how many trailing instance records the mesh owns.
func (m *Mesh) InstanceCount() int {
	if m.IsInstance() {
		return 0
	}
	return int(m.Header.InstanceCount)
}

// SubmeshRecord is one entry of a container's per-submesh table.
type SubmeshRecord struct {
	Offset int
	ID     uint16
	Kind   uint16
	Param  uint32
	Flags  uint8

	// Transform is nil when the record's kind carries no local transform.
	Transform       *mathutil.Mat4
	TransformOffset int
}

// Container is one decoded mesh container.
type Container struct {
	Index  int
	Offset int

	Submeshes []SubmeshRecord

	// Variant is the container-level byte read just before the mesh table.
	// When it is zero each trailing instance record carries 4 extra bytes.
	Variant uint8
	Center  mathutil.Vec3
	Radius  float32

	// MeshCount is the declared number of mesh slots.
	MeshCount int
	Meshes    []*Mesh

	Diagnostics diag.List
}
