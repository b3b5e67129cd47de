package szms

import (
	"sly-level-decoder/internal/cursor"
	"sly-level-decoder/internal/mathutil"
)

// PreambleField is one optional field group of the descriptor preamble.
// Which groups are present is decided by the mesh flag word.
type PreambleField interface {
	Flag() MeshFlag
}

// StaticWord is gated by FlagStatic: one u32.
type StaticWord struct {
	Value uint32
}

func (StaticWord) Flag() MeshFlag { return FlagStatic }

// Scalar is a single f32 gated by one of FlagBit9, FlagNoShading,
// FlagSkybox, FlagSpotlights or FlagTreasureKeys.
type Scalar struct {
	Bit   MeshFlag
	Value float32
}

func (s Scalar) Flag() MeshFlag { return s.Bit }

// MetaAlt is gated by FlagMetaAlt: a u16 followed by 0x1C opaque bytes
// when the u16 is non-zero.
type MetaAlt struct {
	Value uint16
	Extra []byte
}

func (MetaAlt) Flag() MeshFlag { return FlagMetaAlt }

const metaAltExtra = 0x1C

// ColorBlock is gated by FlagCoins: a vec3 and a vec4.
type ColorBlock struct {
	A mathutil.Vec3
	B mathutil.Vec4
}

func (ColorBlock) Flag() MeshFlag { return FlagCoins }

// TransformBlock is gated by FlagTransformBlock: u16, a sentinel byte, then
// four floats and a matrix unless the sentinel is 0xFF, then three bytes.
type TransformBlock struct {
	Value     uint16
	Sentinel  uint8
	Floats    [4]float32
	Transform *mathutil.Mat4
	Tail      [3]uint8
}

func (TransformBlock) Flag() MeshFlag { return FlagTransformBlock }

// SentinelAbsent marks an omitted optional sub-field.
const SentinelAbsent = 0xFF

// Preamble holds the optional groups present on a mesh, in read order.
type Preamble struct {
	Fields []PreambleField
}

// Field returns the group gated by flag, if it was present.
func (p Preamble) Field(flag MeshFlag) (PreambleField, bool) {
	for _, f := range p.Fields {
		if f.Flag() == flag {
			return f, true
		}
	}
	return nil, false
}

type preambleGroup struct {
	flag MeshFlag
	read func(c *cursor.Cursor) (PreambleField, error)
}

// preambleOrder is the on-disk order of the groups. It is not the numeric
// order of the bits: FlagBit9 is read right after FlagStatic.
var preambleOrder = []preambleGroup{
	{FlagStatic, readStaticWord},
	{FlagBit9, readScalar(FlagBit9)},
	{FlagNoShading, readScalar(FlagNoShading)},
	{FlagSkybox, readScalar(FlagSkybox)},
	{FlagSpotlights, readScalar(FlagSpotlights)},
	{FlagTreasureKeys, readScalar(FlagTreasureKeys)},
	{FlagMetaAlt, readMetaAlt},
	{FlagCoins, readColorBlock},
	{FlagTransformBlock, readTransformBlock},
}

func readPreamble(c *cursor.Cursor, flags MeshFlag) (Preamble, error) {
	var p Preamble
	for _, g := range preambleOrder {
		if !flags.Has(g.flag) {
			continue
		}
		f, err := g.read(c)
		if err != nil {
			return p, err
		}
		p.Fields = append(p.Fields, f)
	}
	return p, nil
}

func readStaticWord(c *cursor.Cursor) (PreambleField, error) {
	v, err := c.U32()
	return StaticWord{Value: v}, err
}

func readScalar(bit MeshFlag) func(c *cursor.Cursor) (PreambleField, error) {
	return func(c *cursor.Cursor) (PreambleField, error) {
		v, err := c.F32()
		return Scalar{Bit: bit, Value: v}, err
	}
}

func readMetaAlt(c *cursor.Cursor) (PreambleField, error) {
	var f MetaAlt
	var err error
	if f.Value, err = c.U16(); err != nil {
		return f, err
	}
	if f.Value != 0 {
		f.Extra, err = c.Bytes(metaAltExtra)
	}
	return f, err
}

func readColorBlock(c *cursor.Cursor) (PreambleField, error) {
	var f ColorBlock
	var err error
	if f.A, err = c.Vec3(); err != nil {
		return f, err
	}
	f.B, err = c.Vec4()
	return f, err
}

func readTransformBlock(c *cursor.Cursor) (PreambleField, error) {
	var f TransformBlock
	var err error
	if f.Value, err = c.U16(); err != nil {
		return f, err
	}
	if f.Sentinel, err = c.U8(); err != nil {
		return f, err
	}
	if f.Sentinel != SentinelAbsent {
		for i := range f.Floats {
			if f.Floats[i], err = c.F32(); err != nil {
				return f, err
			}
		}
		m, err := c.Mat4()
		if err != nil {
			return f, err
		}
		f.Transform = &m
	}
	for i := range f.Tail {
		if f.Tail[i], err = c.U8(); err != nil {
			return f, err
		}
	}
	return f, nil
}

func readHeader(c *cursor.Cursor) (Header, error) {
	var h Header
	var err error
	if h.Position, err = c.Vec3(); err != nil {
		return h, err
	}
	if h.Param, err = c.F32(); err != nil {
		return h, err
	}
	if h.InstanceCount, err = c.U16(); err != nil {
		return h, err
	}
	for i := range h.Unk {
		if h.Unk[i], err = c.U8(); err != nil {
			return h, err
		}
	}
	return h, nil
}
