package texture

import (
	"encoding/binary"
)

type builder struct {
	b []byte
}

func (w *builder) off() int      { return len(w.b) }
func (w *builder) bytes() []byte { return w.b }
func (w *builder) raw(p []byte)  { w.b = append(w.b, p...) }
func (w *builder) u8(v uint8)    { w.b = append(w.b, v) }
func (w *builder) u16(v uint16)  { w.b = binary.LittleEndian.AppendUint16(w.b, v) }
func (w *builder) u32(v uint32)  { w.b = binary.LittleEndian.AppendUint32(w.b, v) }
func (w *builder) zeros(n int)   { w.b = append(w.b, make([]byte, n)...) }

type paletteSpec struct {
	external   bool
	entries    int
	dataOffset uint32
	h2         int
	inline     []byte
}

type imageSpec struct {
	external   bool
	w, h       int
	dataSize   uint32
	dataOffset uint32
	inline     []byte
}

type assignmentSpec struct {
	palettes, images []uint16
}

type containerSpec struct {
	palettes []paletteSpec
	images   []imageSpec
	metadata int
	descs    [][]assignmentSpec
	shared   []byte
}

func storage(external bool) uint8 {
	if external {
		return StorageExternal
	}
	return 0
}

func writeContainer(w *builder, s containerSpec) {
	w.u16(uint16(len(s.palettes)))
	for _, p := range s.palettes {
		w.zeros(4)
		w.u8(storage(p.external))
		w.u8(uint8(p.h2))
		w.zeros(2)
		w.u16(uint16(p.entries))
		w.u8(paletteEntrySize)
		w.zeros(1)
		w.u32(p.dataOffset)
		w.zeros(p.h2 * 2)
		w.raw(p.inline)
	}

	w.u16(uint16(len(s.images)))
	for _, im := range s.images {
		w.zeros(4)
		w.u8(storage(im.external))
		w.u8(0)
		w.zeros(2)
		w.u16(uint16(im.w))
		w.u16(uint16(im.h))
		w.zeros(4)
		if im.external {
			w.u32(im.dataSize)
		} else {
			w.u32(uint32(len(im.inline)))
		}
		w.u32(im.dataOffset)
		w.raw(im.inline)
	}

	w.u16(uint16(s.metadata))
	w.zeros(s.metadata * metadataRecord)

	w.u16(uint16(len(s.descs)))
	for _, d := range s.descs {
		w.zeros(0x17)
		w.u8(uint8(len(d)))
		w.zeros(2)
		for _, a := range d {
			w.zeros(6)
			w.u8(uint8(len(a.images)))
			w.u8(uint8(len(a.palettes)))
			for _, v := range a.images {
				w.u16(v)
			}
			for _, v := range a.palettes {
				w.u16(v)
			}
		}
	}

	for w.off()%16 != 0 {
		w.u8(0xCC)
	}
	w.raw(s.shared)
}

// gradient16 is a 16-entry palette whose entry k has red k*16.
func gradient16() []byte {
	var p []byte
	for k := 0; k < 16; k++ {
		p = append(p, uint8(k*16), uint8(255-k), 7, opaqueAlpha)
	}
	return p
}

// grey256 is a 256-entry palette whose entry k is (k, k, k, 0x80).
func grey256() []byte {
	var p []byte
	for k := 0; k < 256; k++ {
		p = append(p, uint8(k), uint8(k), uint8(k), opaqueAlpha)
	}
	return p
}

// sampleSpec describes a container with one inline and one external entry of
// each kind:
//
//	palette 0: inline, 16 entries     image 0: inline 4x2, indices 0..7
//	palette 1: external @0, 256       image 1: external @0x400 2x2, 8 16 0 1
//	desc 0: {[0], [0]}
//	desc 1: {[1], [1]}, {[0 1 9], [0]}
func sampleSpec() containerSpec {
	shared := append(grey256(), 8, 16, 0, 1)
	return containerSpec{
		palettes: []paletteSpec{
			{entries: 16, h2: 1, inline: gradient16()},
			{external: true, entries: 256, dataOffset: 0},
		},
		images: []imageSpec{
			{w: 4, h: 2, inline: []byte{0, 1, 2, 3, 4, 5, 6, 7}},
			{external: true, w: 2, h: 2, dataSize: 4, dataOffset: 0x400},
		},
		metadata: 2,
		descs: [][]assignmentSpec{
			{{palettes: []uint16{0}, images: []uint16{0}}},
			{
				{palettes: []uint16{1}, images: []uint16{1}},
				{palettes: []uint16{0, 1, 9}, images: []uint16{0}},
			},
		},
		shared: shared,
	}
}
