// Package texture decodes texture containers: palette (CLUT) and indexed
// image tables, the texture descriptors that pair them, and the shared data
// block external entries point into.
package texture

import (
	"fmt"

	"go.uber.org/zap"

	"sly-level-decoder/internal/cursor"
	"sly-level-decoder/internal/diag"
)

// StorageExternal marks a palette or image whose bytes live in the shared
// data block. Any other value means the bytes follow the record.
const StorageExternal = 1

// metadataRecord is the width of an entry in the unused table between the
// image table and the descriptor table.
const metadataRecord = 2 + 0x20

// Palette is a color lookup table.
type Palette struct {
	Offset     int
	Storage    uint8
	EntryCount uint16
	EntrySize  uint8
	DataOffset uint32

	// Data is nil when the bytes could not be located.
	Data []byte
}

// External reports whether the palette's bytes live in the shared block.
func (p *Palette) External() bool { return p.Storage == StorageExternal }

// Size is the byte length of the palette's data.
func (p *Palette) Size() int { return int(p.EntryCount) * int(p.EntrySize) }

// Image is an 8-bit indexed pixel buffer.
type Image struct {
	Offset     int
	Storage    uint8
	Width      uint16
	Height     uint16
	DataSize   uint32
	DataOffset uint32

	Data []byte
}

// External reports whether the image's bytes live in the shared block.
func (im *Image) External() bool { return im.Storage == StorageExternal }

// Assignment pairs palette indices with image indices.
type Assignment struct {
	Offset         int
	PaletteIndices []uint16
	ImageIndices   []uint16
}

// Desc is a texture descriptor. A chunk's descriptor roles index this table.
type Desc struct {
	Offset      int
	Assignments []Assignment
}

// Container is a decoded texture container.
type Container struct {
	Offset int

	Palettes []Palette
	Images   []Image
	Descs    []Desc

	// DataOffset is the absolute offset of the shared data block.
	DataOffset int
	DataSize   int

	Diagnostics diag.List
}

// DecodeContainer decodes the texture container at the cursor. dataSize is
// the length of the shared block that follows the tables; it is not stored in
// the container itself.
//
// Bounds errors on the table counts and record headers are returned. Inline
// bytes or assignment indices running past the buffer are recorded in
// Diagnostics and end the table; the entry is kept without data. Entries
// whose external bytes fall outside the shared block are kept without data
// and recorded as well.
func DecodeContainer(c *cursor.Cursor, dataSize int, log *zap.Logger) (*Container, error) {
	if log == nil {
		log = zap.NewNop()
	}
	ct := &Container{Offset: c.Offset()}

	if err := ct.readPalettes(c); err != nil {
		return nil, fmt.Errorf("texture: palette table: %w", err)
	}
	if err := ct.readImages(c); err != nil {
		return nil, fmt.Errorf("texture: image table: %w", err)
	}
	n, err := c.U16()
	if err != nil {
		return nil, fmt.Errorf("texture: metadata table: %w", err)
	}
	c.Skip(int(n) * metadataRecord)
	if err := ct.readDescs(c); err != nil {
		return nil, fmt.Errorf("texture: descriptor table: %w", err)
	}

	c.Align(16)
	ct.DataOffset = c.Offset()
	ct.DataSize = dataSize
	if rem := c.Remaining(); dataSize > rem {
		ct.Diagnostics.Addf(diag.OutOfBounds, ct.DataOffset, "shared block of 0x%X bytes truncated to 0x%X", dataSize, rem)
		ct.DataSize = rem
	}
	var shared []byte
	if ct.DataSize > 0 {
		if shared, err = c.Bytes(ct.DataSize); err != nil {
			return nil, fmt.Errorf("texture: shared block: %w", err)
		}
	}
	ct.resolveExternal(shared)

	log.Debug("texture container decoded",
		zap.String("offset", fmt.Sprintf("0x%06X", ct.Offset)),
		zap.Int("palettes", len(ct.Palettes)),
		zap.Int("images", len(ct.Images)),
		zap.Int("descs", len(ct.Descs)),
		zap.Int("diagnostics", len(ct.Diagnostics)))
	return ct, nil
}

func (ct *Container) readPalettes(c *cursor.Cursor) error {
	count, err := c.U16()
	if err != nil {
		return err
	}
	ct.Palettes = make([]Palette, 0, count)
	for i := 0; i < int(count); i++ {
		p := Palette{Offset: c.Offset()}
		c.Skip(4)
		if p.Storage, err = c.U8(); err != nil {
			return err
		}
		h2, err := c.U8()
		if err != nil {
			return err
		}
		c.Skip(2)
		if p.EntryCount, err = c.U16(); err != nil {
			return err
		}
		if p.EntrySize, err = c.U8(); err != nil {
			return err
		}
		c.Skip(1)
		if p.DataOffset, err = c.U32(); err != nil {
			return err
		}
		c.Skip(int(h2) * 2)
		if !p.External() && p.EntryCount > 0 {
			if p.Data, err = c.Bytes(p.Size()); err != nil {
				ct.truncated(p.Offset, err, c)
				ct.Palettes = append(ct.Palettes, p)
				return nil
			}
		}
		ct.Palettes = append(ct.Palettes, p)
	}
	return nil
}

func (ct *Container) readImages(c *cursor.Cursor) error {
	count, err := c.U16()
	if err != nil {
		return err
	}
	ct.Images = make([]Image, 0, count)
	for i := 0; i < int(count); i++ {
		im := Image{Offset: c.Offset()}
		c.Skip(4)
		if im.Storage, err = c.U8(); err != nil {
			return err
		}
		h2, err := c.U8()
		if err != nil {
			return err
		}
		c.Skip(2)
		if im.Width, err = c.U16(); err != nil {
			return err
		}
		if im.Height, err = c.U16(); err != nil {
			return err
		}
		c.Skip(4)
		if im.DataSize, err = c.U32(); err != nil {
			return err
		}
		if im.DataOffset, err = c.U32(); err != nil {
			return err
		}
		c.Skip(int(h2) * 2)
		if !im.External() && im.DataSize > 0 {
			if im.Data, err = c.Bytes(int(im.DataSize)); err != nil {
				ct.truncated(im.Offset, err, c)
				ct.Images = append(ct.Images, im)
				return nil
			}
		}
		ct.Images = append(ct.Images, im)
	}
	return nil
}

func (ct *Container) readDescs(c *cursor.Cursor) error {
	count, err := c.U16()
	if err != nil {
		return err
	}
	ct.Descs = make([]Desc, 0, count)
	for i := 0; i < int(count); i++ {
		d := Desc{Offset: c.Offset()}
		c.Skip(0x17)
		n, err := c.U8()
		if err != nil {
			return err
		}
		c.Skip(2)
		d.Assignments = make([]Assignment, 0, n)
		for j := 0; j < int(n); j++ {
			a, err := readAssignment(c)
			if err != nil {
				ct.truncated(a.Offset, err, c)
				return nil
			}
			d.Assignments = append(d.Assignments, a)
		}
		ct.Descs = append(ct.Descs, d)
	}
	return nil
}

// Image indices come first on disk.
func readAssignment(c *cursor.Cursor) (Assignment, error) {
	a := Assignment{Offset: c.Offset()}
	c.Skip(4 + 2)
	images, err := c.U8()
	if err != nil {
		return a, err
	}
	palettes, err := c.U8()
	if err != nil {
		return a, err
	}
	if a.ImageIndices, err = c.U16s(int(images)); err != nil {
		return a, err
	}
	a.PaletteIndices, err = c.U16s(int(palettes))
	return a, err
}

// truncated records a record cut short by the buffer end. The cursor moves to
// the end so no later field is read from the wrong place.
func (ct *Container) truncated(off int, err error, c *cursor.Cursor) {
	ct.Diagnostics.Add(off, err)
	c.Seek(c.Len())
}

func (ct *Container) resolveExternal(shared []byte) {
	for i := range ct.Palettes {
		p := &ct.Palettes[i]
		if !p.External() {
			continue
		}
		p.Data = ct.slice(shared, p.DataOffset, p.Size(), "palette", i)
	}
	for i := range ct.Images {
		im := &ct.Images[i]
		if !im.External() {
			continue
		}
		im.Data = ct.slice(shared, im.DataOffset, int(im.DataSize), "image", i)
	}
}

func (ct *Container) slice(shared []byte, off uint32, n int, what string, index int) []byte {
	end := int(off) + n
	if int(off) > len(shared) || end > len(shared) {
		ct.Diagnostics.Addf(diag.OutOfBounds, ct.DataOffset+int(off),
			"%s %d: 0x%X bytes at 0x%X exceed shared block of 0x%X", what, index, n, off, len(shared))
		return nil
	}
	return shared[off:end:end]
}
