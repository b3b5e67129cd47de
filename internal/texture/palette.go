package texture

import (
	"fmt"
	"image"

	"sly-level-decoder/internal/diag"
)

// paletteEntrySize is the only entry size the decoder understands: RGBA8.
const paletteEntrySize = 4

// opaqueAlpha is the alpha the hardware treats as fully opaque.
const opaqueAlpha = 0x80

// clutOrder maps a pixel index to its slot in a 256-entry palette, which is
// stored in blocks of 32 with the middle two groups of 8 swapped.
var clutOrder = buildClutOrder()

func buildClutOrder() [256]uint8 {
	var t [256]uint8
	for b := 0; b < 256; b += 32 {
		for j := b; j < b+8; j++ {
			t[j] = uint8(j)
			t[j+8] = uint8(j + 16)
			t[j+16] = uint8(j + 8)
			t[j+24] = uint8(j + 24)
		}
	}
	return t
}

// DecodedTexture is a palette image expanded to RGBA8.
type DecodedTexture struct {
	Name   string
	Width  int
	Height int
	Pixels *image.NRGBA

	// FullyOpaque is false when any pixel's alpha differs from 0x80.
	FullyOpaque bool

	Role Role
}

// DecodeIndexed expands an 8-bit indexed image through palette. Indices are
// permuted when the palette has exactly 256 entries. A pixel whose entry lies
// past the end of the palette is left zeroed.
func DecodeIndexed(palette, pixels []byte, width, height, entryCount, entrySize int) (*image.NRGBA, error) {
	if entrySize != paletteEntrySize {
		return nil, diag.Errorf(diag.FormatMismatch, 0, "palette entry size %d, want %d", entrySize, paletteEntrySize)
	}
	if width <= 0 || height <= 0 {
		return nil, diag.Errorf(diag.FormatMismatch, 0, "bad image size %dx%d", width, height)
	}
	n := width * height
	if len(pixels) < n {
		return nil, diag.Errorf(diag.OutOfBounds, 0, "image needs %d bytes, have %d", n, len(pixels))
	}

	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	permute := entryCount == 256
	for i := 0; i < n; i++ {
		idx := int(pixels[i])
		if permute {
			idx = int(clutOrder[idx])
		}
		src := idx * entrySize
		if src+paletteEntrySize > len(palette) {
			continue
		}
		copy(img.Pix[i*4:i*4+4], palette[src:src+paletteEntrySize])
	}
	return img, nil
}

// FullyOpaque reports whether every pixel carries the opaque alpha 0x80.
func FullyOpaque(img *image.NRGBA) bool {
	for i := 3; i < len(img.Pix); i += 4 {
		if img.Pix[i] != opaqueAlpha {
			return false
		}
	}
	return true
}

// Decode expands one resolved request of descriptor desc.
func (ct *Container) Decode(desc int, r Request) (*DecodedTexture, error) {
	if r.Palette < 0 || r.Palette >= len(ct.Palettes) {
		return nil, diag.Errorf(diag.IndexOutOfRange, ct.Offset, "palette %d of %d", r.Palette, len(ct.Palettes))
	}
	if r.Image < 0 || r.Image >= len(ct.Images) {
		return nil, diag.Errorf(diag.IndexOutOfRange, ct.Offset, "image %d of %d", r.Image, len(ct.Images))
	}
	p := &ct.Palettes[r.Palette]
	im := &ct.Images[r.Image]
	if p.Data == nil {
		return nil, diag.Errorf(diag.OutOfBounds, p.Offset, "palette %d has no data", r.Palette)
	}
	if im.Data == nil {
		return nil, diag.Errorf(diag.OutOfBounds, im.Offset, "image %d has no data", r.Image)
	}

	w, h := int(im.Width), int(im.Height)
	pix, err := DecodeIndexed(p.Data, im.Data, w, h, int(p.EntryCount), int(p.EntrySize))
	if err != nil {
		return nil, fmt.Errorf("texture: desc %d palette %d image %d: %w", desc, r.Palette, r.Image, err)
	}
	return &DecodedTexture{
		Name: fmt.Sprintf("Id %03d-%03d-%03d Res %04dx%04d Clt %05X Img %06X Cols %03d Type %s",
			desc, r.Palette, r.Image, w, h, p.DataOffset, im.DataOffset, p.EntryCount, r.Role),
		Width:       w,
		Height:      h,
		Pixels:      pix,
		FullyOpaque: FullyOpaque(pix),
		Role:        r.Role,
	}, nil
}
