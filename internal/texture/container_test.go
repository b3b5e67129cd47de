package texture

import (
	"bytes"
	"errors"
	"testing"

	"go.uber.org/zap/zaptest"

	"sly-level-decoder/internal/cursor"
	"sly-level-decoder/internal/diag"
)

func decodeSample(t *testing.T, s containerSpec) *Container {
	t.Helper()
	var w builder
	writeContainer(&w, s)
	ct, err := DecodeContainer(cursor.New(w.bytes()), len(s.shared), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("DecodeContainer: %v", err)
	}
	return ct
}

func TestDecodeContainerInlineAndExternal(t *testing.T) {
	s := sampleSpec()
	ct := decodeSample(t, s)

	if len(ct.Diagnostics) != 0 {
		t.Errorf("diagnostics = %v", ct.Diagnostics)
	}
	if len(ct.Palettes) != 2 || len(ct.Images) != 2 || len(ct.Descs) != 2 {
		t.Fatalf("tables = %d/%d/%d", len(ct.Palettes), len(ct.Images), len(ct.Descs))
	}
	if ct.DataOffset%16 != 0 {
		t.Errorf("shared block at %#x is not 16-aligned", ct.DataOffset)
	}

	if p := ct.Palettes[0]; p.External() || !bytes.Equal(p.Data, gradient16()) {
		t.Errorf("inline palette: external=%v len=%d", p.External(), len(p.Data))
	}
	if p := ct.Palettes[1]; !p.External() || !bytes.Equal(p.Data, grey256()) {
		t.Errorf("external palette: external=%v len=%d", p.External(), len(p.Data))
	}
	if im := ct.Images[0]; im.Width != 4 || im.Height != 2 || !bytes.Equal(im.Data, []byte{0, 1, 2, 3, 4, 5, 6, 7}) {
		t.Errorf("inline image = %dx%d %v", im.Width, im.Height, im.Data)
	}
	if im := ct.Images[1]; !bytes.Equal(im.Data, []byte{8, 16, 0, 1}) {
		t.Errorf("external image data = %v", im.Data)
	}

	as := ct.Descs[1].Assignments
	if len(as) != 2 {
		t.Fatalf("desc 1 assignments = %d", len(as))
	}
	if got := as[1].PaletteIndices; len(got) != 3 || got[2] != 9 {
		t.Errorf("palette indices = %v", got)
	}
	if got := as[1].ImageIndices; len(got) != 1 || got[0] != 0 {
		t.Errorf("image indices = %v", got)
	}
}

func TestDecodeContainerExternalOutOfRange(t *testing.T) {
	s := sampleSpec()
	s.images[1].dataOffset = uint32(len(s.shared)) - 2
	ct := decodeSample(t, s)

	if ct.Images[1].Data != nil {
		t.Errorf("out-of-range image kept %d bytes", len(ct.Images[1].Data))
	}
	if n := ct.Diagnostics.Count(diag.OutOfBounds); n != 1 {
		t.Errorf("OutOfBounds diagnostics = %d (%v)", n, ct.Diagnostics)
	}
	if _, err := ct.Decode(1, Request{Palette: 1, Image: 1}); !errors.Is(err, diag.ErrOutOfBounds) {
		t.Errorf("Decode err = %v, want ErrOutOfBounds", err)
	}
	// Everything else is still usable.
	if _, err := ct.Decode(0, Request{Palette: 0, Image: 0}); err != nil {
		t.Errorf("Decode inline: %v", err)
	}
}

func TestDecodeContainerSharedBlockTruncated(t *testing.T) {
	s := sampleSpec()
	var w builder
	writeContainer(&w, s)
	ct, err := DecodeContainer(cursor.New(w.bytes()), len(s.shared)+0x100, nil)
	if err != nil {
		t.Fatalf("DecodeContainer: %v", err)
	}
	if ct.DataSize != len(s.shared) {
		t.Errorf("DataSize = %#x, want %#x", ct.DataSize, len(s.shared))
	}
	if n := ct.Diagnostics.Count(diag.OutOfBounds); n != 1 {
		t.Errorf("OutOfBounds diagnostics = %d", n)
	}
	if ct.Images[1].Data == nil {
		t.Error("external image lost although it fits the truncated block")
	}
}

func TestDecodeContainerTruncatedTables(t *testing.T) {
	s := sampleSpec()
	var w builder
	writeContainer(&w, s)
	full := w.bytes()
	for _, cut := range []int{1, 8, 30, 100, 200} {
		_, err := DecodeContainer(cursor.New(full[:cut]), 0, nil)
		if !errors.Is(err, diag.ErrOutOfBounds) {
			t.Errorf("cut at %d: err = %v, want ErrOutOfBounds", cut, err)
		}
	}
}

func TestDecodeContainerTruncatedAssignment(t *testing.T) {
	s := sampleSpec()
	var w builder
	writeContainer(&w, s)
	// Tables end at 322; the last assignment starts at 306 and its index
	// list is cut after two entries.
	const lastAssignment = 306
	buf := w.bytes()[:lastAssignment+12]

	ct, err := DecodeContainer(cursor.New(buf), 0, nil)
	if err != nil {
		t.Fatalf("DecodeContainer: %v", err)
	}
	if len(ct.Palettes) != 2 || len(ct.Images) != 2 || len(ct.Descs) != 1 {
		t.Fatalf("palettes=%d images=%d descs=%d", len(ct.Palettes), len(ct.Images), len(ct.Descs))
	}
	if ct.Diagnostics[0].Offset != lastAssignment {
		t.Errorf("first diagnostic at %#x, want %#x", ct.Diagnostics[0].Offset, lastAssignment)
	}
	// plus both external entries, which lost the shared block
	if n := ct.Diagnostics.Count(diag.OutOfBounds); n != 3 {
		t.Errorf("OutOfBounds diagnostics = %d (%v)", n, ct.Diagnostics)
	}
	if ct.Palettes[0].Data == nil || ct.Images[0].Data == nil {
		t.Error("inline entries lost")
	}
}

func TestDecodeContainerTruncatedInlinePalette(t *testing.T) {
	s := sampleSpec()
	var w builder
	writeContainer(&w, s)
	// palette 0's inline bytes start at 20
	_, err := DecodeContainer(cursor.New(w.bytes()[:40]), 0, nil)
	if !errors.Is(err, diag.ErrOutOfBounds) {
		t.Fatalf("err = %v, want ErrOutOfBounds from the image count", err)
	}
}

func TestDecodeNamesTexture(t *testing.T) {
	ct := decodeSample(t, sampleSpec())
	tex, err := ct.Decode(1, Request{Palette: 1, Image: 1, Role: RoleDiffuse})
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	want := "Id 001-001-001 Res 0002x0002 Clt 00000 Img 000400 Cols 256 Type Dif"
	if tex.Name != want {
		t.Errorf("Name = %q\nwant   %q", tex.Name, want)
	}
	if tex.Width != 2 || tex.Height != 2 || !tex.FullyOpaque {
		t.Errorf("texture = %dx%d opaque=%v", tex.Width, tex.Height, tex.FullyOpaque)
	}
	// 256-entry palette: indices 8 16 0 1 go through the permutation.
	wantR := []uint8{16, 8, 0, 1}
	for i, r := range wantR {
		if got := tex.Pixels.Pix[i*4]; got != r {
			t.Errorf("pixel %d red = %d, want %d", i, got, r)
		}
	}
}

func TestDecodeBadRequest(t *testing.T) {
	ct := decodeSample(t, sampleSpec())
	for _, r := range []Request{{Palette: 2}, {Image: 5}, {Palette: -1}} {
		if _, err := ct.Decode(0, r); !errors.Is(err, diag.ErrIndexOutOfRange) {
			t.Errorf("Decode(%+v) err = %v, want ErrIndexOutOfRange", r, err)
		}
	}
}
