package texture

import (
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/HugoSmits86/nativewebp"
	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/draw"
)

// Format is an output image format.
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
	FormatTGA  Format = "tga"
)

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(s, "."))); f {
	case FormatPNG, FormatWebP, FormatTGA:
		return f, nil
	}
	return "", fmt.Errorf("texture: unknown image format %q", s)
}

// ExportOptions controls how a decoded texture is turned into a file.
type ExportOptions struct {
	Format Format

	// DoubleAlpha rescales the hardware alpha range (0x80 = opaque) to
	// 0..255, as the game's shaders do.
	DoubleAlpha bool

	// FlipY stores rows bottom-up, for mesh exporters that expect it.
	FlipY bool

	// Scale is an integer nearest-neighbour upscale factor; 0 and 1 leave
	// the size alone.
	Scale int
}

// Prepare returns a copy of img with opts applied. img is not modified.
func Prepare(img *image.NRGBA, opts ExportOptions) *image.NRGBA {
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		dy := y
		if opts.FlipY {
			dy = b.Dy() - 1 - y
		}
		copy(out.Pix[dy*out.Stride:dy*out.Stride+b.Dx()*4], img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):])
	}
	if opts.DoubleAlpha {
		for i := 3; i < len(out.Pix); i += 4 {
			out.Pix[i] = doubleAlpha(out.Pix[i])
		}
	}
	if opts.Scale > 1 {
		scaled := image.NewNRGBA(image.Rect(0, 0, b.Dx()*opts.Scale, b.Dy()*opts.Scale))
		draw.NearestNeighbor.Scale(scaled, scaled.Bounds(), out, out.Bounds(), draw.Src, nil)
		out = scaled
	}
	return out
}

func doubleAlpha(a uint8) uint8 {
	if a >= 0x80 {
		return 0xFF
	}
	return a * 2
}

// Encode writes img in format f.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		return png.Encode(w, img)
	case FormatWebP:
		return nativewebp.Encode(w, img, nil)
	case FormatTGA:
		return tga.Encode(w, img)
	}
	return fmt.Errorf("texture: unknown image format %q", f)
}

// Export writes t into dir and returns the file path. The file name is the
// texture name with characters unsafe for file systems replaced.
func Export(dir string, t *DecodedTexture, opts ExportOptions) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("texture: export %s: %w", t.Name, err)
	}
	path := filepath.Join(dir, FileName(t.Name)+"."+string(opts.Format))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("texture: export %s: %w", t.Name, err)
	}
	defer f.Close()

	if err := Encode(f, Prepare(t.Pixels, opts), opts.Format); err != nil {
		return "", fmt.Errorf("texture: encode %s: %w", path, err)
	}
	return path, f.Close()
}

// FileName turns a texture name into something usable as a file name.
func FileName(name string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		}
		return '_'
	}, name)
}
