// Package source loads level files from disk. Files may be stored raw or
// zstd-compressed; Load tells them apart by the frame magic.
package source

import (
	"bytes"
	"fmt"
	"os"

	"github.com/klauspost/compress/zstd"
)

var zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}

// IsCompressed reports whether data starts with a zstd frame.
func IsCompressed(data []byte) bool {
	return bytes.HasPrefix(data, zstdMagic)
}

// Load reads the level file at path, decompressing it if needed.
func Load(path string) ([]byte, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", path, err)
	}
	if !IsCompressed(raw) {
		return raw, nil
	}
	out, err := Decompress(raw)
	if err != nil {
		return nil, fmt.Errorf("source: %s: %w", path, err)
	}
	return out, nil
}

// Decompress expands a zstd stream.
func Decompress(data []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil)
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(data, nil)
	if err != nil {
		return nil, fmt.Errorf("zstd decode: %w", err)
	}
	return out, nil
}

// Compress packs data into a single zstd stream.
func Compress(data []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(data, nil), nil
}

// Save writes data to path, compressed when compress is set.
func Save(path string, data []byte, compress bool) error {
	if compress {
		var err error
		if data, err = Compress(data); err != nil {
			return fmt.Errorf("source: compress %s: %w", path, err)
		}
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("source: write %s: %w", path, err)
	}
	return nil
}
