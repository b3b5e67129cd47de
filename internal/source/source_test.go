package source

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestLoadRawAndCompressed(t *testing.T) {
	dir := t.TempDir()
	data := bytes.Repeat([]byte("SZMS\x04\x00\x00\x00"), 512)

	tests := []struct {
		name     string
		compress bool
	}{
		{"raw", false},
		{"zstd", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(dir, tt.name+".bin")
			if err := Save(path, data, tt.compress); err != nil {
				t.Fatalf("Save: %v", err)
			}
			onDisk, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			if IsCompressed(onDisk) != tt.compress {
				t.Errorf("IsCompressed = %v, want %v", IsCompressed(onDisk), tt.compress)
			}
			if tt.compress && len(onDisk) >= len(data) {
				t.Errorf("compressed file is %d bytes, raw is %d", len(onDisk), len(data))
			}

			got, err := Load(path)
			if err != nil {
				t.Fatalf("Load: %v", err)
			}
			if !bytes.Equal(got, data) {
				t.Errorf("Load returned %d bytes, want the original %d", len(got), len(data))
			}
		})
	}
}

func TestLoadErrors(t *testing.T) {
	dir := t.TempDir()
	if _, err := Load(filepath.Join(dir, "missing")); err == nil {
		t.Error("Load of a missing file succeeded")
	}

	bad := filepath.Join(dir, "bad.zst")
	if err := os.WriteFile(bad, append([]byte{0x28, 0xB5, 0x2F, 0xFD}, 0xFF, 0xFF, 0xFF), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(bad); err == nil {
		t.Error("Load of a corrupt zstd frame succeeded")
	}
}
