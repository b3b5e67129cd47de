// Package level runs the full decode of one level file: object table, mesh
// containers and texture container, located by a Layout.
package level

import (
	"encoding/binary"
	"fmt"

	"go.uber.org/zap"

	"sly-level-decoder/internal/cursor"
	"sly-level-decoder/internal/diag"
	"sly-level-decoder/internal/szms"
	"sly-level-decoder/internal/texture"
)

// Layout tells Decode where the level's tables are. The file carries no
// directory of its own, so these come from configuration. A negative offset
// means the table is absent.
type Layout struct {
	ObjectTable      int
	MeshContainers   []int
	TextureContainer int
	TextureDataSize  int
}

// Level is a decoded level file.
type Level struct {
	Source string
	Size   int

	Objects    []Object
	Containers []*szms.Container
	Textures   *texture.Container

	// Cache decodes textures on demand; nil when the level has no texture
	// container.
	Cache *texture.Cache

	// Diagnostics collects every container's diagnostics, in decode order.
	Diagnostics diag.List
}

// Decode decodes buf according to layout.
//
// A table that fails to decode is recorded in Diagnostics at the table's
// offset and the remaining tables are still decoded. Decode returns an error
// only when the layout names tables and none of them could be decoded.
func Decode(buf []byte, source string, layout Layout, log *zap.Logger) (*Level, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.With(zap.String("source", source))
	lvl := &Level{Source: source, Size: len(buf)}

	var requested, decoded int
	var firstErr error
	failed := func(what string, off int, err error) {
		if firstErr == nil {
			firstErr = err
		}
		lvl.Diagnostics.Add(off, err)
		log.Warn(what+" failed", zap.String("offset", fmt.Sprintf("0x%06X", off)), zap.Error(err))
	}

	if layout.ObjectTable >= 0 {
		requested++
		objects, err := ParseObjectTable(cursor.NewAt(buf, layout.ObjectTable))
		if err != nil {
			failed("object table", layout.ObjectTable, err)
		} else {
			lvl.Objects = objects
			decoded++
		}
	}

	for i, off := range layout.MeshContainers {
		requested++
		ct, err := szms.DecodeContainer(cursor.NewAt(buf, off), i, log)
		if err != nil {
			failed("mesh container", off, err)
			continue
		}
		decoded++
		lvl.Containers = append(lvl.Containers, ct)
		lvl.Diagnostics = append(lvl.Diagnostics, ct.Diagnostics...)
	}

	if layout.TextureContainer >= 0 {
		requested++
		tc, err := texture.DecodeContainer(cursor.NewAt(buf, layout.TextureContainer), layout.TextureDataSize, log)
		if err != nil {
			failed("texture container", layout.TextureContainer, err)
		} else {
			decoded++
			lvl.Textures = tc
			lvl.Cache = texture.NewCache(tc, log)
			lvl.Diagnostics = append(lvl.Diagnostics, tc.Diagnostics...)
		}
	}

	if requested > 0 && decoded == 0 {
		return nil, fmt.Errorf("level: %s: %w", source, firstErr)
	}

	log.Info("level decoded",
		zap.Int("objects", len(lvl.Objects)),
		zap.Int("containers", len(lvl.Containers)),
		zap.Int("diagnostics", len(lvl.Diagnostics)))
	return lvl, nil
}

// Texture returns the diffuse texture for a descriptor role, or nil. Role
// values index the texture descriptor table; the first assignment is used.
func (l *Level) Texture(role int) *texture.DecodedTexture {
	if l.Cache == nil {
		return nil
	}
	return l.Cache.Diffuse(texture.Key{Desc: role, Assignment: 0})
}

// Stats summarizes a decoded level.
type Stats struct {
	Objects      int `json:"objects"`
	Containers   int `json:"containers"`
	Definitions  int `json:"definitions"`
	Instances    int `json:"instances"`
	Chunks       int `json:"chunks"`
	Vertices     int `json:"vertices"`
	Triangles    int `json:"triangles"`
	Palettes     int `json:"palettes"`
	Images       int `json:"images"`
	TextureDescs int `json:"texture_descs"`
	Diagnostics  int `json:"diagnostics"`
}

// Stats counts what the level contains. Instances counts every placement
// beyond a definition's own, from both instance records and instance meshes.
func (l *Level) Stats() Stats {
	s := Stats{
		Objects:     len(l.Objects),
		Containers:  len(l.Containers),
		Diagnostics: len(l.Diagnostics),
	}
	for _, ct := range l.Containers {
		for _, m := range ct.Meshes {
			if m.IsInstance() {
				s.Instances++
				continue
			}
			s.Definitions++
			s.Instances += len(m.Instances)
			for _, ch := range m.Chunks {
				s.Chunks++
				s.Vertices += ch.VertexCount()
				s.Triangles += (len(ch.Triangles[0]) + len(ch.Triangles[1])) / 3
			}
		}
	}
	if l.Textures != nil {
		s.Palettes = len(l.Textures.Palettes)
		s.Images = len(l.Textures.Images)
		s.TextureDescs = len(l.Textures.Descs)
	}
	return s
}

// FindSZMS returns the offset of every SZMS block (magic followed by the
// supported version) in buf. It is a search aid for building a Layout; the
// container header starts some way before each hit.
func FindSZMS(buf []byte) []int {
	var hits []int
	for off := 0; off+8 <= len(buf); off++ {
		if binary.LittleEndian.Uint32(buf[off:]) == szms.MagicSZMS &&
			binary.LittleEndian.Uint32(buf[off+4:]) == szms.Version {
			hits = append(hits, off)
		}
	}
	return hits
}
