package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"sly-level-decoder/internal/bake"
	"sly-level-decoder/internal/config"
	"sly-level-decoder/internal/level"
	"sly-level-decoder/internal/mathutil"
	"sly-level-decoder/internal/source"
)

func main() {
	objects := flag.Int("objects", -1, "Offset of the object table")
	meshes := flag.String("mesh", "", "Comma-separated mesh container offsets")
	textures := flag.Int("texture", -1, "Offset of the texture container")
	dataSize := flag.Int("datasize", 0, "Size of the texture container's shared data block")
	move := flag.String("move", "", "Move an instance mesh: container,slot,x,y,z")
	out := flag.String("out", "", "Where to write the edited level (with -move)")
	compress := flag.Bool("compress", false, "zstd-compress the edited level")
	verbose := flag.Bool("v", false, "Log decode details")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: inspect [flags] <level file>")
		os.Exit(2)
	}
	path := flag.Arg(0)

	buf, err := source.Load(path)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("%s: %d bytes\n", path, len(buf))

	offsets, err := config.ParseOffsets(*meshes)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(2)
	}
	if len(offsets) == 0 && *textures < 0 && *objects < 0 {
		// Nothing to decode yet: list candidate SZMS blocks instead.
		hits := level.FindSZMS(buf)
		fmt.Printf("SZMS blocks: %d\n", len(hits))
		for _, h := range hits {
			fmt.Printf("  0x%06X\n", h)
		}
		return
	}

	log := zap.NewNop()
	if *verbose {
		log, _ = zap.NewDevelopment()
		defer log.Sync()
	}

	lvl, err := level.Decode(buf, path, level.Layout{
		ObjectTable:      *objects,
		MeshContainers:   offsets,
		TextureContainer: *textures,
		TextureDataSize:  *dataSize,
	}, log)
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	for _, o := range lvl.Objects {
		fmt.Printf("Object[%d] @0x%06X: type=%c name=%q id0=0x%X count=%d\n", o.Index, o.Offset, o.Type, o.Name, o.ID0, o.Count)
	}
	for _, ct := range lvl.Containers {
		fmt.Printf("Container[%d] @0x%06X: submeshes=%d slots=%d meshes=%d variant=%d\n",
			ct.Index, ct.Offset, len(ct.Submeshes), ct.MeshCount, len(ct.Meshes), ct.Variant)
		for _, m := range ct.Meshes {
			if m.IsInstance() {
				t := m.Transform.Translation()
				fmt.Printf("  Slot %d @0x%06X: instance of %d at (%.2f, %.2f, %.2f)\n", m.Slot, m.Offset, m.Ref, t[0], t[1], t[2])
				continue
			}
			fmt.Printf("  Slot %d @0x%06X: flags=0x%04X chunks=%d instances=%d\n", m.Slot, m.Offset, uint16(m.Flags), len(m.Chunks), len(m.Instances))
			for _, ch := range m.Chunks {
				role := -1
				if ch.Descriptor != nil {
					role = int(ch.Descriptor.Role0)
				}
				fmt.Printf("    %s: verts=%d tris=%d+%d role=%d\n", ch.Name, ch.VertexCount(), len(ch.Triangles[0])/3, len(ch.Triangles[1])/3, role)
			}
		}
	}
	if tc := lvl.Textures; tc != nil {
		fmt.Printf("Textures @0x%06X: palettes=%d images=%d descs=%d data=%d@0x%06X\n",
			tc.Offset, len(tc.Palettes), len(tc.Images), len(tc.Descs), tc.DataSize, tc.DataOffset)
	}

	s := lvl.Stats()
	fmt.Printf("Stats: %+v\n", s)
	if len(lvl.Diagnostics) > 0 {
		fmt.Printf("\nDiagnostics (%d):\n", len(lvl.Diagnostics))
		for _, d := range lvl.Diagnostics {
			fmt.Printf("  %s\n", d)
		}
	}

	if *move != "" {
		if err := moveInstance(lvl, buf, *move, *out, *compress); err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}
}

// moveInstance parses "container,slot,x,y,z", sets that instance mesh's
// translation and writes the baked level to out.
func moveInstance(lvl *level.Level, buf []byte, arg, out string, compress bool) error {
	if out == "" {
		return fmt.Errorf("-move needs -out")
	}
	parts := strings.Split(arg, ",")
	if len(parts) != 5 {
		return fmt.Errorf("-move %q: want container,slot,x,y,z", arg)
	}
	ci, err1 := strconv.Atoi(parts[0])
	slot, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || ci < 0 || ci >= len(lvl.Containers) {
		return fmt.Errorf("-move %q: bad container or slot", arg)
	}
	var to mathutil.Vec3
	for i := range to {
		f, err := strconv.ParseFloat(parts[2+i], 32)
		if err != nil {
			return fmt.Errorf("-move %q: %w", arg, err)
		}
		to[i] = float32(f)
	}

	for _, m := range lvl.Containers[ci].Meshes {
		if m.Slot != slot || !m.IsInstance() {
			continue
		}
		xf := m.Transform
		xf[12], xf[13], xf[14] = to[0], to[1], to[2]
		edit, err := bake.InstanceTransform(m, xf)
		if err != nil {
			return err
		}
		baked, err := bake.Apply(buf, []bake.Edit{edit})
		if err != nil {
			return err
		}
		if err := source.Save(out, baked, compress); err != nil {
			return err
		}
		fmt.Printf("Moved slot %d to (%g, %g, %g): %s\n", slot, to[0], to[1], to[2], out)
		return nil
	}
	return fmt.Errorf("container %d has no instance mesh in slot %d", ci, slot)
}
