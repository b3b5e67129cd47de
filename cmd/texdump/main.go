package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"sly-level-decoder/internal/cursor"
	"sly-level-decoder/internal/source"
	"sly-level-decoder/internal/texture"
)

func main() {
	offset := flag.Int("texture", -1, "Offset of the texture container")
	dataSize := flag.Int("datasize", 0, "Size of the shared data block")
	outDir := flag.String("out", "textures", "Output directory")
	format := flag.String("format", "png", "Image format: png, webp or tga")
	scale := flag.Int("scale", 1, "Upscale factor")
	raw := flag.Bool("raw", false, "Keep the hardware alpha range (0x80 = opaque)")
	flag.Parse()

	if flag.NArg() != 1 || *offset < 0 {
		fmt.Fprintln(os.Stderr, "usage: texdump -texture <offset> [flags] <level file>")
		os.Exit(2)
	}
	f, err := texture.ParseFormat(*format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}
	opts := texture.ExportOptions{Format: f, DoubleAlpha: !*raw, Scale: *scale}

	buf, err := source.Load(flag.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	log, _ := zap.NewDevelopment()
	defer log.Sync()

	tc, err := texture.DecodeContainer(cursor.NewAt(buf, *offset), *dataSize, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Palettes: %d, Images: %d, Descriptors: %d\n", len(tc.Palettes), len(tc.Images), len(tc.Descs))

	cache := texture.NewCache(tc, log)
	written, failed := 0, 0
	for d, desc := range tc.Descs {
		for a := range desc.Assignments {
			for _, tex := range cache.Textures(texture.Key{Desc: d, Assignment: a}) {
				path, err := texture.Export(*outDir, tex, opts)
				if err != nil {
					fmt.Printf("FAIL %s: %v\n", tex.Name, err)
					failed++
					continue
				}
				fmt.Printf("OK   %s -> %s\n", tex.Name, path)
				written++
			}
		}
	}

	diags := len(tc.Diagnostics)
	for d, desc := range tc.Descs {
		for a := range desc.Assignments {
			for _, dg := range cache.Diagnostics(texture.Key{Desc: d, Assignment: a}) {
				fmt.Printf("WARN %s\n", dg)
				diags++
			}
		}
	}
	for _, dg := range tc.Diagnostics {
		fmt.Printf("WARN %s\n", dg)
	}
	fmt.Printf("Written: %d, failed: %d, diagnostics: %d\n", written, failed, diags)
	if failed > 0 {
		os.Exit(1)
	}
}
