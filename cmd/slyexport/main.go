package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"sly-level-decoder/internal/batch"
	"sly-level-decoder/internal/config"
	"sly-level-decoder/internal/raster"
)

func main() {
	// CLI flags
	configFile := flag.String("config", "", "Path to a .json or .yaml config file")
	only := flag.String("level", "", "Export only the level with this name")
	workers := flag.Int("workers", 0, "Number of worker goroutines (default: NumCPU)")
	dataDir := flag.String("data", "", "Base directory for relative level paths")
	outputDir := flag.String("output", "", "Output directory (default: <data>/export)")
	format := flag.String("format", "", "Texture format: png, webp or tga (default: png)")
	scale := flag.Int("scale", 0, "Texture upscale factor (default: 1)")
	preview := flag.Int("preview", 0, "Render a preview image of this size per level")
	verbose := flag.Bool("v", false, "Log decode details")

	flag.Parse()

	if *configFile == "" {
		fmt.Fprintln(os.Stderr, "Error: -config is required.")
		os.Exit(2)
	}

	// Load config
	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	// CLI flags override config file
	cfg.Resolve(config.Flags{
		DataDir:   *dataDir,
		OutputDir: *outputDir,
		Format:    *format,
		Scale:     *scale,
		Workers:   *workers,
		Preview:   *preview,
	})
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	opts, _ := cfg.ExportOptions()
	view, _ := raster.ParseView(cfg.PreviewView)

	log := zap.NewNop()
	if *verbose {
		if log, err = zap.NewDevelopment(); err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
			os.Exit(1)
		}
		defer log.Sync()
	}

	levels := cfg.Levels
	if *only != "" {
		var filtered []config.LevelSpec
		for _, l := range levels {
			if l.Name == *only {
				filtered = append(filtered, l)
			}
		}
		levels = filtered
	}

	if len(levels) == 0 {
		fmt.Println("No levels to export.")
		os.Exit(0)
	}

	fmt.Printf("Sly level export → OBJ + %s\n", opts.Format)
	fmt.Printf("Levels: %d, Workers: %d\n", len(levels), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)
	fmt.Println("------------------------------------------------------------")

	start := time.Now()

	results := batch.Run(batch.Config{
		OutputDir: cfg.OutputDir,
		Export:    opts,
		Workers:   cfg.Workers,
		Log:       log,
		Progress:  2 * time.Second,

		PreviewSize: cfg.PreviewSize,
		PreviewView: view,
	}, levels)

	elapsed := time.Since(start)
	fmt.Println("------------------------------------------------------------")
	fmt.Printf("Done in %.1fs\n", elapsed.Seconds())

	// Count results
	success, failed, diagnostics := 0, 0, 0
	var errors []batch.Result
	for _, r := range results {
		if r.Success {
			success++
			diagnostics += r.Stats.Diagnostics
			fmt.Printf("  %s: %d meshes, %d chunks, %d textures, %d diagnostics\n",
				r.Name, r.Stats.Definitions+r.Stats.Instances, r.Stats.Chunks, len(r.Textures), r.Stats.Diagnostics)
		} else {
			failed++
			errors = append(errors, r)
		}
	}

	fmt.Printf("Exported: %d/%d (%d diagnostics)\n", success, len(levels), diagnostics)

	if len(errors) > 0 {
		fmt.Printf("\nFailed (%d):\n", failed)
		for _, e := range errors[:min(len(errors), 20)] {
			fmt.Printf("  %s: %s\n", e.Name, e.Error)
		}
	}

	// Write manifest
	manifestPath := filepath.Join(cfg.OutputDir, "manifest.json")
	os.MkdirAll(cfg.OutputDir, 0755)
	if err := batch.WriteManifest(manifestPath, results); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: manifest write failed: %v\n", err)
	} else {
		fmt.Printf("Manifest: %s\n", manifestPath)
	}

	if failed > 0 {
		os.Exit(1)
	}
}
