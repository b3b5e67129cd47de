package batch

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"sly-level-decoder/internal/config"
	"sly-level-decoder/internal/export"
	"sly-level-decoder/internal/level"
	"sly-level-decoder/internal/raster"
	"sly-level-decoder/internal/source"
	"sly-level-decoder/internal/texture"
)

// Config holds all shared settings for a batch run.
type Config struct {
	OutputDir string
	Export    texture.ExportOptions
	Workers   int
	Log       *zap.Logger

	// PreviewSize enables a rendered preview of this many pixels square.
	PreviewSize int
	PreviewView raster.View

	// Progress is how often a progress line is printed; zero disables it.
	Progress time.Duration
}

// Result holds the outcome of processing one level.
type Result struct {
	Name     string
	Source   string
	Success  bool
	Error    string
	OBJ      string
	Preview  string
	Textures []string
	Stats    level.Stats
}

// Run decodes and exports all levels using a worker pool.
func Run(cfg Config, levels []config.LevelSpec) []Result {
	if cfg.Log == nil {
		cfg.Log = zap.NewNop()
	}
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	total := len(levels)
	results := make([]Result, total)
	var processed atomic.Int64

	start := time.Now()

	// Progress reporter
	done := make(chan struct{})
	if cfg.Progress > 0 {
		go func() {
			ticker := time.NewTicker(cfg.Progress)
			defer ticker.Stop()
			for {
				select {
				case <-done:
					return
				case <-ticker.C:
					p := processed.Load()
					if p > 0 {
						elapsed := time.Since(start).Seconds()
						rate := float64(p) / elapsed
						fmt.Printf("  [%d/%d] %.1f levels/sec\n", p, total, rate)
					}
				}
			}
		}()
	}

	// Worker pool
	levelChan := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for w := 0; w < cfg.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range levelChan {
				results[idx] = processLevel(cfg, levels[idx])
				processed.Add(1)
			}
		}()
	}

	// Send work
	for i := range levels {
		levelChan <- i
	}
	close(levelChan)

	wg.Wait()
	close(done)

	return results
}

func processLevel(cfg Config, spec config.LevelSpec) Result {
	res := Result{Name: spec.Name, Source: spec.Path}
	fail := func(err error) Result {
		res.Error = err.Error()
		cfg.Log.Warn("level failed", zap.String("level", spec.Name), zap.Error(err))
		return res
	}

	buf, err := source.Load(spec.Path)
	if err != nil {
		return fail(err)
	}
	lvl, err := level.Decode(buf, spec.Name, spec.Layout(), cfg.Log)
	if err != nil {
		return fail(err)
	}
	res.Stats = lvl.Stats()

	outDir := filepath.Join(cfg.OutputDir, spec.Name)
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return fail(err)
	}

	var summary export.Summary
	if len(lvl.Containers) > 0 {
		if summary, err = writeOBJ(filepath.Join(outDir, spec.Name+".obj"), lvl); err != nil {
			return fail(err)
		}
		res.OBJ = spec.Name + ".obj"
	}

	// Diffuse maps for every role the geometry uses; the rest of the
	// texture container goes out as well when there is no geometry.
	roles := summary.Roles
	if len(lvl.Containers) == 0 && lvl.Textures != nil {
		for i := range lvl.Textures.Descs {
			roles = append(roles, i)
		}
	}
	files := map[int]string{}
	texDir := filepath.Join(outDir, "textures")
	for _, role := range roles {
		tex := lvl.Texture(role)
		if tex == nil {
			continue
		}
		path, err := texture.Export(texDir, tex, cfg.Export)
		if err != nil {
			return fail(err)
		}
		rel, _ := filepath.Rel(outDir, path)
		files[role] = filepath.ToSlash(rel)
		res.Textures = append(res.Textures, files[role])
	}

	if res.OBJ != "" {
		if err := writeMTL(filepath.Join(outDir, spec.Name+".mtl"), summary.Roles, files); err != nil {
			return fail(err)
		}
	}

	if cfg.PreviewSize > 0 && len(lvl.Containers) > 0 {
		res.Preview = "preview." + string(cfg.Export.Format)
		if err := writePreview(filepath.Join(outDir, res.Preview), lvl, cfg); err != nil {
			return fail(err)
		}
	}

	res.Success = true
	return res
}

func writePreview(path string, lvl *level.Level, cfg Config) error {
	img := raster.RenderLevel(lvl.Containers, func(role int) *image.NRGBA {
		if tex := lvl.Texture(role); tex != nil {
			return tex.Pixels
		}
		return nil
	}, raster.Options{Size: cfg.PreviewSize, Supersample: 2, View: cfg.PreviewView})

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := texture.Encode(f, img, cfg.Export.Format); err != nil {
		return fmt.Errorf("preview %s: %w", path, err)
	}
	return f.Close()
}

func writeOBJ(path string, lvl *level.Level) (export.Summary, error) {
	f, err := os.Create(path)
	if err != nil {
		return export.Summary{}, err
	}
	defer f.Close()

	base := filepath.Base(path)
	mtl := base[:len(base)-len(filepath.Ext(base))] + ".mtl"
	s, err := export.WriteOBJ(f, lvl.Containers, mtl)
	if err != nil {
		return s, fmt.Errorf("obj %s: %w", path, err)
	}
	return s, f.Close()
}

func writeMTL(path string, roles []int, files map[int]string) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := export.WriteMTL(f, roles, func(role int) string { return files[role] }); err != nil {
		return fmt.Errorf("mtl %s: %w", path, err)
	}
	return f.Close()
}
