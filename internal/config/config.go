package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"sly-level-decoder/internal/level"
	"sly-level-decoder/internal/raster"
	"sly-level-decoder/internal/texture"
)

// Config holds the levels to decode and the export settings.
type Config struct {
	// Paths
	BaseDir   string `json:"base_dir" yaml:"base_dir"`
	OutputDir string `json:"output_dir" yaml:"output_dir"`

	Levels []LevelSpec `json:"levels" yaml:"levels"`

	// Export settings
	Format      string `json:"format" yaml:"format"`
	Scale       int    `json:"scale" yaml:"scale"`
	DoubleAlpha bool   `json:"double_alpha" yaml:"double_alpha"`
	FlipY       bool   `json:"flip_y" yaml:"flip_y"`
	Workers     int    `json:"workers" yaml:"workers"`

	// Preview settings; PreviewSize 0 disables the preview render.
	PreviewSize int    `json:"preview_size" yaml:"preview_size"`
	PreviewView string `json:"preview_view" yaml:"preview_view"`
}

// LevelSpec names one level file and where its tables start. The file has
// no directory of its own, so the offsets have to be found beforehand (see
// cmd/inspect). Missing ObjectTable or TextureContainer means the table is
// not decoded.
type LevelSpec struct {
	Name             string `json:"name" yaml:"name"`
	Path             string `json:"path" yaml:"path"`
	ObjectTable      *int   `json:"object_table,omitempty" yaml:"object_table,omitempty"`
	MeshContainers   []int  `json:"mesh_containers" yaml:"mesh_containers"`
	TextureContainer *int   `json:"texture_container,omitempty" yaml:"texture_container,omitempty"`
	TextureDataSize  int    `json:"texture_data_size" yaml:"texture_data_size"`
}

// Layout converts the entry to a decoder layout.
func (l LevelSpec) Layout() level.Layout {
	lay := level.Layout{
		ObjectTable:      -1,
		MeshContainers:   l.MeshContainers,
		TextureContainer: -1,
		TextureDataSize:  l.TextureDataSize,
	}
	if l.ObjectTable != nil {
		lay.ObjectTable = *l.ObjectTable
	}
	if l.TextureContainer != nil {
		lay.TextureContainer = *l.TextureContainer
	}
	return lay
}

// Load reads a config file. Files ending in .yaml or .yml are parsed as
// YAML, which also accepts hex offsets (0x1A40); anything else as JSON.
// Fields not set in the file keep their zero values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}
	if err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	DataDir   string
	OutputDir string
	Format    string
	Scale     int
	Workers   int
	Preview   int
}

// Resolve applies flags and fills in defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.DataDir != "" {
		c.BaseDir = flags.DataDir
	}
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.Format != "" {
		c.Format = flags.Format
	}
	if flags.Scale > 0 {
		c.Scale = flags.Scale
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.Preview > 0 {
		c.PreviewSize = flags.Preview
	}

	// Resolve relative paths against base dir
	if c.BaseDir != "" {
		for i := range c.Levels {
			if p := c.Levels[i].Path; p != "" && !filepath.IsAbs(p) {
				c.Levels[i].Path = filepath.Join(c.BaseDir, p)
			}
		}
		if c.OutputDir != "" && !filepath.IsAbs(c.OutputDir) {
			c.OutputDir = filepath.Join(c.BaseDir, c.OutputDir)
		}
	}
	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(c.BaseDir, "export")
	}

	for i := range c.Levels {
		if c.Levels[i].Name == "" {
			base := filepath.Base(c.Levels[i].Path)
			c.Levels[i].Name = strings.TrimSuffix(base, filepath.Ext(base))
		}
	}

	// Defaults for export settings
	if c.Format == "" {
		c.Format = string(texture.FormatPNG)
	}
	if c.Scale <= 0 {
		c.Scale = 1
	}
	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
}

// Validate reports the first setting that cannot be used.
func (c *Config) Validate() error {
	if _, err := texture.ParseFormat(c.Format); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if _, err := raster.ParseView(c.PreviewView); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	seen := map[string]bool{}
	for i, l := range c.Levels {
		if l.Path == "" {
			return fmt.Errorf("config: level %d has no path", i)
		}
		if len(l.MeshContainers) == 0 && l.TextureContainer == nil {
			return fmt.Errorf("config: level %s: no mesh or texture container offsets", l.Name)
		}
		if seen[l.Name] {
			return fmt.Errorf("config: duplicate level name %q", l.Name)
		}
		seen[l.Name] = true
	}
	return nil
}

// ExportOptions returns the texture export settings.
func (c *Config) ExportOptions() (texture.ExportOptions, error) {
	f, err := texture.ParseFormat(c.Format)
	if err != nil {
		return texture.ExportOptions{}, fmt.Errorf("config: %w", err)
	}
	return texture.ExportOptions{
		Format:      f,
		DoubleAlpha: c.DoubleAlpha,
		FlipY:       c.FlipY,
		Scale:       c.Scale,
	}, nil
}

// ParseOffsets parses a comma-separated list of decimal or 0x-prefixed
// offsets, as given on the command line.
func ParseOffsets(s string) ([]int, error) {
	var out []int
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		v, err := strconv.ParseInt(f, 0, 64)
		if err != nil || v < 0 {
			return nil, fmt.Errorf("config: bad offset %q", f)
		}
		out = append(out, int(v))
	}
	return out, nil
}
