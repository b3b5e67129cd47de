package batch

import (
	"encoding/json"
	"os"

	"sly-level-decoder/internal/level"
)

// ManifestEntry represents one level in the output manifest.
type ManifestEntry struct {
	Name     string      `json:"name"`
	Source   string      `json:"source"`
	OBJ      string      `json:"obj,omitempty"`
	Preview  string      `json:"preview,omitempty"`
	Textures []string    `json:"textures,omitempty"`
	Stats    level.Stats `json:"stats"`
	Error    string      `json:"error,omitempty"`
}

// WriteManifest writes the manifest for results to path.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, len(results))
	for i, r := range results {
		entries[i] = ManifestEntry{
			Name:     r.Name,
			Source:   r.Source,
			OBJ:      r.OBJ,
			Preview:  r.Preview,
			Textures: r.Textures,
			Stats:    r.Stats,
			Error:    r.Error,
		}
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
