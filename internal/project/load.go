package project

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/vivliostyle/viola-savepdf/internal/fsops"
)

// File names searched for in the context directory, in order.
var configNames = []string{"viola.yaml", "viola.yml"}

// Load reads and decodes the project file at path.
func Load(fs fsops.FS, path string) (*Config, error) {
	data, err := fs.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read project file %s: %w", path, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("invalid project file %s: %w", path, err)
	}
	return &cfg, nil
}

// Find returns the path of the project file in dir, or empty when none of
// the candidate names exists.
func Find(fs fsops.FS, dir string) (string, error) {
	for _, name := range configNames {
		path := filepath.Join(dir, name)
		exists, err := fs.Exists(path)
		if err != nil {
			return "", fmt.Errorf("failed to check for %s: %w", path, err)
		}
		if exists {
			return path, nil
		}
	}
	return "", nil
}

// PackageMeta is the subset of package.json the resolver reads: fallbacks
// for the publication title and author.
type PackageMeta struct {
	Name   string
	Author string
}

// ReadPackageMeta reads name and author from <dir>/package.json. A missing
// or unreadable file yields empty metadata, never an error: the file is an
// optional fallback source.
func ReadPackageMeta(fs fsops.FS, dir string) PackageMeta {
	data, err := fs.ReadFile(filepath.Join(dir, "package.json"))
	if err != nil {
		return PackageMeta{}
	}
	var raw struct {
		Name   string          `json:"name"`
		Author json.RawMessage `json:"author"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return PackageMeta{}
	}

	meta := PackageMeta{Name: raw.Name}
	if len(raw.Author) > 0 {
		// package.json authors are either a plain string or an object
		// with a name field.
		var s string
		if err := json.Unmarshal(raw.Author, &s); err == nil {
			meta.Author = s
		} else {
			var obj struct {
				Name string `json:"name"`
			}
			if err := json.Unmarshal(raw.Author, &obj); err == nil {
				meta.Author = obj.Name
			}
		}
	}
	return meta
}
