package rules

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// File is the on-disk layout of a rules file: a base day rule plus per-group
// overrides.
type File struct {
	Base   DayRule                  `json:"base" yaml:"base"`
	Groups map[string]GroupOverride `json:"groups" yaml:"groups"`
}

// Load reads a rules file in JSON or YAML format.
func Load(path string) (File, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return File{}, err
	}
	ext := strings.ToLower(filepath.Ext(path))
	var f File
	switch ext {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(b, &f)
	case ".json":
		err = json.Unmarshal(b, &f)
	default:
		return File{}, fmt.Errorf("unsupported rules format: %s", ext)
	}
	if err != nil {
		return File{}, fmt.Errorf("parse rules %s: %w", path, err)
	}
	return f, nil
}

// Decode reads a rules file from r.
func Decode(r io.Reader, format string) (File, error) {
	var f File
	switch strings.ToLower(format) {
	case "yaml", "yml":
		if err := yaml.NewDecoder(r).Decode(&f); err != nil {
			return f, err
		}
	case "json":
		if err := json.NewDecoder(r).Decode(&f); err != nil {
			return f, err
		}
	default:
		return f, fmt.Errorf("unsupported format: %s", format)
	}
	return f, nil
}

// Write stores the merged rule table for the given groups as YAML, so the
// effective rules of a run can be inspected later.
func Write(path string, groups []string, f File) error {
	table := Build(groups, f.Groups, f.Base)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	b, err := yaml.Marshal(table)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0o644)
}
