// Package database persists generated profiles as JSON documents in a
// directory, one file per profile.
package database

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/gridsim/bevflow/core/model"
)

// DB is a directory-backed profile store. Loading fills an in-memory index;
// Put writes through to disk.
type DB struct {
	dir string

	mu       sync.RWMutex
	profiles map[string]*model.Profile
}

// Open creates the directory if needed and loads any existing profiles.
func Open(dir string) (*DB, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create profile db %s: %w", dir, err)
	}
	db := &DB{dir: dir, profiles: make(map[string]*model.Profile)}
	if err := db.Reload(); err != nil {
		return nil, err
	}
	return db, nil
}

// Reload re-reads every profile file from the directory.
func (d *DB) Reload() error {
	entries, err := os.ReadDir(d.dir)
	if err != nil {
		return err
	}
	profiles := make(map[string]*model.Profile)
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		b, err := os.ReadFile(filepath.Join(d.dir, e.Name()))
		if err != nil {
			return err
		}
		var p model.Profile
		if err := json.Unmarshal(b, &p); err != nil {
			return fmt.Errorf("profile %s: %w", e.Name(), err)
		}
		if err := p.Validate(); err != nil {
			return fmt.Errorf("profile %s: %w", e.Name(), err)
		}
		profiles[p.Name] = &p
	}
	d.mu.Lock()
	d.profiles = profiles
	d.mu.Unlock()
	return nil
}

// Put stores the profile in memory and on disk.
func (d *DB) Put(p *model.Profile) error {
	if err := p.Validate(); err != nil {
		return err
	}
	b, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(d.dir, p.Name+".json")
	if err := os.WriteFile(path, b, 0o644); err != nil {
		return err
	}
	d.mu.Lock()
	d.profiles[p.Name] = p
	d.mu.Unlock()
	return nil
}

// Get returns one profile by name.
func (d *DB) Get(name string) (*model.Profile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	p, ok := d.profiles[name]
	if !ok {
		return nil, fmt.Errorf("profile %q not found", name)
	}
	return p, nil
}

// Names lists all stored profile names in stable order.
func (d *DB) Names() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	names := make([]string, 0, len(d.profiles))
	for n := range d.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// ByKind returns all profiles of the given kind, sorted by name.
func (d *DB) ByKind(kind model.ProfileKind) []*model.Profile {
	d.mu.RLock()
	defer d.mu.RUnlock()
	var out []*model.Profile
	for _, p := range d.profiles {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Len returns the number of stored profiles.
func (d *DB) Len() int {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.profiles)
}
