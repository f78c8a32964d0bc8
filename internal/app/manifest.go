package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Manifest is the YAML-serialized set of dictionaries the daemon builds at
// start and keeps in sync with their files.
type Manifest struct {
	MaxEntries   int             `yaml:"max_entries,omitempty"`
	Workers      int             `yaml:"workers,omitempty"`
	Dictionaries []ManifestEntry `yaml:"dictionaries"`
}

// ManifestEntry names one word-list file. File is relative to the project
// root unless absolute.
type ManifestEntry struct {
	Name     string `yaml:"name"`
	File     string `yaml:"file"`
	Comparer string `yaml:"comparer,omitempty"`
	Strategy string `yaml:"strategy,omitempty"`
}

// LoadManifest reads a manifest. A missing file yields an empty manifest.
func LoadManifest(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read manifest: %w", err)
	}

	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse manifest %s: %w", path, err)
	}
	seen := make(map[string]bool, len(m.Dictionaries))
	for i, e := range m.Dictionaries {
		if e.File == "" {
			return nil, fmt.Errorf("manifest %s: dictionary %d has no file", path, i)
		}
		if e.Name == "" {
			m.Dictionaries[i].Name = filepath.Base(e.File)
		}
		name := m.Dictionaries[i].Name
		if seen[name] {
			return nil, fmt.Errorf("manifest %s: duplicate dictionary %q", path, name)
		}
		seen[name] = true
	}
	return &m, nil
}

// SaveManifest writes a manifest, replacing any existing file.
func SaveManifest(path string, m *Manifest) error {
	data, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ResolveFile returns the absolute path of an entry's word-list file.
func (e ManifestEntry) ResolveFile(projectRoot string) string {
	if filepath.IsAbs(e.File) {
		return filepath.Clean(e.File)
	}
	return filepath.Join(projectRoot, e.File)
}
