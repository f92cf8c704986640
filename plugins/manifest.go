// Package plugins loads custom generator backends from .draftdeck/plugins.
// A plugin is a yaml manifest naming a Go source file that is interpreted
// with yaegi at load time.
package plugins

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Manifest describes one generator plugin.
//
// The struct mirrors the on-disk schema under .draftdeck/plugins/*.yaml and
// is intentionally narrow so the dashboard can validate plugin metadata
// before handing the backend to the orchestrator.
type Manifest struct {
	ID          string `json:"id" yaml:"id"`
	Name        string `json:"name,omitempty" yaml:"name,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Version     string `json:"version" yaml:"version"`
	// Source is the Go file implementing the backend, relative to the
	// manifest unless absolute.
	Source string `json:"source" yaml:"source"`
}

// Normalized returns a trimmed copy of the manifest.
func (m Manifest) Normalized() Manifest {
	return Manifest{
		ID:          strings.TrimSpace(m.ID),
		Name:        strings.TrimSpace(m.Name),
		Description: strings.TrimSpace(m.Description),
		Version:     strings.TrimSpace(m.Version),
		Source:      strings.TrimSpace(m.Source),
	}
}

// Validate ensures the manifest is well-formed.
func (m Manifest) Validate() error {
	normalized := m.Normalized()
	if normalized.ID == "" {
		return fmt.Errorf("plugin: id is required")
	}
	if normalized.Version == "" {
		return fmt.Errorf("plugin %s: version is required", normalized.ID)
	}
	if normalized.Source == "" {
		return fmt.Errorf("plugin %s: source is required", normalized.ID)
	}
	if filepath.Ext(normalized.Source) != ".go" {
		return fmt.Errorf("plugin %s: source %s must be a .go file", normalized.ID, normalized.Source)
	}
	return nil
}

// ManifestFile pairs a parsed manifest with its location on disk.
type ManifestFile struct {
	Manifest Manifest
	Path     string
}

// SourcePath resolves the manifest's source file against its own location.
func (f ManifestFile) SourcePath() string {
	if filepath.IsAbs(f.Manifest.Source) {
		return f.Manifest.Source
	}
	return filepath.Join(filepath.Dir(f.Path), f.Manifest.Source)
}

// ParseManifestYAML decodes and validates a single manifest payload.
func ParseManifestYAML(data []byte) (Manifest, error) {
	var manifest Manifest
	if err := yaml.Unmarshal(data, &manifest); err != nil {
		return Manifest{}, fmt.Errorf("plugin: parse manifest: %w", err)
	}
	manifest = manifest.Normalized()
	if err := manifest.Validate(); err != nil {
		return Manifest{}, err
	}
	return manifest, nil
}

// DiscoverDir reads every *.yaml manifest in dir, sorted by path. A missing
// directory yields no plugins.
func DiscoverDir(dir string) ([]ManifestFile, error) {
	trimmed := strings.TrimSpace(dir)
	if trimmed == "" {
		return nil, nil
	}
	entries, err := os.ReadDir(trimmed)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("plugin: read %s: %w", trimmed, err)
	}
	var files []ManifestFile
	seen := make(map[string]string)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}
		path := filepath.Join(trimmed, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("plugin: read %s: %w", path, err)
		}
		manifest, err := ParseManifestYAML(data)
		if err != nil {
			return nil, fmt.Errorf("plugin: %s: %w", path, err)
		}
		if prior, exists := seen[manifest.ID]; exists {
			return nil, fmt.Errorf("plugin: duplicate id %s in %s and %s", manifest.ID, prior, path)
		}
		seen[manifest.ID] = path
		files = append(files, ManifestFile{Manifest: manifest, Path: path})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Path < files[j].Path })
	return files, nil
}

// Find returns the manifest with the given id from dir.
func Find(dir, id string) (ManifestFile, error) {
	files, err := DiscoverDir(dir)
	if err != nil {
		return ManifestFile{}, err
	}
	for _, file := range files {
		if file.Manifest.ID == id {
			return file, nil
		}
	}
	return ManifestFile{}, fmt.Errorf("plugin: %s not found in %s", id, dir)
}
