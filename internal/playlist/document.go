package playlist

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document is a saved slideshow: playback settings plus an ordered list of
// media items with optional per-item overrides.
type Document struct {
	Version           string         `yaml:"version"`
	Style             string         `yaml:"style,omitempty"`
	HoldSeconds       float64        `yaml:"hold,omitempty"`
	TransitionSeconds float64        `yaml:"transition,omitempty"`
	Shuffle           bool           `yaml:"shuffle,omitempty"`
	Items             []DocumentItem `yaml:"items"`
}

// DocumentItem is one saved playlist entry.
type DocumentItem struct {
	Path     string  `yaml:"path"`
	Rotation int     `yaml:"rotation,omitempty"`
	Hold     float64 `yaml:"hold,omitempty"`
}

// WriteDocument writes a slideshow document as YAML.
func WriteDocument(doc *Document, path string) error {
	data, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// ReadDocument reads a slideshow document from a YAML file.
func ReadDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var doc Document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// FindLatestDocument finds the most recently modified slideshow document
// in dir.
func FindLatestDocument(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", fmt.Errorf("failed to read documents directory: %w", err)
	}

	var docs []string
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".yaml") {
			docs = append(docs, filepath.Join(dir, entry.Name()))
		}
	}

	if len(docs) == 0 {
		return "", fmt.Errorf("no slideshow documents found in %s", dir)
	}

	sort.Slice(docs, func(i, j int) bool {
		infoI, _ := os.Stat(docs[i])
		infoJ, _ := os.Stat(docs[j])
		return infoI.ModTime().After(infoJ.ModTime())
	})

	return docs[0], nil
}

// Build expands the document into a playable playlist.
func (d *Document) Build() (*Playlist, error) {
	var items []Item
	for _, di := range d.Items {
		expanded, err := expandPath(di.Path, di.Rotation, di.Hold)
		if err != nil {
			return nil, err
		}
		items = append(items, expanded...)
	}
	if len(items) == 0 {
		return nil, fmt.Errorf("document has no playable items")
	}
	return New(items), nil
}
