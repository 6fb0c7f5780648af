package registry

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// JSONStore keeps the registry in a single JSON side-car document.
type JSONStore struct {
	path string
}

// NewJSONStore creates a store backed by the file at path.
func NewJSONStore(path string) *JSONStore {
	return &JSONStore{path: path}
}

// Path returns the side-car file path.
func (s *JSONStore) Path() string {
	return s.path
}

type sideCar struct {
	Databases []sideCarEntry `json:"databases"`
}

type sideCarEntry struct {
	Name             string   `json:"name"`
	SourceProject    string   `json:"sourceProject"`
	Directory        string   `json:"directory"`
	LastUpdated      string   `json:"lastUpdated"`
	IncludedProjects []string `json:"includedProjects"`
	Configuration    string   `json:"configuration"`
	Platform         string   `json:"platform"`
}

// Load reads the side-car. A missing file is an empty registry.
func (s *JSONStore) Load(_ context.Context) ([]Entry, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read registry file: %w", err)
	}

	var doc sideCar
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse registry file %s: %w", s.path, err)
	}

	entries := make([]Entry, 0, len(doc.Databases))
	for _, d := range doc.Databases {
		entries = append(entries, Entry{
			Name:              d.Name,
			SourceBuild:       d.SourceProject,
			Directory:         d.Directory,
			LastUpdated:       parseTimestamp(d.LastUpdated),
			IncludedUnits:     d.IncludedProjects,
			ConfigurationName: d.Configuration,
			PlatformName:      d.Platform,
		})
	}
	return entries, nil
}

// Save overwrites the side-car with entries. The file is replaced atomically.
func (s *JSONStore) Save(_ context.Context, entries []Entry) error {
	doc := sideCar{Databases: make([]sideCarEntry, 0, len(entries))}
	for _, e := range entries {
		units := e.IncludedUnits
		if units == nil {
			units = []string{}
		}
		doc.Databases = append(doc.Databases, sideCarEntry{
			Name:             e.Name,
			SourceProject:    e.SourceBuild,
			Directory:        e.Directory,
			LastUpdated:      formatTimestamp(e.LastUpdated),
			IncludedProjects: units,
			Configuration:    e.ConfigurationName,
			Platform:         e.PlatformName,
		})
	}

	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode registry: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create registry directory: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write registry file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("failed to replace registry file: %w", err)
	}
	return nil
}

// formatTimestamp writes the zero time as the epoch minimum.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// parseTimestamp returns the zero time for anything it cannot read.
func parseTimestamp(s string) time.Time {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			if t.Year() <= 1 {
				return time.Time{}
			}
			return t
		}
	}
	return time.Time{}
}
