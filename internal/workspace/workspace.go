// Package workspace persists resolved component records in the workspace
// manifest and loads workspace-level resolver configuration.
package workspace

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// ManifestFile is the well-known workspace-relative manifest location.
const ManifestFile = ".greentic/components.json"

// Entry is the persisted record of one resolved component.
type Entry struct {
	Name     string `json:"name"`
	Version  string `json:"version"`
	FileWasm string `json:"file_wasm"`
	Hash     string `json:"hash"`
}

// Record binds a resolved entry to the coordinate it was requested under.
type Record struct {
	Coordinate string `json:"coordinate"`
	Entry      Entry  `json:"entry"`
}

// Manifest is the persisted workspace manifest.
type Manifest struct {
	Components []Record `json:"components"`
}

// ManifestWriteError reports a workspace manifest that could not be read,
// parsed, or replaced. Malformed pre-existing content is surfaced through
// this error instead of being silently overwritten.
type ManifestWriteError struct {
	Path string
	Err  error
}

func (e *ManifestWriteError) Error() string {
	return fmt.Sprintf("workspace manifest %q: %v", e.Path, e.Err)
}

func (e *ManifestWriteError) Unwrap() error { return e.Err }

// Load reads the workspace manifest at path. A missing file yields an
// empty manifest; malformed content is an error.
func Load(path string) (*Manifest, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Manifest{}, nil
	}
	if err != nil {
		return nil, &ManifestWriteError{Path: path, Err: err}
	}

	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, &ManifestWriteError{Path: path, Err: fmt.Errorf("existing content is malformed: %w", err)}
	}
	return &m, nil
}

// Upsert replaces the record with the same component name in place,
// preserving the relative order of all other records, or appends when the
// component is new.
func (m *Manifest) Upsert(record Record) {
	for i, existing := range m.Components {
		if existing.Entry.Name == record.Entry.Name {
			m.Components[i] = record
			return
		}
	}
	m.Components = append(m.Components, record)
}

// Save writes the manifest atomically: content goes to a temporary file in
// the manifest directory and is renamed into place.
func Save(path string, m *Manifest) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return &ManifestWriteError{Path: path, Err: err}
	}

	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return &ManifestWriteError{Path: path, Err: err}
	}
	data = append(data, '\n')

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+"-*")
	if err != nil {
		return &ManifestWriteError{Path: path, Err: err}
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := tmp.Write(data); err != nil {
		return &ManifestWriteError{Path: path, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &ManifestWriteError{Path: path, Err: err}
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return &ManifestWriteError{Path: path, Err: err}
	}

	return nil
}

// Upsert loads the manifest at path, upserts the record, and saves the
// result atomically.
func Upsert(path string, record Record) error {
	m, err := Load(path)
	if err != nil {
		return err
	}
	m.Upsert(record)
	return Save(path, m)
}
