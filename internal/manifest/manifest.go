// Package manifest models the component manifest and gates prepared
// components against a requested version requirement.
//
// A component ships its manifest either as a plain document
// (component.yaml or component.json), inside a component directory, or as
// a member of a component pack archive (tar, optionally gzip-compressed).
package manifest

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"github.com/Masterminds/semver/v3"
	tarfs "github.com/nlepage/go-tarfs"
	"sigs.k8s.io/yaml"
)

// FileName is the canonical manifest file name inside component
// directories and pack archives.
const FileName = "component.yaml"

// FileNameJSON is the JSON alternative consulted when FileName is absent.
const FileNameJSON = "component.json"

// Manifest is the parsed component manifest.
type Manifest struct {
	// Name is the canonical component identity declared by the component
	// itself. It may diverge from the alias a caller resolved it under.
	Name string `json:"name"`

	// Version is the concrete component version.
	Version string `json:"version"`

	// Wasm is the artifact-relative path of the component binary.
	Wasm string `json:"wasm,omitempty"`

	// Capabilities lists the host capabilities the component requests.
	Capabilities []string `json:"capabilities,omitempty"`

	// Limits carries resource limits such as memory_mb or timeout_ms.
	Limits map[string]int64 `json:"limits,omitempty"`

	// Describes lists the versioned schema documents the component exposes
	// to declare its own configuration surface.
	Describes []DescribeEntry `json:"describes,omitempty"`
}

// DescribeEntry is a single describe version carrying a schema document.
type DescribeEntry struct {
	Version string          `json:"version"`
	Schema  json.RawMessage `json:"schema"`
}

// VersionMismatchError reports a manifest version that violates the
// requested requirement.
type VersionMismatchError struct {
	Found    string
	Required string
}

func (e *VersionMismatchError) Error() string {
	return fmt.Sprintf("component version %s does not satisfy requirement %s", e.Found, e.Required)
}

// Gate checks the manifest version against the requested requirement using
// standard range semantics (exact, caret, tilde, wildcard).
func (m *Manifest) Gate(requirement *semver.Constraints, requirementRaw string) error {
	version, err := semver.NewVersion(m.Version)
	if err != nil {
		return fmt.Errorf("manifest of %q declares invalid version %q: %w", m.Name, m.Version, err)
	}
	if !requirement.Check(version) {
		return &VersionMismatchError{Found: m.Version, Required: requirementRaw}
	}
	return nil
}

// Parse decodes a manifest document. YAML and JSON are both accepted; the
// document is converted to JSON before decoding so schema members survive
// as raw JSON.
func Parse(data []byte) (*Manifest, error) {
	var m Manifest
	if err := yaml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("failed to parse component manifest: %w", err)
	}
	if m.Name == "" {
		return nil, fmt.Errorf("component manifest declares no name")
	}
	if m.Version == "" {
		return nil, fmt.Errorf("component manifest of %q declares no version", m.Name)
	}
	return &m, nil
}

// Load reads a manifest from an artifact path. Directories are searched
// for component.yaml / component.json; tar and gzip-compressed tar
// archives are opened as pack archives; anything else is treated as a bare
// manifest document.
func Load(path string) (*Manifest, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat artifact %q: %w", path, err)
	}

	if info.IsDir() {
		data, err := readFirst(os.DirFS(path), FileName, FileNameJSON)
		if err != nil {
			return nil, fmt.Errorf("component directory %q: %w", path, err)
		}
		return Parse(data)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read artifact %q: %w", path, err)
	}

	if isGzip(data) {
		zr, err := gzip.NewReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to decompress pack archive %q: %w", path, err)
		}
		defer func() { _ = zr.Close() }()
		if data, err = io.ReadAll(zr); err != nil {
			return nil, fmt.Errorf("failed to decompress pack archive %q: %w", path, err)
		}
	}

	if isTar(data) {
		packFS, err := tarfs.New(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("failed to open pack archive %q: %w", path, err)
		}
		manifestData, err := readFirst(packFS, FileName, FileNameJSON)
		if err != nil {
			return nil, fmt.Errorf("pack archive %q: %w", path, err)
		}
		return Parse(manifestData)
	}

	return Parse(data)
}

// readFirst returns the content of the first existing candidate file.
func readFirst(fsys fs.FS, candidates ...string) ([]byte, error) {
	for _, name := range candidates {
		data, err := fs.ReadFile(fsys, name)
		if err == nil {
			return data, nil
		}
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to read %q: %w", name, err)
		}
	}
	return nil, fmt.Errorf("no manifest found (expected %s)", candidates[0])
}

func isGzip(data []byte) bool {
	return len(data) > 2 && data[0] == 0x1f && data[1] == 0x8b
}

func isTar(data []byte) bool {
	// "ustar" magic at offset 257 of the first header block
	return len(data) > 262 && bytes.Equal(data[257:262], []byte("ustar"))
}
