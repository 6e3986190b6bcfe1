// Package cache derives deterministic cache locations for component
// artifacts and performs atomic cache writes.
package cache

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/opencontainers/go-digest"
)

// DefaultBaseDir is the workspace-relative cache root used when no base
// directory is supplied.
const DefaultBaseDir = ".greentic/cache"

// Entry is a persisted cache record.
type Entry struct {
	Slug   string
	Path   string
	Digest digest.Digest
}

// Slug derives the filesystem-safe cache directory name for a component.
//
// When a content digest is available it takes precedence: digest-derived
// slugs are stable across mirrors and re-tags of identical content.
// Otherwise the slug is the sanitized component id suffixed by the version.
// Slug is a pure function of its inputs; the version suffix is kept
// verbatim so distinct versions of one component never share a slug.
func Slug(componentID, version string, dgst digest.Digest) string {
	if dgst != "" {
		return dgst.Algorithm().String() + "-" + dgst.Encoded()
	}
	return sanitizeName(componentID) + "-" + strings.ToLower(version)
}

// Path returns the cache location for a component artifact. An empty
// baseDir falls back to DefaultBaseDir.
func Path(componentID, version, baseDir string, dgst digest.Digest) string {
	if baseDir == "" {
		baseDir = DefaultBaseDir
	}
	return filepath.Join(baseDir, Slug(componentID, version, dgst))
}

// sanitizeName lower-cases the component id and restricts it to
// alphanumerics and dashes, mapping namespace separators such as "/" and
// "." to dashes.
func sanitizeName(id string) string {
	var sb strings.Builder
	sb.Grow(len(id))
	for _, r := range strings.ToLower(id) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-':
			sb.WriteRune(r)
		default:
			sb.WriteRune('-')
		}
	}
	return sb.String()
}

// Write streams content to the given cache path atomically: the bytes are
// written to a temporary file in the destination directory and renamed into
// place. A crash mid-write never leaves a partial artifact at the canonical
// path. The sha256 digest of the written content is returned.
func Write(path string, content io.Reader) (digest.Digest, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create cache directory %q: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+"-*")
	if err != nil {
		return "", fmt.Errorf("failed to create temporary cache file in %q: %w", dir, err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	digester := digest.SHA256.Digester()
	if _, err := io.Copy(io.MultiWriter(tmp, digester.Hash()), content); err != nil {
		return "", fmt.Errorf("failed to write cache content to %q: %w", tmp.Name(), err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("failed to close temporary cache file %q: %w", tmp.Name(), err)
	}

	if err := os.Rename(tmp.Name(), path); err != nil {
		return "", fmt.Errorf("failed to move cache content into place at %q: %w", path, err)
	}

	return digester.Digest(), nil
}

// Read opens a cached artifact for reading.
func Read(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open cached artifact %q: %w", path, err)
	}
	return f, nil
}

// Exists reports whether a cache entry is present at the given path.
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
