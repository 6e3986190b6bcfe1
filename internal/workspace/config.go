package workspace

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFile is the well-known workspace-relative configuration location.
const ConfigFile = ".greentic/config.yaml"

// Config carries workspace-level resolver settings. CLI flags take
// precedence over values loaded from the file.
type Config struct {
	// CacheDir overrides the default artifact cache root.
	CacheDir string `yaml:"cache_dir"`

	// Offline disables all network fetches. Non-local coordinates fail
	// hard unless a stub resolution is injected.
	Offline bool `yaml:"offline"`

	// FetchTimeout bounds a single artifact download, e.g. "30s".
	FetchTimeout string `yaml:"fetch_timeout"`
}

// Timeout parses the configured fetch timeout. A zero duration means the
// fetcher default applies.
func (c *Config) Timeout() (time.Duration, error) {
	if c.FetchTimeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.FetchTimeout)
	if err != nil {
		return 0, fmt.Errorf("invalid fetch_timeout %q: %w", c.FetchTimeout, err)
	}
	return d, nil
}

// LoadConfig reads the workspace configuration under dir. A missing file
// yields the zero configuration.
func LoadConfig(dir string) (*Config, error) {
	return LoadConfigFile(filepath.Join(dir, ConfigFile))
}

// LoadConfigFile reads a configuration from an explicit path, for callers
// that point at a file outside the workspace layout.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return &Config{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read workspace config %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("workspace config %q is malformed: %w", path, err)
	}
	return &cfg, nil
}
