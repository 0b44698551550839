// Package config persists the tool configuration and the per-build
// definitions under the user's configuration directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"
)

// ErrNoConfig marks a missing tool configuration; the user must run init
// first.
var ErrNoConfig = errors.New("no configuration found, run 'cab init' first")

// Registry points at an optional image registry.
type Registry struct {
	URL    string `yaml:"url"`
	Secure bool   `yaml:"secure"`
}

// Config is the persisted tool configuration.
type Config struct {
	// InstallsDir is where per-build install trees are produced.
	InstallsDir string `yaml:"installs_dir"`
	// CcacheDir enables the shared compiler cache when set.
	//
	// The cache is shared across builds of the same (vendor, release)
	// pair and is never exclusively locked; concurrent builds may race
	// on cache writes.
	CcacheDir string `yaml:"ccache_dir,omitempty"`
	// CcacheSize is the cache size limit, e.g. "10G".
	CcacheSize string `yaml:"ccache_size,omitempty"`
	// Registry is optional.
	Registry *Registry `yaml:"registry,omitempty"`

	dir string
}

// DefaultDir is the configuration directory, resolved against the user's
// XDG configuration home.
func DefaultDir() string {
	return filepath.Join(xdg.ConfigHome, "cab")
}

// Load reads the configuration from dir; an empty dir means DefaultDir.
func Load(dir string) (*Config, error) {
	if dir == "" {
		dir = DefaultDir()
	}
	path := filepath.Join(dir, "config.yaml")
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if cfg.InstallsDir == "" {
		return nil, fmt.Errorf("%s: installs_dir is required", path)
	}
	cfg.dir = dir
	return &cfg, nil
}

// Save writes the configuration to dir, creating it as needed; an empty dir
// means DefaultDir.
func (c *Config) Save(dir string) error {
	if dir == "" {
		dir = DefaultDir()
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding configuration: %w", err)
	}
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	c.dir = dir
	return nil
}

// Dir returns the directory this configuration lives in.
func (c *Config) Dir() string {
	if c.dir == "" {
		return DefaultDir()
	}
	return c.dir
}

// HasCcache reports whether the compiler cache is configured.
func (c *Config) HasCcache() bool {
	return c.CcacheDir != ""
}

// InstallDirFor returns the install tree location for a build name.
func (c *Config) InstallDirFor(buildName string) string {
	return filepath.Join(c.InstallsDir, buildName)
}

func (c *Config) buildsDir() string {
	return filepath.Join(c.Dir(), "builds")
}
