package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// ErrUnknownBuild marks a build name with no persisted definition.
var ErrUnknownBuild = errors.New("unknown build")

// BuildConfig is one persisted build definition.
type BuildConfig struct {
	Name      string `yaml:"name"`
	Vendor    string `yaml:"vendor"`
	Release   string `yaml:"release"`
	Sources   string `yaml:"sources"`
	WithDebug bool   `yaml:"with_debug"`
	WithTests bool   `yaml:"with_tests"`
}

func (c *Config) buildPath(name string) string {
	return filepath.Join(c.buildsDir(), name+".yaml")
}

// BuildExists reports whether a build definition is persisted.
func (c *Config) BuildExists(name string) bool {
	_, err := os.Stat(c.buildPath(name))
	return err == nil
}

// ReadBuild loads a build definition.
func (c *Config) ReadBuild(name string) (*BuildConfig, error) {
	data, err := os.ReadFile(c.buildPath(name))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownBuild, name)
	}
	if err != nil {
		return nil, fmt.Errorf("reading build %s: %w", name, err)
	}
	var build BuildConfig
	if err := yaml.Unmarshal(data, &build); err != nil {
		return nil, fmt.Errorf("parsing build %s: %w", name, err)
	}
	return &build, nil
}

// WriteBuild persists a build definition.
func (c *Config) WriteBuild(build *BuildConfig) error {
	if build.Name == "" {
		return fmt.Errorf("build name is required")
	}
	if err := os.MkdirAll(c.buildsDir(), 0o755); err != nil {
		return fmt.Errorf("creating builds dir: %w", err)
	}
	data, err := yaml.Marshal(build)
	if err != nil {
		return fmt.Errorf("encoding build %s: %w", build.Name, err)
	}
	if err := os.WriteFile(c.buildPath(build.Name), data, 0o644); err != nil {
		return fmt.Errorf("writing build %s: %w", build.Name, err)
	}
	return nil
}

// RemoveBuild deletes a build definition; removing an unknown build is a
// no-op.
func (c *Config) RemoveBuild(name string) error {
	err := os.Remove(c.buildPath(name))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing build %s: %w", name, err)
	}
	return nil
}

// ListBuilds returns the persisted build names, sorted.
func (c *Config) ListBuilds() ([]string, error) {
	entries, err := os.ReadDir(c.buildsDir())
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("listing builds: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".yaml") {
			continue
		}
		names = append(names, strings.TrimSuffix(e.Name(), ".yaml"))
	}
	sort.Strings(names)
	return names, nil
}
