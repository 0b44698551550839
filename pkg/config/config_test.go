package config

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := &Config{
		InstallsDir: filepath.Join(t.TempDir(), "installs"),
		CcacheDir:   filepath.Join(t.TempDir(), "ccache"),
		CcacheSize:  "10G",
	}
	require.NoError(t, cfg.Save(t.TempDir()))
	return cfg
}

func TestLoadMissingConfig(t *testing.T) {
	_, err := Load(t.TempDir())
	assert.True(t, errors.Is(err, ErrNoConfig))
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{
		InstallsDir: "/srv/cab/installs",
		CcacheDir:   "/srv/cab/ccache",
		CcacheSize:  "20G",
		Registry:    &Registry{URL: "localhost:5000", Secure: false},
	}
	require.NoError(t, cfg.Save(dir))

	loaded, err := Load(dir)
	require.NoError(t, err)
	assert.Equal(t, "/srv/cab/installs", loaded.InstallsDir)
	assert.Equal(t, "20G", loaded.CcacheSize)
	require.NotNil(t, loaded.Registry)
	assert.Equal(t, "localhost:5000", loaded.Registry.URL)
	assert.True(t, loaded.HasCcache())
	assert.Equal(t, dir, loaded.Dir())
}

func TestLoadRequiresInstallsDir(t *testing.T) {
	dir := t.TempDir()
	cfg := &Config{CcacheDir: "/x"}
	require.NoError(t, cfg.Save(dir))

	_, err := Load(dir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "installs_dir")
}

func TestInstallDirFor(t *testing.T) {
	cfg := &Config{InstallsDir: "/srv/installs"}
	assert.Equal(t, "/srv/installs/mybuild", cfg.InstallDirFor("mybuild"))
}

func TestBuildRoundTrip(t *testing.T) {
	cfg := testConfig(t)

	build := &BuildConfig{
		Name:      "mybuild",
		Vendor:    "suse",
		Release:   "nautilus",
		Sources:   "/src/ceph",
		WithTests: true,
	}
	require.NoError(t, cfg.WriteBuild(build))
	assert.True(t, cfg.BuildExists("mybuild"))

	loaded, err := cfg.ReadBuild("mybuild")
	require.NoError(t, err)
	assert.Equal(t, build, loaded)
}

func TestReadUnknownBuild(t *testing.T) {
	cfg := testConfig(t)

	_, err := cfg.ReadBuild("nope")
	assert.True(t, errors.Is(err, ErrUnknownBuild))
	assert.False(t, cfg.BuildExists("nope"))
}

func TestRemoveBuild(t *testing.T) {
	cfg := testConfig(t)
	require.NoError(t, cfg.WriteBuild(&BuildConfig{Name: "b", Vendor: "v", Release: "r"}))

	require.NoError(t, cfg.RemoveBuild("b"))
	assert.False(t, cfg.BuildExists("b"))

	// Removing twice is a no-op.
	assert.NoError(t, cfg.RemoveBuild("b"))
}

func TestListBuilds(t *testing.T) {
	cfg := testConfig(t)

	names, err := cfg.ListBuilds()
	require.NoError(t, err)
	assert.Empty(t, names)

	require.NoError(t, cfg.WriteBuild(&BuildConfig{Name: "zeta"}))
	require.NoError(t, cfg.WriteBuild(&BuildConfig{Name: "alpha"}))

	names, err = cfg.ListBuilds()
	require.NoError(t, err)
	assert.Equal(t, []string{"alpha", "zeta"}, names)
}

func TestWriteBuildRequiresName(t *testing.T) {
	cfg := testConfig(t)
	assert.Error(t, cfg.WriteBuild(&BuildConfig{}))
}
