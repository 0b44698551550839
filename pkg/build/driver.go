package build

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/jecluis/ceph-amazing-builder/pkg/gitver"
	"github.com/jecluis/ceph-amazing-builder/pkg/image"
	"github.com/jecluis/ceph-amazing-builder/pkg/specfile"
)

// Container-side mount points of the build environment contract.
const (
	mountSource  = "/build/src"
	mountOutput  = "/build/out"
	mountCcache  = "/build/ccache"
	mountToolkit = "/build/bin"
)

// Synthesized script names inside the toolkit directory.
const (
	buildScript   = "cab-build.sh"
	installScript = "cab-install.sh"
	postScript    = "cab-postinst.sh"
)

// Result is what a completed job hands to the image composer.
type Result struct {
	Version gitver.Descriptor
	Scripts *specfile.Scripts

	// PostInstall is the on-disk path of the deferred post-install
	// script, applied later inside the final image root.
	PostInstall string
}

// Driver executes build jobs against an image store.
type Driver struct {
	store  image.Store
	logger *slog.Logger
}

// NewDriver creates a Driver.
func NewDriver(store image.Store, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Driver{store: store, logger: logger}
}

// Prepare validates the job, derives the version descriptor and synthesizes
// the helper scripts into the toolkit directory without running anything.
// Run uses it; callers that reuse a previously produced install tree call it
// directly to obtain the deferred post-install script.
func (d *Driver) Prepare(job *Job) (*Result, error) {
	if err := job.Validate(); err != nil {
		return nil, err
	}

	doc, err := d.verifySource(*job)
	if err != nil {
		return nil, stepFailed("verify-source", err)
	}

	version, err := gitver.DescribeTree(job.SourceDir)
	if err != nil {
		return nil, stepFailed("describe-version", err)
	}

	result, err := d.synthesize(job, doc, version)
	if err != nil {
		return nil, stepFailed("synthesize-scripts", err)
	}
	return result, nil
}

// Run executes the whole pipeline for one job against the given base image.
// The first failing step aborts the rest and is named in the error. The
// output directory is mutated in place; a pre-existing non-empty tree is
// tolerated.
func (d *Driver) Run(ctx context.Context, job Job, base image.Ref) (*Result, error) {
	if err := d.clean(job); err != nil {
		return nil, stepFailed("clean", err)
	}

	result, err := d.Prepare(&job)
	if err != nil {
		return nil, err
	}
	d.logger.Info("building", "version", result.Version.Version, "release", result.Version.Release)

	if err := d.runBuild(ctx, job, base); err != nil {
		return nil, stepFailed("build", err)
	}
	if err := d.runInstall(ctx, job, base); err != nil {
		return nil, stepFailed("install", err)
	}
	if err := d.runInstallSection(ctx, job, base); err != nil {
		return nil, stepFailed("post-install-tree", err)
	}

	return result, nil
}

// clean applies the requested pre-build cleanup: the source tree's binary
// build directory for a fresh build, the install tree for a nuked install.
func (d *Driver) clean(job Job) error {
	if job.FreshBuild {
		dir := filepath.Join(job.SourceDir, "build")
		d.logger.Info("removing build directory", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing build directory: %w", err)
		}
	}
	if job.NukeInstall {
		d.logger.Info("removing install tree", "dir", job.OutputDir)
		if err := os.RemoveAll(job.OutputDir); err != nil {
			return fmt.Errorf("removing install tree: %w", err)
		}
	}
	return nil
}

// verifySource checks source admissibility and loads the recipe. Presence
// of the recipe file at the root is the sole check.
func (d *Driver) verifySource(job Job) (*specfile.Document, error) {
	info, err := os.Stat(job.SourceDir)
	if err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w: %s", ErrNotSourceRoot, job.SourceDir)
	}
	recipe := filepath.Join(job.SourceDir, RecipeFile)
	if _, err := os.Stat(recipe); err != nil {
		return nil, fmt.Errorf("%w: missing %s", ErrNotSourceRoot, RecipeFile)
	}
	return specfile.Load(recipe)
}

// synthesize produces the scripts and writes them into the toolkit
// directory, creating output and toolkit directories as needed.
func (d *Driver) synthesize(job *Job, doc *specfile.Document, version gitver.Descriptor) (*Result, error) {
	if err := ensureDir(job.OutputDir); err != nil {
		return nil, err
	}
	if job.ToolkitDir == "" {
		dir, err := os.MkdirTemp("", "cab-toolkit-")
		if err != nil {
			return nil, fmt.Errorf("creating toolkit dir: %w", err)
		}
		job.ToolkitDir = dir
	} else if err := ensureDir(job.ToolkitDir); err != nil {
		return nil, err
	}

	scripts := specfile.Synthesize(doc, specfile.VersionInfo{
		Version: version.Version,
		Release: version.Release,
	})

	for name, content := range map[string]string{
		buildScript:   scripts.Build,
		installScript: scripts.Install,
		postScript:    scripts.PostInstall,
	} {
		path := filepath.Join(job.ToolkitDir, name)
		if err := os.WriteFile(path, []byte(content), 0o755); err != nil {
			return nil, fmt.Errorf("writing %s: %w", name, err)
		}
	}

	return &Result{
		Version:     version,
		Scripts:     scripts,
		PostInstall: filepath.Join(job.ToolkitDir, postScript),
	}, nil
}

// ensureDir creates the directory when absent and fails fast when the path
// exists as something other than a directory.
func ensureDir(path string) error {
	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		return fmt.Errorf("%s exists and is not a directory", path)
	case err == nil:
		return nil
	}
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	return nil
}

// binds assembles the container mounts of the build environment contract.
func (j Job) binds() []string {
	binds := []string{
		j.SourceDir + ":" + mountSource,
		j.OutputDir + ":" + mountOutput,
		j.ToolkitDir + ":" + mountToolkit,
	}
	if j.CcacheDir != "" {
		binds = append(binds, j.CcacheDir+":"+mountCcache)
	}
	return binds
}

// env assembles the build container environment. The test-inclusion flag is
// passed through the extra cmake arguments the recipe's %cmake expansion
// honors.
func (j Job) env() []string {
	env := []string{}
	if j.CcacheDir != "" {
		env = append(env, "CCACHE_DIR="+mountCcache)
	}
	if j.WithTests {
		env = append(env, "CEPH_EXTRA_CMAKE_ARGS=-DWITH_TESTS=ON")
	} else {
		env = append(env, "CEPH_EXTRA_CMAKE_ARGS=-DWITH_TESTS=OFF")
	}
	return env
}

func (d *Driver) runBuild(ctx context.Context, job Job, base image.Ref) error {
	return d.store.RunContainer(ctx, image.RunOptions{
		Image:      base.String(),
		Name:       containerName("build", job),
		Cmd:        []string{"/bin/sh", mountToolkit + "/" + buildScript},
		Binds:      job.binds(),
		Env:        job.env(),
		WorkingDir: mountSource,
	})
}

// runInstall installs the built artifacts into the output tree. Without
// debug symbols requested, the stripped variant keeps the tree small.
func (d *Driver) runInstall(ctx context.Context, job Job, base image.Ref) error {
	target := "install/strip"
	if job.WithDebug {
		target = "install"
	}
	cmd := fmt.Sprintf("make -C %s/build DESTDIR=%s %s", mountSource, mountOutput, target)
	return d.store.RunContainer(ctx, image.RunOptions{
		Image:      base.String(),
		Name:       containerName("install", job),
		Cmd:        []string{"/bin/sh", "-c", cmd},
		Binds:      job.binds(),
		Env:        job.env(),
		WorkingDir: mountSource,
	})
}

// runInstallSection applies the recipe's install-section fixups (minus the
// packaged install invocation) against the produced tree.
func (d *Driver) runInstallSection(ctx context.Context, job Job, base image.Ref) error {
	return d.store.RunContainer(ctx, image.RunOptions{
		Image:      base.String(),
		Name:       containerName("fixup", job),
		Cmd:        []string{"/bin/sh", mountToolkit + "/" + installScript},
		Binds:      job.binds(),
		Env:        append(job.env(), "RPM_BUILD_ROOT="+mountOutput),
		WorkingDir: mountSource,
	})
}

func containerName(step string, job Job) string {
	return fmt.Sprintf("cab-%s-%s-%s", step, job.Vendor, job.Release)
}
