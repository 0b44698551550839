// Package build drives one compile-and-install run inside an isolated
// build container, producing an install tree under the job's output
// directory.
package build

import (
	"errors"
	"fmt"
)

// RecipeFile is the recipe expected at the root of an admissible source
// tree; its presence is the sole admissibility check.
const RecipeFile = "ceph.spec.in"

// ErrNotSourceRoot marks a source directory that does not look like a Ceph
// source tree.
var ErrNotSourceRoot = errors.New("source directory is not a ceph source tree")

// Job describes one compile-and-install run. It is consumed exactly once by
// the Driver and not persisted.
type Job struct {
	Vendor    string
	Release   string
	SourceDir string
	OutputDir string

	// CcacheDir is optional; empty disables the compiler cache mount.
	CcacheDir string

	// ToolkitDir receives the synthesized helper scripts and is bind
	// mounted into the build container. Empty means a fresh temporary
	// directory.
	ToolkitDir string

	// WithDebug keeps debug symbols: the plain install target instead of
	// the stripped variant.
	WithDebug bool

	// WithTests compiles the test binaries too.
	WithTests bool

	// FreshBuild removes the source tree's binary build directory first,
	// forcing compilation from scratch.
	FreshBuild bool

	// NukeInstall destroys an existing install tree under OutputDir
	// before building into it.
	NukeInstall bool
}

// Validate checks the job's required fields.
func (j Job) Validate() error {
	if j.Vendor == "" || j.Release == "" {
		return fmt.Errorf("vendor and release are required")
	}
	if j.SourceDir == "" {
		return fmt.Errorf("source directory is required")
	}
	if j.OutputDir == "" {
		return fmt.Errorf("output directory is required")
	}
	return nil
}

// StepError names the pipeline step that failed.
type StepError struct {
	Step string
	Err  error
}

func (e *StepError) Error() string {
	return fmt.Sprintf("step %s: %v", e.Step, e.Err)
}

func (e *StepError) Unwrap() error {
	return e.Err
}

func stepFailed(step string, err error) error {
	return &StepError{Step: step, Err: err}
}
