package main

import (
	"fmt"
	"os"
	"path/filepath"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/spf13/cobra"

	"github.com/jecluis/ceph-amazing-builder/pkg/config"
)

var (
	createWithDebug   bool
	createWithTests   bool
	createCloneRepo   string
	createCloneBranch string
)

var createCmd = &cobra.Command{
	Use:   "create <name> <vendor> <release> <sourcedir>",
	Short: "Define a named build",
	Long: `Defines a named build over a source tree.

With --clone-from-repo the source tree is first cloned into <sourcedir>;
otherwise <sourcedir> must already contain a Ceph checkout.`,
	Args: cobra.ExactArgs(4),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runCreate(args[0], args[1], args[2], args[3])
	},
}

func init() {
	createCmd.Flags().BoolVar(&createWithDebug, "with-debug", false, "keep debug symbols in the install tree")
	createCmd.Flags().BoolVar(&createWithTests, "with-tests", false, "compile the test binaries too")
	createCmd.Flags().StringVar(&createCloneRepo, "clone-from-repo", "", "clone this repository into <sourcedir>")
	createCmd.Flags().StringVar(&createCloneBranch, "clone-from-branch", "", "branch to clone (with --clone-from-repo)")
}

func runCreate(name, vendor, release, sourceDir string) error {
	printer := newPrinter()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if cfg.BuildExists(name) {
		return fmt.Errorf("build %s already exists", name)
	}

	sourceDir, err = filepath.Abs(sourceDir)
	if err != nil {
		return fmt.Errorf("resolving source directory: %w", err)
	}

	if createCloneRepo != "" {
		opts := &git.CloneOptions{
			URL:      createCloneRepo,
			Progress: os.Stdout,
		}
		if createCloneBranch != "" {
			opts.ReferenceName = plumbing.NewBranchReferenceName(createCloneBranch)
			opts.SingleBranch = true
		}
		printer.Info("cloning sources", "repo", createCloneRepo, "into", sourceDir)
		if _, err := git.PlainClone(sourceDir, false, opts); err != nil {
			return fmt.Errorf("cloning %s: %w", createCloneRepo, err)
		}
	} else if info, statErr := os.Stat(sourceDir); statErr != nil || !info.IsDir() {
		return fmt.Errorf("source directory %s not found", sourceDir)
	}

	build := &config.BuildConfig{
		Name:      name,
		Vendor:    vendor,
		Release:   release,
		Sources:   sourceDir,
		WithDebug: createWithDebug,
		WithTests: createWithTests,
	}
	if err := cfg.WriteBuild(build); err != nil {
		return err
	}
	printer.Okay("build created", "name", name, "vendor", vendor, "release", release)
	return nil
}
