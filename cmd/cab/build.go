package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jecluis/ceph-amazing-builder/pkg/build"
	"github.com/jecluis/ceph-amazing-builder/pkg/compose"
	"github.com/jecluis/ceph-amazing-builder/pkg/config"
	"github.com/jecluis/ceph-amazing-builder/pkg/logging"
	"github.com/jecluis/ceph-amazing-builder/pkg/stage"
)

var (
	buildNameFlag    string
	buildSkipBuild   bool
	buildSkipImage   bool
	buildWithDebug   bool
	buildWithTests   bool
	buildIncremental bool
	buildFresh       bool
	buildNukeInstall bool
)

var buildCmd = &cobra.Command{
	Use:   "build <name> | build <vendor> <release> <sourcedir>",
	Short: "Compile the sources and assemble a build image",
	Long: `Runs the whole pipeline for one build: ensures the stage images
exist, compiles the sources inside the build environment, installs the
result into the build's install tree and composes a final image from it.

With a single argument the named build created with 'cab create' is used.
The three-argument form runs an ad-hoc build; --buildname tags its final
image, defaulting to "<vendor>-<release>".`,
	Args: cobra.RangeArgs(1, 3),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(args) == 2 {
			return fmt.Errorf("expected a build name or <vendor> <release> <sourcedir>")
		}
		return runBuild(cmd.Context(), args)
	},
}

func init() {
	buildCmd.Flags().StringVar(&buildNameFlag, "buildname", "", "name to tag the final image with (three-argument form)")
	buildCmd.Flags().BoolVar(&buildSkipBuild, "skip-build", false, "reuse the existing install tree instead of compiling")
	buildCmd.Flags().BoolVar(&buildSkipImage, "skip-container", false, "stop after the install tree, do not compose an image")
	buildCmd.Flags().BoolVar(&buildWithDebug, "with-debug", false, "keep debug symbols in the install tree")
	buildCmd.Flags().BoolVar(&buildWithTests, "with-tests", false, "compile the test binaries too")
	buildCmd.Flags().BoolVar(&buildIncremental, "incremental", false, "start from the build's previous image when available")
	buildCmd.Flags().BoolVar(&buildFresh, "with-fresh-build", false, "clean the source tree's build directory first")
	buildCmd.Flags().BoolVar(&buildNukeInstall, "nuke-install", false, "destroy the existing install tree before building")
}

// buildParams resolves the two invocation forms to one parameter set.
func buildParams(cfg *config.Config, args []string) (*config.BuildConfig, error) {
	if len(args) == 1 {
		bc, err := cfg.ReadBuild(args[0])
		if err != nil {
			return nil, err
		}
		bc.WithDebug = bc.WithDebug || buildWithDebug
		bc.WithTests = bc.WithTests || buildWithTests
		return bc, nil
	}

	name := buildNameFlag
	if name == "" {
		name = args[0] + "-" + args[1]
	}
	sources, err := filepath.Abs(args[2])
	if err != nil {
		return nil, fmt.Errorf("resolving source directory: %w", err)
	}
	return &config.BuildConfig{
		Name:      name,
		Vendor:    args[0],
		Release:   args[1],
		Sources:   sources,
		WithDebug: buildWithDebug,
		WithTests: buildWithTests,
	}, nil
}

func runBuild(ctx context.Context, args []string) error {
	printer := newPrinter()
	logger, closer := newLogger()
	defer closer.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bc, err := buildParams(cfg, args)
	if err != nil {
		return err
	}

	store, err := newStore(ctx, logger)
	if err != nil {
		return err
	}

	orch := stage.NewOrchestrator(store, logging.WithComponent(logger, "stage"))
	printer.Info("ensuring stage images", "vendor", bc.Vendor, "release", bc.Release)
	if err := orch.Ensure(ctx, bc.Vendor, bc.Release, false); err != nil {
		return err
	}
	base, err := orch.ResolveBase(ctx, bc.Name, bc.Vendor, bc.Release, buildIncremental)
	if err != nil {
		return err
	}
	printer.Debug("resolved base image", "ref", base.String())

	job := build.Job{
		Vendor:      bc.Vendor,
		Release:     bc.Release,
		SourceDir:   bc.Sources,
		OutputDir:   cfg.InstallDirFor(bc.Name),
		WithDebug:   bc.WithDebug,
		WithTests:   bc.WithTests,
		FreshBuild:  buildFresh,
		NukeInstall: buildNukeInstall,
	}
	if cfg.HasCcache() {
		job.CcacheDir = filepath.Join(cfg.CcacheDir, bc.Vendor, bc.Release)
		if err := os.MkdirAll(job.CcacheDir, 0o755); err != nil {
			return fmt.Errorf("creating ccache directory: %w", err)
		}
	}

	driver := build.NewDriver(store, logging.WithComponent(logger, "build"))
	var result *build.Result
	if buildSkipBuild {
		printer.Info("reusing install tree", "dir", job.OutputDir)
		if result, err = driver.Prepare(&job); err != nil {
			return err
		}
	} else {
		printer.Info("building", "name", bc.Name, "base", base.String())
		if result, err = driver.Run(ctx, job, base); err != nil {
			return err
		}
		printer.Okay("install tree ready", "dir", job.OutputDir,
			"version", result.Version.Version, "release", result.Version.Release)
	}

	if buildSkipImage {
		return nil
	}

	composer := compose.New(store, logging.WithComponent(logger, "compose"))
	ref, err := composer.Compose(ctx, compose.Options{
		Tree:        job.OutputDir,
		Base:        stage.Key(stage.StageReleaseBase, bc.Vendor, bc.Release).Ref(),
		Name:        bc.Name,
		Latest:      true,
		PostInstall: result.PostInstall,
	})
	if err != nil {
		return err
	}
	printer.Okay("build image ready", "ref", ref.String())
	return nil
}
