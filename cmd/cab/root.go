package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/jecluis/ceph-amazing-builder/pkg/config"
	"github.com/jecluis/ceph-amazing-builder/pkg/dockerclient"
	"github.com/jecluis/ceph-amazing-builder/pkg/image/docker"
	"github.com/jecluis/ceph-amazing-builder/pkg/logging"
	"github.com/jecluis/ceph-amazing-builder/pkg/output"
)

var (
	rootConfigDir string
	rootDebug     bool
)

var rootCmd = &cobra.Command{
	Use:   "cab",
	Short: "Ceph build orchestrator",
	Long: `cab builds Ceph from source inside disposable containers.

It keeps a layered cache of container images (bootstrap, release base,
build environment), compiles the sources against a shared compiler cache,
and assembles a deployable image from the produced install tree.`,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&rootConfigDir, "config", "", "configuration directory (default: XDG config dir)")
	rootCmd.PersistentFlags().BoolVarP(&rootDebug, "debug", "d", false, "enable debug output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(createCmd)
	rootCmd.AddCommand(destroyCmd)
	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(imageBuildCmd)
	rootCmd.AddCommand(listBuildsCmd)
	rootCmd.AddCommand(listImagesCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(versionCmd)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		output.NewWithWriter(os.Stderr).Error(err.Error())
		os.Exit(1)
	}
}

func newPrinter() *output.Printer {
	p := output.New()
	p.SetDebug(rootDebug)
	return p
}

// newLogger opens the rotated log file next to the configuration. The
// returned closer must be closed before exit.
func newLogger() (*slog.Logger, io.Closer) {
	dir := rootConfigDir
	if dir == "" {
		dir = config.DefaultDir()
	}
	level := "info"
	if rootDebug {
		level = "debug"
	}
	return logging.NewFileLogger(filepath.Join(dir, "cab.log"), level)
}

func loadConfig() (*config.Config, error) {
	return config.Load(rootConfigDir)
}

// newStore connects to the Docker daemon, failing early when it is not
// reachable.
func newStore(ctx context.Context, logger *slog.Logger) (*docker.Store, error) {
	cli, err := dockerclient.New()
	if err != nil {
		return nil, err
	}
	if err := dockerclient.Ping(ctx, cli); err != nil {
		return nil, err
	}
	return docker.NewWithClient(cli, logger), nil
}
