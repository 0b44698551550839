package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jecluis/ceph-amazing-builder/pkg/config"
	"github.com/jecluis/ceph-amazing-builder/pkg/registry"
)

var (
	initInstallsDir    string
	initCcacheDir      string
	initCcacheSize     string
	initRegistryURL    string
	initRegistrySecure bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the tool configuration",
	Long: `Writes the cab configuration file.

The installs directory receives one install tree per build. A ccache
directory is optional but strongly recommended; it is shared across builds
of the same vendor/release pair. A registry, when given, is probed for
liveness before the configuration is accepted.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit(cmd.Context())
	},
}

func init() {
	initCmd.Flags().StringVar(&initInstallsDir, "installs-dir", "", "directory for per-build install trees (required)")
	initCmd.Flags().StringVar(&initCcacheDir, "ccache-dir", "", "compiler cache directory")
	initCmd.Flags().StringVar(&initCcacheSize, "ccache-size", "10G", "compiler cache size limit")
	initCmd.Flags().StringVar(&initRegistryURL, "registry-url", "", "image registry host:port")
	initCmd.Flags().BoolVar(&initRegistrySecure, "registry-secure", false, "probe the registry over TLS")
	_ = initCmd.MarkFlagRequired("installs-dir")
}

func runInit(ctx context.Context) error {
	printer := newPrinter()

	if err := os.MkdirAll(initInstallsDir, 0o755); err != nil {
		return fmt.Errorf("creating installs directory: %w", err)
	}
	if initCcacheDir != "" {
		if err := os.MkdirAll(initCcacheDir, 0o755); err != nil {
			return fmt.Errorf("creating ccache directory: %w", err)
		}
	}

	cfg := &config.Config{
		InstallsDir: initInstallsDir,
		CcacheDir:   initCcacheDir,
		CcacheSize:  initCcacheSize,
	}
	if initRegistryURL != "" {
		cfg.Registry = &config.Registry{
			URL:    initRegistryURL,
			Secure: initRegistrySecure,
		}
		printer.Info("probing registry", "url", initRegistryURL)
		if err := registry.Probe(ctx, cfg.Registry); err != nil {
			return err
		}
	}

	if err := cfg.Save(rootConfigDir); err != nil {
		return err
	}
	printer.Okay("configuration written", "dir", cfg.Dir())
	return nil
}
