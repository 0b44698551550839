package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/jecluis/ceph-amazing-builder/pkg/logging"
	"github.com/jecluis/ceph-amazing-builder/pkg/stage"
)

var imageBuildForce bool

var imageBuildCmd = &cobra.Command{
	Use:   "image-build <vendor> <release>",
	Short: "Build the stage images for a vendor/release pair",
	Long: `Walks the stage chain (bootstrap, release base, build environment)
and builds whatever is missing. With --force every stage is rebuilt even
when its image already exists.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImageBuild(cmd.Context(), args[0], args[1])
	},
}

func init() {
	imageBuildCmd.Flags().BoolVar(&imageBuildForce, "force", false, "rebuild every stage image")
}

func runImageBuild(ctx context.Context, vendor, release string) error {
	printer := newPrinter()
	logger, closer := newLogger()
	defer closer.Close()

	store, err := newStore(ctx, logger)
	if err != nil {
		return err
	}

	orch := stage.NewOrchestrator(store, logging.WithComponent(logger, "stage"))
	if err := orch.Ensure(ctx, vendor, release, imageBuildForce); err != nil {
		return err
	}
	printer.Okay("stage images ready", "vendor", vendor, "release", release)
	return nil
}
