package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jecluis/ceph-amazing-builder/pkg/image"
	"github.com/jecluis/ceph-amazing-builder/pkg/stage"
)

var (
	destroyKeepImages    bool
	destroyRemoveInstall bool
)

var destroyCmd = &cobra.Command{
	Use:   "destroy <name>",
	Short: "Remove a build and its images",
	Long: `Removes a build definition and, unless told otherwise, every final
image committed under its name. The install tree is kept unless
--remove-install is given. The source tree is never touched.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDestroy(cmd.Context(), args[0])
	},
}

func init() {
	destroyCmd.Flags().BoolVar(&destroyKeepImages, "keep-images", false, "keep the build's final images")
	destroyCmd.Flags().BoolVar(&destroyRemoveInstall, "remove-install", false, "also delete the build's install tree")
}

func runDestroy(ctx context.Context, name string) error {
	printer := newPrinter()
	logger, closer := newLogger()
	defer closer.Close()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if !cfg.BuildExists(name) {
		return fmt.Errorf("unknown build %s", name)
	}

	if !destroyKeepImages {
		store, err := newStore(ctx, logger)
		if err != nil {
			return err
		}
		images, err := store.ListImages(ctx, stage.BuildRepository+"/"+name)
		if err != nil {
			return err
		}
		for _, img := range images {
			for _, rt := range img.RepoTags {
				ref, err := image.ParseRef(rt)
				if err != nil {
					continue
				}
				printer.Info("removing image", "ref", rt)
				if err := store.RemoveImage(ctx, ref); err != nil {
					printer.Warn("could not remove image", "ref", rt, "error", err)
				}
			}
		}
	}

	if destroyRemoveInstall {
		dir := cfg.InstallDirFor(name)
		printer.Info("removing install tree", "dir", dir)
		if err := os.RemoveAll(dir); err != nil {
			return fmt.Errorf("removing install tree: %w", err)
		}
	}

	if err := cfg.RemoveBuild(name); err != nil {
		return err
	}
	printer.Okay("build destroyed", "name", name)
	return nil
}
