package main

import (
	"context"
	"sort"

	"github.com/spf13/cobra"

	"github.com/jecluis/ceph-amazing-builder/pkg/image"
	"github.com/jecluis/ceph-amazing-builder/pkg/output"
	"github.com/jecluis/ceph-amazing-builder/pkg/stage"
)

var listBuildsCmd = &cobra.Command{
	Use:   "list-builds",
	Short: "List the configured builds",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListBuilds()
	},
}

var listImagesCmd = &cobra.Command{
	Use:   "list-images",
	Short: "List the committed build images",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runListImages(cmd.Context())
	},
}

func runListBuilds() error {
	printer := newPrinter()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	names, err := cfg.ListBuilds()
	if err != nil {
		return err
	}

	var builds []output.BuildSummary
	for _, name := range names {
		bc, err := cfg.ReadBuild(name)
		if err != nil {
			printer.Warn("skipping unreadable build", "name", name, "error", err)
			continue
		}
		builds = append(builds, output.BuildSummary{
			Name:      bc.Name,
			Vendor:    bc.Vendor,
			Release:   bc.Release,
			Sources:   bc.Sources,
			WithDebug: bc.WithDebug,
			WithTests: bc.WithTests,
		})
	}
	printer.Builds(builds)
	return nil
}

func runListImages(ctx context.Context) error {
	printer := newPrinter()
	logger, closer := newLogger()
	defer closer.Close()

	store, err := newStore(ctx, logger)
	if err != nil {
		return err
	}
	images, err := store.ListImages(ctx, stage.BuildRepository+"/*")
	if err != nil {
		return err
	}

	var rows []output.ImageSummary
	for _, img := range images {
		for _, rt := range img.RepoTags {
			ref, err := image.ParseRef(rt)
			if err != nil {
				continue
			}
			rows = append(rows, output.ImageSummary{
				Repository: ref.Repository,
				Tag:        ref.Tag,
				Created:    img.Created,
				Size:       img.Size,
			})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Repository != rows[j].Repository {
			return rows[i].Repository < rows[j].Repository
		}
		return rows[i].Created.After(rows[j].Created)
	})
	printer.Images(rows)
	return nil
}
