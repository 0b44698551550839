package main

import (
	"github.com/spf13/cobra"

	"github.com/jecluis/ceph-amazing-builder/pkg/output"
)

// Set by GoReleaser via ldflags
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		printer := output.New()
		printer.Print("cab %s\n", version)
		printer.Print("  commit: %s\n", commit)
		printer.Print("  built:  %s\n", date)
	},
}
