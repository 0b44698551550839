package main

import (
	"fmt"
	"os"
	"os/exec"

	"github.com/spf13/cobra"

	"github.com/jecluis/ceph-amazing-builder/pkg/stage"
)

var shellCmd = &cobra.Command{
	Use:   "shell <name>",
	Short: "Open a shell inside a build's environment",
	Long: `Runs an interactive shell in the build environment image of the
named build, with the source tree and install tree bind mounted the same
way a build would see them.

The interactive session goes through the docker binary; the SDK client has
no terminal attach convenience.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runShell(args[0])
	},
}

func runShell(name string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	bc, err := cfg.ReadBuild(name)
	if err != nil {
		return err
	}

	docker, err := exec.LookPath("docker")
	if err != nil {
		return fmt.Errorf("docker binary not found: %w", err)
	}

	ref := stage.Key(stage.StageBuildEnv, bc.Vendor, bc.Release).Ref()
	args := []string{
		"run", "--rm", "-it",
		"-v", bc.Sources + ":/build/src",
		"-v", cfg.InstallDirFor(name) + ":/build/out",
		"-w", "/build/src",
		ref.String(),
		"/bin/bash",
	}

	cmd := exec.Command(docker, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
