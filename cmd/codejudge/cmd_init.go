package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/codejudge-ai/codejudge/internal/backends"
	"github.com/codejudge-ai/codejudge/internal/config"
	"github.com/codejudge-ai/codejudge/internal/wizard"
)

func newInitCommand() *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Create a starter job spec",
		Long: `Create a job.yaml spec file in the given directory.

Use --interactive to run a guided form that picks backends and
concurrency settings. If no directory is specified, the current
directory is used.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return initCommandE(cmd, args, interactive)
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "Run the guided setup form")
	return cmd
}

func initCommandE(cmd *cobra.Command, args []string, interactive bool) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	spec := &config.JobSpec{
		Name:       "my-eval",
		Backends:   []string{backends.NameStatic, backends.NameSQLCheck},
		Workers:    4,
		TimeoutSec: 60,
	}

	if interactive {
		var err error
		spec, err = wizard.RunJobWizard(cmd.InOrStdin(), cmd.OutOrStdout())
		if err != nil {
			return fmt.Errorf("setup form failed: %w", err)
		}
	}

	data, err := yaml.Marshal(spec)
	if err != nil {
		return err
	}

	path := filepath.Join(dir, "job.yaml")
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
	return nil
}
