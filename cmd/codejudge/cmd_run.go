package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codejudge-ai/codejudge/internal/backends"
	"github.com/codejudge-ai/codejudge/internal/config"
	"github.com/codejudge-ai/codejudge/internal/jobstore"
	"github.com/codejudge-ai/codejudge/internal/models"
	"github.com/codejudge-ai/codejudge/internal/orchestration"
	"github.com/codejudge-ai/codejudge/internal/reporting"
	"github.com/codejudge-ai/codejudge/internal/source"
)

var (
	outputPath string
	verbose    bool
	workers    int
	timeoutSec int
	storeDir   string
	blobURL    string
	container  string
)

func newRunCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run <job.yaml> <target>",
		Short: "Evaluate a notebook, SQL file or Python script",
		Long: `Run an evaluation job from a spec file against a target file.

The spec file names the backends to use, optional per-criterion weights
and concurrency settings. The target may be a Jupyter notebook (one code
unit per cell), a .sql file or a .py file. The finished report is saved
to the job store and summarized on stdout.`,
		Args: cobra.ExactArgs(2),
		RunE: runCommandE,
	}

	cmd.Flags().StringVarP(&outputPath, "output", "o", "", "Also write the full JSON report to this file")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output with per-unit progress")
	cmd.Flags().IntVar(&workers, "workers", 0, "Concurrent units (overrides spec)")
	cmd.Flags().IntVar(&timeoutSec, "timeout", 0, "Per-backend timeout in seconds (overrides spec)")
	cmd.Flags().StringVar(&storeDir, "store-dir", ".codejudge", "Directory for stored job reports")
	cmd.Flags().StringVar(&blobURL, "blob-url", "", "Azure Blob service URL for a shared job store")
	cmd.Flags().StringVar(&container, "container", "codejudge-reports", "Blob container (requires --blob-url)")

	return cmd
}

func runCommandE(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	specPath, targetPath := args[0], args[1]

	spec, err := config.LoadJobSpec(specPath)
	if err != nil {
		return fmt.Errorf("failed to load spec: %w", err)
	}

	// CLI flags override spec config
	if workers > 0 {
		spec.Workers = workers
	}
	if timeoutSec > 0 {
		spec.TimeoutSec = timeoutSec
	}

	weights, err := spec.ResolveWeights()
	if err != nil {
		return err
	}

	creds, err := config.LoadCredentials(ctx)
	if err != nil {
		return err
	}

	registry := backends.NewRegistry()
	for _, name := range spec.Backends {
		b, err := backends.Create(ctx, name, spec.Params[name], creds)
		if err != nil {
			return err
		}
		if err := registry.Register(b); err != nil {
			return err
		}
	}
	list, err := registry.Resolve(spec.Backends)
	if err != nil {
		return err
	}

	opts := []orchestration.CoordinatorOption{orchestration.WithName(spec.Name)}
	if spec.Workers > 0 {
		opts = append(opts, orchestration.WithWorkers(spec.Workers))
	}
	if spec.TimeoutSec > 0 {
		opts = append(opts, orchestration.WithBackendTimeout(time.Duration(spec.TimeoutSec)*time.Second))
	}

	coord, err := orchestration.NewCoordinator(list, weights, opts...)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	coord.OnProgress(func(e orchestration.ProgressEvent) {
		switch e.EventType {
		case orchestration.EventJobStart:
			fmt.Fprintf(out, "Evaluating %d unit(s) with %d backend(s)...\n", e.TotalUnits, len(list))
		case orchestration.EventUnitComplete:
			if verbose {
				fmt.Fprintf(out, "  [%d/%d] %s scored %.1f (%dms)\n",
					e.UnitNum, e.TotalUnits, e.UnitID, e.Score, e.DurationMs)
			}
		case orchestration.EventJobCancelled:
			fmt.Fprintln(out, "Job cancelled; keeping finished units.")
		}
	})

	report, err := coord.Run(ctx, source.NewFileSource(targetPath))
	if err != nil {
		return err
	}

	store, err := newStore()
	if err != nil {
		return err
	}
	if err := store.Save(ctx, report); err != nil {
		return fmt.Errorf("failed to save report: %w", err)
	}

	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("failed to create output file: %w", err)
		}
		defer f.Close()
		if err := reporting.WriteJSON(f, report); err != nil {
			return fmt.Errorf("failed to write output file: %w", err)
		}
	}

	fmt.Fprintln(out)
	reporting.WriteSummary(out, report)

	if report.Status == models.JobFailed {
		return &JobFailureError{Message: "job failed: " + report.FailureReason}
	}
	return nil
}

// newStore picks the blob store when --blob-url is set, otherwise the
// local file store.
func newStore() (jobstore.Store, error) {
	if blobURL != "" {
		return jobstore.NewBlobStore(blobURL, container)
	}
	return jobstore.NewFileStore(storeDir), nil
}
