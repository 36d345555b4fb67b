package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codejudge-ai/codejudge/internal/jobstore"
	"github.com/codejudge-ai/codejudge/internal/reporting"
)

func newReportCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Inspect stored job reports",
	}
	cmd.PersistentFlags().StringVar(&storeDir, "store-dir", ".codejudge", "Directory for stored job reports")
	cmd.PersistentFlags().StringVar(&blobURL, "blob-url", "", "Azure Blob service URL for a shared job store")
	cmd.PersistentFlags().StringVar(&container, "container", "codejudge-reports", "Blob container (requires --blob-url)")

	cmd.AddCommand(newReportListCommand())
	cmd.AddCommand(newReportShowCommand())
	return cmd
}

func newReportListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List stored jobs, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore()
			if err != nil {
				return err
			}
			summaries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(summaries) == 0 {
				fmt.Fprintln(out, "No stored jobs.")
				return nil
			}
			for _, s := range summaries {
				name := s.Name
				if name == "" {
					name = "-"
				}
				fmt.Fprintf(out, "%s  %-20s %-9s units=%-3d score=%.2f  %s\n",
					s.JobID, name, s.Status, s.Units, s.AggregateScore,
					s.StartedAt.Format("2006-01-02 15:04"))
			}
			stats, err := jobstore.ComputeStats(cmd.Context(), store)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "\n%d jobs (%d completed, %d failed)", stats.Total, stats.Completed, stats.Failed)
			if stats.Completed > 0 {
				fmt.Fprintf(out, ", mean score %.2f/10", stats.MeanScore)
			}
			fmt.Fprintln(out)
			return nil
		},
	}
}

func newReportShowCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <job-id>",
		Short: "Show one stored job report",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := newStore()
			if err != nil {
				return err
			}
			report, err := store.Get(cmd.Context(), args[0])
			if err != nil {
				if errors.Is(err, jobstore.ErrJobNotFound) {
					return fmt.Errorf("no stored job with ID %q", args[0])
				}
				return err
			}
			if asJSON {
				return reporting.WriteJSON(cmd.OutOrStdout(), report)
			}
			reporting.WriteSummary(cmd.OutOrStdout(), report)
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the full report as JSON")
	return cmd
}
