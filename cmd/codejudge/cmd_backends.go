package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codejudge-ai/codejudge/internal/backends"
)

func newBackendsCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "backends",
		Short: "List the available evaluator backends",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			rows := []struct {
				name, kind, languages string
			}{
				{backends.NameStatic, "local heuristics", "python, pyspark"},
				{backends.NameSQLCheck, "local heuristics", "sql"},
				{backends.NameOpenAI, "remote model (OPENAI_API_KEY)", "all"},
				{backends.NameGemini, "remote model (GEMINI_API_KEY)", "all"},
				{backends.NameAnthropic, "remote model (ANTHROPIC_API_KEY)", "all"},
			}
			for _, r := range rows {
				fmt.Fprintf(out, "%-12s %-32s %s\n", r.name, r.kind, r.languages)
			}
			return nil
		},
	}
}
