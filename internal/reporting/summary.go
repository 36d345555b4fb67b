// Package reporting renders finished job reports for people and for
// machines.
package reporting

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/renderer"
	"github.com/olekukonko/tablewriter/tw"

	"github.com/codejudge-ai/codejudge/internal/models"
)

// newSummaryTable creates a table writer with the formatting shared by all
// report views.
func newSummaryTable(headers []string, w io.Writer) *tablewriter.Table {
	cfg := tablewriter.Config{
		Header: tw.CellConfig{
			Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
			Formatting: tw.CellFormatting{AutoFormat: tw.Off},
		},
		Row: tw.CellConfig{
			Alignment: tw.CellAlignment{Global: tw.AlignLeft},
		},
		MaxWidth: 100,
		Behavior: tw.Behavior{TrimSpace: tw.Off},
	}
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(cfg),
		tablewriter.WithHeader(headers),
		tablewriter.WithRenderer(renderer.NewBlueprint()),
		tablewriter.WithRendition(tw.Rendition{
			Symbols: tw.NewSymbols(tw.StyleMarkdown),
			Borders: tw.Border{
				Left:   tw.On,
				Top:    tw.Off,
				Right:  tw.On,
				Bottom: tw.Off,
			},
		}),
		tablewriter.WithRowAutoWrap(tw.WrapNone),
	)
}

// WriteSummary renders the human-readable view of a report: a unit table,
// the failure roll-up and the aggregate line.
func WriteSummary(w io.Writer, report *models.Report) {
	fmt.Fprintf(w, "Job %s", report.JobID)
	if report.Name != "" {
		fmt.Fprintf(w, " (%s)", report.Name)
	}
	fmt.Fprintf(w, " [%s]\n\n", report.Status)

	if report.FailureReason != "" {
		fmt.Fprintf(w, "Failure reason: %s\n\n", report.FailureReason)
	}
	if len(report.Units) == 0 {
		fmt.Fprintln(w, "No units were evaluated.")
		return
	}

	table := newSummaryTable([]string{"Unit", "Language", "Score", "Backends", "Failures"}, w)
	for _, u := range report.Units {
		ok, failed := 0, 0
		for _, r := range u.Results {
			if r.Failed() {
				failed++
			} else {
				ok++
			}
		}
		score := "n/a"
		if u.Contributed {
			score = fmt.Sprintf("%.1f", u.OverallScore)
		}
		_ = table.Append([]string{
			u.UnitID,
			string(u.Language),
			score,
			fmt.Sprintf("%d/%d", ok, ok+failed),
			fmt.Sprintf("%d", failed),
		})
	}
	_ = table.Render()

	writeFailures(w, report)

	if report.Status == models.JobCompleted {
		fmt.Fprintf(w, "\nAggregate score: %.2f/10\n", report.AggregateScore)
	}
}

// writeFailures lists distinct failures with their remediation hints, once
// per backend and kind rather than once per unit.
func writeFailures(w io.Writer, report *models.Report) {
	type key struct {
		backend string
		kind    models.FailureKind
	}
	seen := map[key]bool{}
	var lines []string
	for _, u := range report.Units {
		for _, r := range u.Results {
			if !r.Failed() {
				continue
			}
			k := key{r.Backend, r.Failure.Kind}
			if seen[k] {
				continue
			}
			seen[k] = true
			line := fmt.Sprintf("  %s: %s: %s", r.Backend, r.Failure.Kind, r.Failure.Message)
			if r.Failure.Hint != "" {
				line += "\n    hint: " + r.Failure.Hint
			}
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return
	}
	fmt.Fprintln(w, "\nBackend failures:")
	for _, line := range lines {
		fmt.Fprintln(w, line)
	}
}

// WriteJSON renders the full report as indented JSON.
func WriteJSON(w io.Writer, report *models.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
