// Package wizard collects a job spec interactively.
package wizard

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"
	"golang.org/x/term"

	"github.com/codejudge-ai/codejudge/internal/backends"
	"github.com/codejudge-ai/codejudge/internal/config"
)

// RunJobWizard runs an interactive huh form to collect job settings.
func RunJobWizard(in io.Reader, out io.Writer) (*config.JobSpec, error) {
	var (
		name       string
		selected   []string
		workersRaw = "4"
		timeoutRaw = "60"
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Job name").
				Placeholder("nightly-eval").
				Value(&name),
			huh.NewMultiSelect[string]().
				Title("Backends").
				Description("Which evaluators should judge each code unit?").
				Options(
					huh.NewOption("static (local Python heuristics)", backends.NameStatic).Selected(true),
					huh.NewOption("sqlcheck (local SQL heuristics)", backends.NameSQLCheck).Selected(true),
					huh.NewOption("openai", backends.NameOpenAI),
					huh.NewOption("gemini", backends.NameGemini),
					huh.NewOption("anthropic", backends.NameAnthropic),
				).
				Value(&selected).
				Validate(func(picked []string) error {
					if len(picked) == 0 {
						return fmt.Errorf("pick at least one backend")
					}
					return nil
				}),
			huh.NewInput().
				Title("Concurrent units").
				Description("How many code units to evaluate at once").
				Value(&workersRaw).
				Validate(validatePositiveInt),
			huh.NewInput().
				Title("Backend timeout (seconds)").
				Value(&timeoutRaw).
				Validate(validatePositiveInt),
		),
	).
		WithInput(in).
		WithOutput(out)

	// Use accessible mode for non-TTY input (e.g., tests, piped input).
	if f, ok := in.(*os.File); !ok || !term.IsTerminal(int(f.Fd())) {
		form = form.WithAccessible(true)
	}

	if err := form.Run(); err != nil {
		return nil, err
	}

	workers, _ := strconv.Atoi(strings.TrimSpace(workersRaw))
	timeout, _ := strconv.Atoi(strings.TrimSpace(timeoutRaw))

	return &config.JobSpec{
		Name:       strings.TrimSpace(name),
		Backends:   selected,
		Workers:    workers,
		TimeoutSec: timeout,
	}, nil
}

func validatePositiveInt(s string) error {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || n < 1 {
		return fmt.Errorf("enter a positive number")
	}
	return nil
}
