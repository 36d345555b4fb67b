package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/codejudge-ai/codejudge/internal/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var buf bytes.Buffer
	cmd := newRootCommand()
	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return buf.String(), err
}

func TestRunCommand(t *testing.T) {
	dir := t.TempDir()
	spec := writeFile(t, dir, "job.yaml", `
name: local-only
backends: [static, sqlcheck]
workers: 2
timeout_seconds: 10
`)
	target := writeFile(t, dir, "script.py", `# Adds two numbers.
def add(a, b):
    """Return the sum of a and b."""
    return a + b
`)

	t.Run("EndToEndWithLocalBackends", func(t *testing.T) {
		store := filepath.Join(dir, "store1")
		output := filepath.Join(dir, "report.json")
		out, err := runCLI(t, "run", spec, target,
			"--store-dir", store, "--output", output, "--verbose")
		require.NoError(t, err)
		require.Contains(t, out, "Evaluating 1 unit(s)")
		require.Contains(t, out, "Aggregate score:")

		data, err := os.ReadFile(output)
		require.NoError(t, err)
		var report models.Report
		require.NoError(t, json.Unmarshal(data, &report))
		require.Equal(t, models.JobCompleted, report.Status)
		require.Equal(t, "local-only", report.Name)
		require.Len(t, report.Units, 1)
		// sqlcheck does not support python, so only static contributed.
		require.Len(t, report.Units[0].Results, 1)
		require.Equal(t, "static", report.Units[0].Results[0].Backend)

		entries, err := os.ReadDir(store)
		require.NoError(t, err)
		require.Len(t, entries, 1)
	})

	t.Run("ReportListAndShow", func(t *testing.T) {
		store := filepath.Join(dir, "store2")
		_, err := runCLI(t, "run", spec, target, "--store-dir", store)
		require.NoError(t, err)

		out, err := runCLI(t, "report", "list", "--store-dir", store)
		require.NoError(t, err)
		require.Contains(t, out, "local-only")
		require.Contains(t, out, "completed")

		entries, err := os.ReadDir(store)
		require.NoError(t, err)
		jobID := entries[0].Name()
		jobID = jobID[:len(jobID)-len(".json")]

		out, err = runCLI(t, "report", "show", jobID, "--store-dir", store)
		require.NoError(t, err)
		require.Contains(t, out, jobID)
		require.Contains(t, out, "script.py")
	})

	t.Run("ShowUnknownJob", func(t *testing.T) {
		_, err := runCLI(t, "report", "show", "missing", "--store-dir", t.TempDir())
		require.ErrorContains(t, err, "no stored job")
	})

	t.Run("MissingSpecFile", func(t *testing.T) {
		_, err := runCLI(t, "run", filepath.Join(dir, "nope.yaml"), target)
		require.ErrorContains(t, err, "failed to load spec")
	})

	t.Run("MissingTargetFailsTheJob", func(t *testing.T) {
		_, err := runCLI(t, "run", spec, filepath.Join(dir, "gone.py"),
			"--store-dir", filepath.Join(dir, "store3"))
		var jobErr *JobFailureError
		require.ErrorAs(t, err, &jobErr)
	})

	t.Run("UnknownBackendInSpec", func(t *testing.T) {
		bad := writeFile(t, dir, "bad.yaml", "backends: [warlock]\n")
		_, err := runCLI(t, "run", bad, target)
		require.ErrorContains(t, err, "not a valid backend identifier")
	})
}

func TestBackendsCommand(t *testing.T) {
	out, err := runCLI(t, "backends")
	require.NoError(t, err)
	for _, name := range []string{"static", "sqlcheck", "openai", "gemini", "anthropic"} {
		require.Contains(t, out, name)
	}
}
