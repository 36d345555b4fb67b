package reporting

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codejudge-ai/codejudge/internal/models"
	"github.com/codejudge-ai/codejudge/internal/scoring"
)

func demoReport() *models.Report {
	return &models.Report{
		JobID:    "job-123",
		Name:     "demo",
		Status:   models.JobCompleted,
		Backends: []string{"static", "openai"},
		Units: []models.UnitEvaluation{
			{
				UnitID:   "notebook.ipynb#cell_0",
				Language: models.LanguagePython,
				Results: []models.BackendResult{
					{Backend: "static", Scores: scoring.ScoreVector{Correctness: 8}, Confidence: 0.6},
					*models.FailedResult("openai", models.Failure{
						Kind:    models.FailureRateLimited,
						Message: "429 too many requests",
						Hint:    "reduce worker concurrency or wait before retrying",
					}),
				},
				Scores:       scoring.ScoreVector{Correctness: 8},
				OverallScore: 7.3,
				Contributed:  true,
			},
			{
				UnitID:   "query.sql",
				Language: models.LanguageSQL,
				Results: []models.BackendResult{
					*models.FailedResult("openai", models.Failure{
						Kind:    models.FailureRateLimited,
						Message: "429 too many requests",
					}),
				},
			},
		},
		AggregateScore: 7.3,
		StartedAt:      time.Now(),
	}
}

func TestWriteSummary(t *testing.T) {
	t.Run("CompletedJob", func(t *testing.T) {
		var buf bytes.Buffer
		WriteSummary(&buf, demoReport())
		out := buf.String()

		require.Contains(t, out, "job-123")
		require.Contains(t, out, "notebook.ipynb#cell_0")
		require.Contains(t, out, "7.3")
		require.Contains(t, out, "Aggregate score: 7.30/10")
		// The unit with no contributing backend shows n/a, not 0.0.
		require.Contains(t, out, "n/a")
	})

	t.Run("FailureHintsShownOnce", func(t *testing.T) {
		var buf bytes.Buffer
		WriteSummary(&buf, demoReport())
		out := buf.String()

		require.Contains(t, out, "rate_limited")
		require.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("reduce worker concurrency")))
	})

	t.Run("FailedJobShowsReason", func(t *testing.T) {
		report := demoReport()
		report.Status = models.JobFailed
		report.FailureReason = "operator stop"

		var buf bytes.Buffer
		WriteSummary(&buf, report)
		require.Contains(t, buf.String(), "Failure reason: operator stop")
		require.NotContains(t, buf.String(), "Aggregate score")
	})

	t.Run("EmptyReport", func(t *testing.T) {
		var buf bytes.Buffer
		WriteSummary(&buf, &models.Report{JobID: "x", Status: models.JobCompleted})
		require.Contains(t, buf.String(), "No units were evaluated.")
	})
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, demoReport()))

	var round models.Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &round))
	require.Equal(t, "job-123", round.JobID)
	require.Len(t, round.Units, 2)
	require.Equal(t, models.FailureRateLimited, round.Units[0].Results[1].Failure.Kind)
}
