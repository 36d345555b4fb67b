package orchestration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/codejudge-ai/codejudge/internal/backends"
	"github.com/codejudge-ai/codejudge/internal/models"
	"github.com/codejudge-ai/codejudge/internal/scoring"
)

func pyUnit(id string) *models.CodeUnit {
	return &models.CodeUnit{ID: id, Language: models.LanguagePython, Content: "x = 1"}
}

func okResult(score float64, conf float64) *models.BackendResult {
	return &models.BackendResult{
		Scores:     uniformVector(score),
		Confidence: conf,
	}
}

func uniformVector(x float64) scoring.ScoreVector {
	return scoring.ScoreVector{
		Correctness: x, Efficiency: x, Readability: x,
		Scalability: x, Security: x, Modularity: x,
		Documentation: x, BestPractices: x, ErrorHandling: x,
	}
}

func TestDispatch(t *testing.T) {
	ctx := context.Background()

	t.Run("ResultsFollowBackendOrderNotCompletionOrder", func(t *testing.T) {
		list := []backends.Backend{
			&backends.MockBackend{BackendName: "slow", Latency: 80 * time.Millisecond, Result: okResult(5, 1)},
			&backends.MockBackend{BackendName: "fast", Result: okResult(9, 1)},
		}
		results := NewDispatcher(time.Second).Dispatch(ctx, pyUnit("u"), list)
		require.Len(t, results, 2)
		require.Equal(t, "slow", results[0].Backend)
		require.Equal(t, "fast", results[1].Backend)
	})

	t.Run("UnsupportedBackendsProduceNoResult", func(t *testing.T) {
		list := []backends.Backend{
			&backends.MockBackend{BackendName: "sqlonly", Languages: []models.Language{models.LanguageSQL}},
			&backends.MockBackend{BackendName: "any", Result: okResult(7, 1)},
		}
		results := NewDispatcher(time.Second).Dispatch(ctx, pyUnit("u"), list)
		require.Len(t, results, 1)
		require.Equal(t, "any", results[0].Backend)
	})

	t.Run("BackendsRunConcurrently", func(t *testing.T) {
		const latency = 100 * time.Millisecond
		list := make([]backends.Backend, 4)
		for i := range list {
			list[i] = &backends.MockBackend{
				BackendName: string(rune('a' + i)),
				Latency:     latency,
				Result:      okResult(5, 1),
			}
		}
		start := time.Now()
		results := NewDispatcher(time.Second).Dispatch(ctx, pyUnit("u"), list)
		elapsed := time.Since(start)

		require.Len(t, results, 4)
		// Wall time tracks the slowest backend, not the sum of all four.
		require.Less(t, elapsed, 3*latency)
	})

	t.Run("ErrorBecomesInternalFailure", func(t *testing.T) {
		list := []backends.Backend{
			&backends.MockBackend{BackendName: "broken", Err: errors.New("connection reset")},
		}
		results := NewDispatcher(time.Second).Dispatch(ctx, pyUnit("u"), list)
		require.Len(t, results, 1)
		require.True(t, results[0].Failed())
		require.Equal(t, models.FailureInternal, results[0].Failure.Kind)
		require.Contains(t, results[0].Failure.Message, "connection reset")
		require.Zero(t, results[0].Confidence)
	})

	t.Run("PanicBecomesInternalFailure", func(t *testing.T) {
		list := []backends.Backend{
			&backends.MockBackend{BackendName: "panicky", PanicMsg: "index out of range"},
			&backends.MockBackend{BackendName: "healthy", Result: okResult(8, 1)},
		}
		results := NewDispatcher(time.Second).Dispatch(ctx, pyUnit("u"), list)
		require.Len(t, results, 2)
		require.Equal(t, models.FailureInternal, results[0].Failure.Kind)
		require.Contains(t, results[0].Failure.Message, "index out of range")
		require.False(t, results[1].Failed())
	})

	t.Run("DeadlineIgnoringBackendCannotHangTheUnit", func(t *testing.T) {
		list := []backends.Backend{
			&backends.MockBackend{
				BackendName:    "stuck",
				Latency:        2 * time.Second,
				IgnoreDeadline: true,
			},
		}
		start := time.Now()
		results := NewDispatcher(50 * time.Millisecond).Dispatch(ctx, pyUnit("u"), list)
		require.Less(t, time.Since(start), time.Second)

		require.Len(t, results, 1)
		require.Equal(t, models.FailureTimeout, results[0].Failure.Kind)
	})

	t.Run("CooperativeBackendReportsItsOwnTimeout", func(t *testing.T) {
		list := []backends.Backend{
			&backends.MockBackend{BackendName: "polite", Latency: 2 * time.Second},
		}
		results := NewDispatcher(50 * time.Millisecond).Dispatch(ctx, pyUnit("u"), list)
		require.Len(t, results, 1)
		require.Equal(t, models.FailureTimeout, results[0].Failure.Kind)
		require.Zero(t, results[0].Confidence)
	})

	t.Run("CallerCancellationDrainsInFlightBackends", func(t *testing.T) {
		cancelCtx, cancel := context.WithCancel(ctx)
		list := []backends.Backend{
			&backends.MockBackend{BackendName: "busy", Latency: 60 * time.Millisecond, Result: okResult(7, 1)},
		}
		go func() {
			time.Sleep(10 * time.Millisecond)
			cancel()
		}()
		results := NewDispatcher(time.Second).Dispatch(cancelCtx, pyUnit("u"), list)
		require.Len(t, results, 1)
		// The started invocation runs to completion under its own deadline
		// instead of being cut off and misfiled as a timeout.
		require.False(t, results[0].Failed())
		require.InDelta(t, 7.0, results[0].Scores.Correctness, 1e-9)
	})

	t.Run("SurvivorDeterminesTheUnitAlone", func(t *testing.T) {
		list := []backends.Backend{
			&backends.MockBackend{BackendName: "stalls", Latency: time.Second},
			&backends.MockBackend{BackendName: "crashes", Err: errors.New("nil dereference")},
			&backends.MockBackend{BackendName: "works", Result: okResult(10, 1)},
		}
		unit := pyUnit("u")
		results := NewDispatcher(50 * time.Millisecond).Dispatch(ctx, unit, list)
		require.Len(t, results, 3)
		require.Equal(t, models.FailureTimeout, results[0].Failure.Kind)
		require.Equal(t, models.FailureInternal, results[1].Failure.Kind)
		require.False(t, results[2].Failed())

		eval, err := Aggregate(unit, results, scoring.DefaultWeights())
		require.NoError(t, err)
		require.True(t, eval.Contributed)
		require.Equal(t, uniformVector(10), eval.Scores)
		require.InDelta(t, 10.0, eval.OverallScore, 1e-9)
	})

	t.Run("NoBackendSupportsUnit", func(t *testing.T) {
		list := []backends.Backend{
			&backends.MockBackend{BackendName: "sqlonly", Languages: []models.Language{models.LanguageSQL}},
		}
		results := NewDispatcher(time.Second).Dispatch(ctx, pyUnit("u"), list)
		require.Empty(t, results)
	})
}

func TestNormalize(t *testing.T) {
	t.Run("ZeroConfidenceWithoutFailureGetsOne", func(t *testing.T) {
		r := normalize(models.BackendResult{}, "b", time.Millisecond)
		require.NotNil(t, r.Failure)
		require.Equal(t, models.FailureMalformedResponse, r.Failure.Kind)
	})

	t.Run("FailureForcesZeroConfidence", func(t *testing.T) {
		r := normalize(models.BackendResult{
			Confidence: 0.9,
			Failure:    &models.Failure{Kind: models.FailureRateLimited},
		}, "b", time.Millisecond)
		require.Zero(t, r.Confidence)
	})

	t.Run("ScoresClampedAndConfidenceBounded", func(t *testing.T) {
		r := normalize(models.BackendResult{
			Scores:     uniformVector(12),
			Confidence: 1.5,
		}, "b", time.Millisecond)
		require.Equal(t, 10.0, r.Scores.Correctness)
		require.Equal(t, 1.0, r.Confidence)
	})
}
