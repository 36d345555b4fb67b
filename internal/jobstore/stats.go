package jobstore

import (
	"context"

	"github.com/codejudge-ai/codejudge/internal/models"
)

// Stats summarizes every report held by a store.
type Stats struct {
	Total     int     `json:"total"`
	Completed int     `json:"completed"`
	Failed    int     `json:"failed"`
	MeanScore float64 `json:"mean_score"`
}

// ComputeStats folds the store's listing into run counts and the mean
// aggregate score of completed jobs.
func ComputeStats(ctx context.Context, store Store) (Stats, error) {
	summaries, err := store.List(ctx)
	if err != nil {
		return Stats{}, err
	}
	var stats Stats
	var sum float64
	for _, s := range summaries {
		stats.Total++
		switch s.Status {
		case models.JobCompleted:
			stats.Completed++
			sum += s.AggregateScore
		case models.JobFailed:
			stats.Failed++
		}
	}
	if stats.Completed > 0 {
		stats.MeanScore = sum / float64(stats.Completed)
	}
	return stats, nil
}
