package orchestration

import (
	"github.com/codejudge-ai/codejudge/internal/models"
	"github.com/codejudge-ai/codejudge/internal/scoring"
)

// Aggregate combines per-backend results for one unit into a single
// evaluation. Failed results carry zero confidence and therefore drop out
// of the weighted average on their own; when nothing contributed, the unit
// is marked accordingly rather than scored zero-by-accident.
//
// Aggregate is pure: the same results always produce the same evaluation.
func Aggregate(unit *models.CodeUnit, results []models.BackendResult, weights scoring.Weights) (models.UnitEvaluation, error) {
	eval := models.UnitEvaluation{
		UnitID:   unit.ID,
		Language: unit.Language,
		Results:  results,
	}

	vectors := make([]scoring.ScoreVector, len(results))
	confidences := make([]float64, len(results))
	for i, r := range results {
		vectors[i] = r.Scores
		confidences[i] = r.Confidence
		if r.Confidence > 0 {
			eval.Contributed = true
			eval.Suggestions = appendUnique(eval.Suggestions, r.Suggestions)
		}
	}

	if !eval.Contributed {
		return eval, nil
	}

	eval.Scores = scoring.ConfidenceWeightedAverage(vectors, confidences)
	overall, err := eval.Scores.WeightedSum(weights)
	if err != nil {
		return models.UnitEvaluation{}, err
	}
	eval.OverallScore = overall
	return eval, nil
}

// appendUnique keeps suggestion order stable across backends while
// dropping exact duplicates.
func appendUnique(dst []string, src []string) []string {
	for _, s := range src {
		seen := false
		for _, existing := range dst {
			if existing == s {
				seen = true
				break
			}
		}
		if !seen {
			dst = append(dst, s)
		}
	}
	return dst
}
