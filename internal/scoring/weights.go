package scoring

import (
	"fmt"
	"math"
)

// weightSumTolerance is the slack allowed when checking that a weight table
// sums to exactly one.
const weightSumTolerance = 1e-6

// ConfigurationError reports an invalid weight table or other configuration
// invariant violation. It is raised before any evaluation work begins.
type ConfigurationError struct {
	Reason string
}

func (e *ConfigurationError) Error() string {
	return "configuration error: " + e.Reason
}

// Weights maps each criterion to its share of the overall score.
// A valid table sums to 1.0 within weightSumTolerance.
type Weights struct {
	Correctness   float64 `json:"correctness"`
	Efficiency    float64 `json:"efficiency"`
	Readability   float64 `json:"readability"`
	Scalability   float64 `json:"scalability"`
	Security      float64 `json:"security"`
	Modularity    float64 `json:"modularity"`
	Documentation float64 `json:"documentation"`
	BestPractices float64 `json:"best_practices"`
	ErrorHandling float64 `json:"error_handling"`
}

// DefaultWeights returns the standard weight distribution, biased toward
// correctness and security.
func DefaultWeights() Weights {
	return Weights{
		Correctness:   0.20,
		Efficiency:    0.15,
		Readability:   0.10,
		Scalability:   0.10,
		Security:      0.20,
		Modularity:    0.10,
		Documentation: 0.05,
		BestPractices: 0.05,
		ErrorHandling: 0.05,
	}
}

func (w Weights) values() [9]float64 {
	return [9]float64{
		w.Correctness, w.Efficiency, w.Readability,
		w.Scalability, w.Security, w.Modularity,
		w.Documentation, w.BestPractices, w.ErrorHandling,
	}
}

// Validate checks the sum-to-one invariant and that no weight is negative
// or above one.
func (w Weights) Validate() error {
	sum := 0.0
	for i, x := range w.values() {
		if x < 0 || x > 1 {
			return &ConfigurationError{
				Reason: fmt.Sprintf("weight for %s is %v, must be in [0, 1]", Criteria[i], x),
			}
		}
		sum += x
	}
	if math.Abs(sum-1.0) > weightSumTolerance {
		return &ConfigurationError{
			Reason: fmt.Sprintf("weights sum to %v, must sum to 1.0", sum),
		}
	}
	return nil
}

// WeightsFromMap builds a weight table from criterion-name keys, e.g. as
// parsed from a YAML config. Unknown criterion names are rejected; the
// result is validated before being returned.
func WeightsFromMap(m map[string]float64) (Weights, error) {
	var w Weights
	for name, value := range m {
		switch name {
		case CriterionCorrectness:
			w.Correctness = value
		case CriterionEfficiency:
			w.Efficiency = value
		case CriterionReadability:
			w.Readability = value
		case CriterionScalability:
			w.Scalability = value
		case CriterionSecurity:
			w.Security = value
		case CriterionModularity:
			w.Modularity = value
		case CriterionDocumentation:
			w.Documentation = value
		case CriterionBestPractices:
			w.BestPractices = value
		case CriterionErrorHandling:
			w.ErrorHandling = value
		default:
			return Weights{}, &ConfigurationError{Reason: fmt.Sprintf("unknown criterion %q in weight table", name)}
		}
	}
	if err := w.Validate(); err != nil {
		return Weights{}, err
	}
	return w, nil
}
