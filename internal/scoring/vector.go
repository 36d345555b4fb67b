// Package scoring holds the nine-criterion score vector and the pure
// arithmetic used to combine scores from multiple evaluation backends.
package scoring

// Criterion names, used as map keys in configuration and report output.
const (
	CriterionCorrectness   = "correctness"
	CriterionEfficiency    = "efficiency"
	CriterionReadability   = "readability"
	CriterionScalability   = "scalability"
	CriterionSecurity      = "security"
	CriterionModularity    = "modularity"
	CriterionDocumentation = "documentation"
	CriterionBestPractices = "best_practices"
	CriterionErrorHandling = "error_handling"
)

// Criteria lists all criterion names in canonical order.
var Criteria = []string{
	CriterionCorrectness,
	CriterionEfficiency,
	CriterionReadability,
	CriterionScalability,
	CriterionSecurity,
	CriterionModularity,
	CriterionDocumentation,
	CriterionBestPractices,
	CriterionErrorHandling,
}

// ScoreVector is one backend's (or the aggregated) judgment of a code unit.
// Every field is on the closed interval [0, 10]. The zero value is the
// all-zeros vector used when no usable result exists.
type ScoreVector struct {
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

func (v ScoreVector) values() [9]float64 {
	return [9]float64{
		v.Correctness, v.Efficiency, v.Readability,
		v.Scalability, v.Security, v.Modularity,
		v.Documentation, v.BestPractices, v.ErrorHandling,
	}
}

func fromValues(a [9]float64) ScoreVector {
	return ScoreVector{
		Correctness:   a[0],
		Efficiency:    a[1],
		Readability:   a[2],
		Scalability:   a[3],
		Security:      a[4],
		Modularity:    a[5],
		Documentation: a[6],
		BestPractices: a[7],
		ErrorHandling: a[8],
	}
}

// Clamp returns a copy with every field forced into [0, 10].
func (v ScoreVector) Clamp() ScoreVector {
	a := v.values()
	for i, x := range a {
		if x < 0 {
			a[i] = 0
		} else if x > 10 {
			a[i] = 10
		}
	}
	return fromValues(a)
}

// Mean returns the unweighted arithmetic mean of the nine criteria.
func (v ScoreVector) Mean() float64 {
	sum := 0.0
	for _, x := range v.values() {
		sum += x
	}
	return sum / 9.0
}

// WeightedSum reduces the vector to a single scalar using the given weight
// table. It returns a *ConfigurationError if the weights do not sum to one.
func (v ScoreVector) WeightedSum(w Weights) (float64, error) {
	if err := w.Validate(); err != nil {
		return 0, err
	}
	sum := 0.0
	wv := w.values()
	for i, x := range v.values() {
		sum += x * wv[i]
	}
	return sum, nil
}

// ConfidenceWeightedAverage combines score vectors from several backends into
// one vector, weighting each whole vector by its backend's confidence. Inputs
// with confidence <= 0 contribute nothing. If no input has positive
// confidence the zero vector is returned.
//
// Averaging whole vectors (rather than weighting each criterion
// independently) keeps each backend's judgment internally coherent while
// still discounting low-confidence sources.
func ConfidenceWeightedAverage(vectors []ScoreVector, confidences []float64) ScoreVector {
	if len(vectors) != len(confidences) {
		panic("scoring: vectors and confidences must have equal length")
	}

	var acc [9]float64
	total := 0.0
	for i, vec := range vectors {
		c := confidences[i]
		if c <= 0 {
			continue
		}
		for j, x := range vec.values() {
			acc[j] += x * c
		}
		total += c
	}

	if total == 0 {
		return ScoreVector{}
	}
	for j := range acc {
		acc[j] /= total
	}
	return fromValues(acc)
}
