package backends

import (
	"fmt"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tidwall/gjson"

	"github.com/codejudge-ai/codejudge/internal/models"
	"github.com/codejudge-ai/codejudge/internal/scoring"
)

// evaluationPrompt is the shared review instruction sent to every remote
// model backend. The response contract is enforced by scorePayloadSchema.
const evaluationPrompt = `You are an expert code reviewer. Analyze the following %s code and score it on each of these criteria, from 0 (unacceptable) to 10 (exemplary):

1. correctness - syntax, logic, algorithms, data types
2. efficiency - time/space complexity, resource usage, unnecessary work
3. readability - naming, structure, organization
4. scalability - behavior with larger data, bottlenecks
5. security - injection, input validation, data exposure, credentials
6. modularity - separation of concerns, reusability, coupling
7. documentation - comments, docstrings
8. best_practices - language conventions, idioms, style
9. error_handling - validation, graceful degradation

Also report your confidence in this judgment from 0.0 (no usable judgment) to 1.0 (certain).

Respond with JSON only, no prose and no markdown fences:
{
  "scores": {
    "correctness": 0, "efficiency": 0, "readability": 0,
    "scalability": 0, "security": 0, "modularity": 0,
    "documentation": 0, "best_practices": 0, "error_handling": 0
  },
  "feedback": "detailed analysis of strengths and weaknesses",
  "suggestions": ["specific actionable improvement"],
  "confidence": 0.0
}

CODE:
%s`

// scorePayloadSchema validates a model's JSON response before any field is
// trusted. Scores outside [0, 10] or a missing criterion make the whole
// response malformed.
const scorePayloadSchema = `{
  "type": "object",
  "required": ["scores", "feedback", "confidence"],
  "properties": {
    "scores": {
      "type": "object",
      "required": [
        "correctness", "efficiency", "readability", "scalability",
        "security", "modularity", "documentation", "best_practices",
        "error_handling"
      ],
      "additionalProperties": {"type": "number", "minimum": 0, "maximum": 10}
    },
    "feedback": {"type": "string"},
    "suggestions": {"type": "array", "items": {"type": "string"}},
    "confidence": {"type": "number", "minimum": 0, "maximum": 1}
  }
}`

var compileScoreSchema = sync.OnceValues(func() (*jsonschema.Schema, error) {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(scorePayloadSchema))
	if err != nil {
		return nil, fmt.Errorf("parsing score payload schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("scores.json", doc); err != nil {
		return nil, fmt.Errorf("adding score payload schema: %w", err)
	}
	return compiler.Compile("scores.json")
})

func buildPrompt(unit *models.CodeUnit) string {
	return fmt.Sprintf(evaluationPrompt, unit.Language, unit.Content)
}

// scorePayload is the parsed, validated body of a model response.
type scorePayload struct {
	Scores      scoring.ScoreVector
	Feedback    string
	Suggestions []string
	Confidence  float64
}

// parseScorePayload extracts a score payload from raw model output. Models
// occasionally wrap JSON in markdown fences despite instructions, so fences
// are stripped before parsing.
func parseScorePayload(raw string) (*scorePayload, error) {
	text := strings.TrimSpace(raw)
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	text = strings.TrimSpace(text)

	if !gjson.Valid(text) {
		return nil, fmt.Errorf("response is not valid JSON")
	}

	schema, err := compileScoreSchema()
	if err != nil {
		return nil, err
	}
	value, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
	if err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}
	if err := schema.Validate(value); err != nil {
		return nil, fmt.Errorf("response does not match score schema: %w", err)
	}

	body := gjson.Parse(text)
	scores := body.Get("scores")
	payload := &scorePayload{
		Scores: scoring.ScoreVector{
			Correctness:   scores.Get("correctness").Float(),
			Efficiency:    scores.Get("efficiency").Float(),
			Readability:   scores.Get("readability").Float(),
			Scalability:   scores.Get("scalability").Float(),
			Security:      scores.Get("security").Float(),
			Modularity:    scores.Get("modularity").Float(),
			Documentation: scores.Get("documentation").Float(),
			BestPractices: scores.Get("best_practices").Float(),
			ErrorHandling: scores.Get("error_handling").Float(),
		}.Clamp(),
		Feedback:   body.Get("feedback").String(),
		Confidence: body.Get("confidence").Float(),
	}
	for _, s := range body.Get("suggestions").Array() {
		payload.Suggestions = append(payload.Suggestions, s.String())
	}
	return payload, nil
}

// successResult converts a parsed payload into a BackendResult. A model
// that reports zero confidence has, by its own account, produced no usable
// judgment; that is recorded as a malformed-response failure so the
// confidence/failure invariant holds.
func successResult(backend string, payload *scorePayload) *models.BackendResult {
	if payload.Confidence <= 0 {
		return models.FailedResult(backend, models.Failure{
			Kind:    models.FailureMalformedResponse,
			Message: "model reported zero confidence in its own judgment",
			Hint:    "retry the evaluation or switch to a different model",
		})
	}
	return &models.BackendResult{
		Backend:     backend,
		Scores:      payload.Scores,
		Confidence:  payload.Confidence,
		Feedback:    payload.Feedback,
		Suggestions: payload.Suggestions,
	}
}

func malformedResult(backend string, err error) *models.BackendResult {
	return models.FailedResult(backend, models.Failure{
		Kind:    models.FailureMalformedResponse,
		Message: err.Error(),
		Hint:    "the provider returned output that could not be parsed into scores; retrying may help",
	})
}

func missingKeyResult(backend, envVar string) *models.BackendResult {
	return models.FailedResult(backend, models.Failure{
		Kind:    models.FailureAuth,
		Message: "no API key configured",
		Hint:    "set " + envVar + " in the environment",
	})
}
