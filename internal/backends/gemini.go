package backends

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/codejudge-ai/codejudge/internal/models"
)

// GeminiParams configures the Gemini-backed evaluator.
type GeminiParams struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
}

func (p *GeminiParams) applyDefaults() {
	if p.Model == "" {
		p.Model = "gemini-2.0-flash"
	}
}

type geminiBackend struct {
	client *genai.Client
	params GeminiParams
}

// NewGeminiBackend builds the Gemini evaluator. Without an API key the
// backend is still constructed and reports an auth failure per evaluation,
// matching the other remote backends.
func NewGeminiBackend(ctx context.Context, apiKey string, params GeminiParams) (Backend, error) {
	params.applyDefaults()
	b := &geminiBackend{params: params}
	if apiKey == "" {
		return b, nil
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}
	b.client = client
	return b, nil
}

func (b *geminiBackend) Name() string { return NameGemini }

func (b *geminiBackend) Supports(models.Language) bool { return true }

func (b *geminiBackend) Evaluate(ctx context.Context, unit *models.CodeUnit) (*models.BackendResult, error) {
	if b.client == nil {
		return missingKeyResult(b.Name(), "GEMINI_API_KEY"), nil
	}

	result, err := b.client.Models.GenerateContent(ctx, b.params.Model,
		genai.Text(buildPrompt(unit)),
		&genai.GenerateContentConfig{
			Temperature: genai.Ptr(float32(b.params.Temperature)),
		})
	if err != nil {
		return models.FailedResult(b.Name(), classifyGeminiError(ctx, err)), nil
	}

	text := result.Text()
	if text == "" {
		return malformedResult(b.Name(), fmt.Errorf("response contained no text")), nil
	}

	payload, err := parseScorePayload(text)
	if err != nil {
		return malformedResult(b.Name(), err), nil
	}
	return successResult(b.Name(), payload), nil
}

// classifyGeminiError inspects the error text because the genai SDK does
// not expose a typed status code on its transport errors.
func classifyGeminiError(ctx context.Context, err error) models.Failure {
	if ctx.Err() != nil {
		return timeoutFailure(ctx)
	}
	msg := err.Error()
	switch {
	case strings.Contains(msg, "429") || strings.Contains(msg, "RESOURCE_EXHAUSTED"):
		return models.Failure{
			Kind:    models.FailureRateLimited,
			Message: msg,
			Hint:    "reduce worker concurrency or wait before retrying",
		}
	case strings.Contains(msg, "401") || strings.Contains(msg, "403") ||
		strings.Contains(msg, "PERMISSION_DENIED") || strings.Contains(msg, "API key"):
		return models.Failure{
			Kind:    models.FailureAuth,
			Message: msg,
			Hint:    "check that GEMINI_API_KEY is valid",
		}
	}
	return models.Failure{
		Kind:    models.FailureInternal,
		Message: msg,
	}
}
