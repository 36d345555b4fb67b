package backends

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/codejudge-ai/codejudge/internal/models"
)

// OpenAIParams configures the OpenAI-backed evaluator.
type OpenAIParams struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
}

func (p *OpenAIParams) applyDefaults() {
	if p.Model == "" {
		p.Model = "gpt-4o"
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = 2000
	}
}

type openaiBackend struct {
	client openai.Client
	params OpenAIParams
	hasKey bool
}

func NewOpenAIBackend(apiKey string, params OpenAIParams) Backend {
	params.applyDefaults()
	return &openaiBackend{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		params: params,
		hasKey: apiKey != "",
	}
}

func (b *openaiBackend) Name() string { return NameOpenAI }

func (b *openaiBackend) Supports(models.Language) bool { return true }

func (b *openaiBackend) Evaluate(ctx context.Context, unit *models.CodeUnit) (*models.BackendResult, error) {
	if !b.hasKey {
		return missingKeyResult(b.Name(), "OPENAI_API_KEY"), nil
	}

	resp, err := b.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(b.params.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(buildPrompt(unit)),
		},
		Temperature: openai.Float(b.params.Temperature),
		MaxTokens:   openai.Int(b.params.MaxTokens),
	})
	if err != nil {
		return models.FailedResult(b.Name(), classifyOpenAIError(ctx, err)), nil
	}
	if len(resp.Choices) == 0 {
		return malformedResult(b.Name(), fmt.Errorf("completion contained no choices")), nil
	}

	payload, err := parseScorePayload(resp.Choices[0].Message.Content)
	if err != nil {
		return malformedResult(b.Name(), err), nil
	}
	return successResult(b.Name(), payload), nil
}

func classifyOpenAIError(ctx context.Context, err error) models.Failure {
	if ctx.Err() != nil {
		return timeoutFailure(ctx)
	}
	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429:
			return models.Failure{
				Kind:    models.FailureRateLimited,
				Message: err.Error(),
				Hint:    "reduce worker concurrency or wait before retrying",
			}
		case 401, 403:
			return models.Failure{
				Kind:    models.FailureAuth,
				Message: err.Error(),
				Hint:    "check that OPENAI_API_KEY is valid and has access to the model",
			}
		}
	}
	return models.Failure{
		Kind:    models.FailureInternal,
		Message: err.Error(),
	}
}

// timeoutFailure describes a context expiry in provider-neutral terms.
func timeoutFailure(ctx context.Context) models.Failure {
	msg := "request deadline exceeded"
	if errors.Is(ctx.Err(), context.Canceled) {
		msg = "request cancelled"
	}
	return models.Failure{
		Kind:    models.FailureTimeout,
		Message: msg,
		Hint:    "increase the per-backend timeout or reduce the size of the code unit",
	}
}
