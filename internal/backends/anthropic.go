package backends

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/codejudge-ai/codejudge/internal/models"
)

// AnthropicParams configures the Anthropic-backed evaluator.
type AnthropicParams struct {
	Model       string  `mapstructure:"model"`
	Temperature float64 `mapstructure:"temperature"`
	MaxTokens   int64   `mapstructure:"max_tokens"`
}

func (p *AnthropicParams) applyDefaults() {
	if p.Model == "" {
		p.Model = string(anthropic.ModelClaudeSonnet4_0)
	}
	if p.MaxTokens == 0 {
		p.MaxTokens = 2000
	}
}

type anthropicBackend struct {
	client anthropic.Client
	params AnthropicParams
	hasKey bool
}

func NewAnthropicBackend(apiKey string, params AnthropicParams) Backend {
	params.applyDefaults()
	return &anthropicBackend{
		client: anthropic.NewClient(option.WithAPIKey(apiKey)),
		params: params,
		hasKey: apiKey != "",
	}
}

func (b *anthropicBackend) Name() string { return NameAnthropic }

func (b *anthropicBackend) Supports(models.Language) bool { return true }

func (b *anthropicBackend) Evaluate(ctx context.Context, unit *models.CodeUnit) (*models.BackendResult, error) {
	if !b.hasKey {
		return missingKeyResult(b.Name(), "ANTHROPIC_API_KEY"), nil
	}

	msg, err := b.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(b.params.Model),
		MaxTokens:   b.params.MaxTokens,
		Temperature: anthropic.Float(b.params.Temperature),
		Messages: []anthropic.MessageParam{
			{
				Role: anthropic.MessageParamRoleUser,
				Content: []anthropic.ContentBlockParamUnion{
					anthropic.NewTextBlock(buildPrompt(unit)),
				},
			},
		},
	})
	if err != nil {
		return models.FailedResult(b.Name(), classifyAnthropicError(ctx, err)), nil
	}

	var text strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	if text.Len() == 0 {
		return malformedResult(b.Name(), fmt.Errorf("message contained no text content")), nil
	}

	payload, err := parseScorePayload(text.String())
	if err != nil {
		return malformedResult(b.Name(), err), nil
	}
	return successResult(b.Name(), payload), nil
}

func classifyAnthropicError(ctx context.Context, err error) models.Failure {
	if ctx.Err() != nil {
		return timeoutFailure(ctx)
	}
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case 429, 529:
			return models.Failure{
				Kind:    models.FailureRateLimited,
				Message: err.Error(),
				Hint:    "reduce worker concurrency or wait before retrying",
			}
		case 401, 403:
			return models.Failure{
				Kind:    models.FailureAuth,
				Message: err.Error(),
				Hint:    "check that ANTHROPIC_API_KEY is valid",
			}
		}
	}
	return models.Failure{
		Kind:    models.FailureInternal,
		Message: err.Error(),
	}
}
