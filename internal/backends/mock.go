package backends

import (
	"context"
	"time"

	"github.com/codejudge-ai/codejudge/internal/models"
)

// MockBackend is a scriptable backend for tests. The zero value supports
// every language and returns an empty successful result.
type MockBackend struct {
	BackendName string
	Languages   []models.Language

	// Result is copied into each response when set.
	Result *models.BackendResult

	// Err, when set, is returned from Evaluate as a hard error.
	Err error

	// Latency delays the response, honoring context cancellation.
	Latency time.Duration

	// PanicMsg, when set, makes Evaluate panic.
	PanicMsg string

	// IgnoreDeadline makes Latency block without watching the context,
	// simulating a backend that does not honor its deadline.
	IgnoreDeadline bool
}

func (m *MockBackend) Name() string {
	if m.BackendName == "" {
		return "mock"
	}
	return m.BackendName
}

func (m *MockBackend) Supports(lang models.Language) bool {
	if len(m.Languages) == 0 {
		return true
	}
	for _, l := range m.Languages {
		if l == lang {
			return true
		}
	}
	return false
}

func (m *MockBackend) Evaluate(ctx context.Context, _ *models.CodeUnit) (*models.BackendResult, error) {
	if m.PanicMsg != "" {
		panic(m.PanicMsg)
	}
	if m.Latency > 0 {
		if m.IgnoreDeadline {
			time.Sleep(m.Latency)
		} else {
			select {
			case <-time.After(m.Latency):
			case <-ctx.Done():
				return models.FailedResult(m.Name(), models.Failure{
					Kind:    models.FailureTimeout,
					Message: ctx.Err().Error(),
				}), nil
			}
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Result != nil {
		result := *m.Result
		result.Backend = m.Name()
		return &result, nil
	}
	return &models.BackendResult{Backend: m.Name(), Confidence: 1.0}, nil
}
