// Package backends defines the evaluator backend contract and its concrete
// implementations: local heuristic analyzers and remote model-backed
// adapters. Backends never let provider faults escape; anything that goes
// wrong is classified into a Failure carried inside the BackendResult.
package backends

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/go-viper/mapstructure/v2"

	"github.com/codejudge-ai/codejudge/internal/models"
)

// Backend is the capability contract for one evaluator.
type Backend interface {
	// Name returns the stable identifier used in configuration and reports.
	Name() string

	// Supports reports whether this backend can judge code of the given
	// language. Unsupported (unit, backend) pairs are skipped entirely and
	// produce no BackendResult.
	Supports(lang models.Language) bool

	// Evaluate judges one code unit. The context carries the per-invocation
	// deadline; implementations must return promptly once it expires.
	// Provider-level failures are returned as a BackendResult with a
	// Failure descriptor and confidence 0, not as an error. A non-nil
	// error is treated by the dispatcher as an internal backend fault.
	Evaluate(ctx context.Context, unit *models.CodeUnit) (*models.BackendResult, error)
}

// Registry holds the available backends, keyed by identifier. It is
// populated at startup and read-only afterwards.
type Registry struct {
	mu     sync.RWMutex
	byName map[string]Backend
}

func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Backend)}
}

// Register adds a backend, rejecting duplicate identifiers.
func (r *Registry) Register(b Backend) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	name := b.Name()
	if _, exists := r.byName[name]; exists {
		return fmt.Errorf("backend %q already registered", name)
	}
	r.byName[name] = b
	return nil
}

// Get returns the backend with the given identifier.
func (r *Registry) Get(name string) (Backend, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	b, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("no backend registered with identifier %q", name)
	}
	return b, nil
}

// Names returns all registered identifiers, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Resolve maps requested identifiers to backends, preserving request order.
// Resolution happens once at job configuration time, not per call.
func (r *Registry) Resolve(names []string) ([]Backend, error) {
	resolved := make([]Backend, 0, len(names))
	for _, name := range names {
		b, err := r.Get(name)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, b)
	}
	return resolved, nil
}

// Backend identifiers for the built-in variants.
const (
	NameStatic    = "static"
	NameSQLCheck  = "sqlcheck"
	NameOpenAI    = "openai"
	NameGemini    = "gemini"
	NameAnthropic = "anthropic"
)

// Credentials holds the provider API keys consumed by remote backends.
type Credentials struct {
	OpenAIKey    string `env:"OPENAI_API_KEY"`
	GeminiKey    string `env:"GEMINI_API_KEY"`
	AnthropicKey string `env:"ANTHROPIC_API_KEY"`
}

// Create builds a backend by identifier, decoding backend-specific params.
func Create(ctx context.Context, name string, params map[string]any, creds Credentials) (Backend, error) {
	switch name {
	case NameStatic:
		return NewStaticAnalyzer(), nil
	case NameSQLCheck:
		return NewSQLAnalyzer(), nil
	case NameOpenAI:
		var p OpenAIParams
		if err := mapstructure.Decode(params, &p); err != nil {
			return nil, fmt.Errorf("decoding %s params: %w", name, err)
		}
		return NewOpenAIBackend(creds.OpenAIKey, p), nil
	case NameGemini:
		var p GeminiParams
		if err := mapstructure.Decode(params, &p); err != nil {
			return nil, fmt.Errorf("decoding %s params: %w", name, err)
		}
		return NewGeminiBackend(ctx, creds.GeminiKey, p)
	case NameAnthropic:
		var p AnthropicParams
		if err := mapstructure.Decode(params, &p); err != nil {
			return nil, fmt.Errorf("decoding %s params: %w", name, err)
		}
		return NewAnthropicBackend(creds.AnthropicKey, p), nil
	default:
		return nil, fmt.Errorf("%q is not a valid backend identifier", name)
	}
}
