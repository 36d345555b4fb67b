// Package config loads the job spec YAML and the provider credentials
// drawn from the environment.
package config

import (
	"context"
	"fmt"
	"os"

	"github.com/sethvargo/go-envconfig"
	"gopkg.in/yaml.v3"

	"github.com/codejudge-ai/codejudge/internal/backends"
	"github.com/codejudge-ai/codejudge/internal/scoring"
)

// JobSpec describes one evaluation job: which backends to run, how to
// weight the criteria and how hard to push concurrency.
type JobSpec struct {
	Name       string                    `yaml:"name,omitempty"`
	Backends   []string                  `yaml:"backends"`
	Workers    int                       `yaml:"workers,omitempty"`
	TimeoutSec int                       `yaml:"timeout_seconds,omitempty"`
	Weights    map[string]float64        `yaml:"weights,omitempty"`
	Params     map[string]map[string]any `yaml:"backend_params,omitempty"`
}

// LoadJobSpec loads a spec from a YAML file
func LoadJobSpec(path string) (*JobSpec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var spec JobSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	if err := spec.Validate(); err != nil {
		return nil, err
	}
	return &spec, nil
}

// Validate checks that the spec is usable before any work starts.
func (s *JobSpec) Validate() error {
	if len(s.Backends) == 0 {
		return fmt.Errorf("backends must name at least one backend")
	}
	if s.Workers < 0 {
		return fmt.Errorf("workers must be positive, got %d", s.Workers)
	}
	if s.TimeoutSec < 0 {
		return fmt.Errorf("timeout_seconds must be positive, got %d", s.TimeoutSec)
	}
	return nil
}

// ResolveWeights turns the spec's optional weight overrides into a
// validated table. An empty map means the default table.
func (s *JobSpec) ResolveWeights() (scoring.Weights, error) {
	if len(s.Weights) == 0 {
		return scoring.DefaultWeights(), nil
	}
	return scoring.WeightsFromMap(s.Weights)
}

// LoadCredentials reads provider API keys from the environment.
func LoadCredentials(ctx context.Context) (backends.Credentials, error) {
	var creds backends.Credentials
	if err := envconfig.Process(ctx, &creds); err != nil {
		return backends.Credentials{}, fmt.Errorf("reading credentials: %w", err)
	}
	return creds, nil
}
