package orchpolicy

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const SchemaV1 = "foldline.orchestration.v1"

const (
	BackoffFixed       = "fixed"
	BackoffExponential = "exponential"
)

// Policy is the configurable retry/backoff/fallback surface of the
// orchestration engine. It deliberately carries no step ordering: the plan
// builder owns that.
type Policy struct {
	Schema  string       `yaml:"schema"`
	Backoff Backoff      `yaml:"backoff"`
	Steps   []StepPolicy `yaml:"steps"`
}

type Backoff struct {
	Type           string  `yaml:"type"`
	InitialSeconds float64 `yaml:"initial_seconds"`
	MaxSeconds     float64 `yaml:"max_seconds"`
	Multiplier     float64 `yaml:"multiplier"`
}

type StepPolicy struct {
	Name           string `yaml:"name"`
	MaxRetries     int    `yaml:"max_retries"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	Fallback       string `yaml:"fallback,omitempty"`
}

func Parse(input []byte) (Policy, error) {
	var pol Policy
	if err := yaml.Unmarshal(input, &pol); err != nil {
		return Policy{}, fmt.Errorf("decode policy: %w", err)
	}
	if err := pol.Validate(); err != nil {
		return Policy{}, err
	}
	return pol, nil
}

func (p Policy) Validate() error {
	if strings.TrimSpace(p.Schema) != SchemaV1 {
		return fmt.Errorf("policy.schema must be %q", SchemaV1)
	}
	switch strings.ToLower(strings.TrimSpace(p.Backoff.Type)) {
	case BackoffFixed:
	case BackoffExponential:
		if p.Backoff.Multiplier < 1 {
			return errors.New("policy.backoff.multiplier must be >= 1 for exponential backoff")
		}
	default:
		return fmt.Errorf("policy.backoff.type unsupported: %q", p.Backoff.Type)
	}
	if p.Backoff.InitialSeconds < 0 {
		return errors.New("policy.backoff.initial_seconds must be >= 0")
	}
	if p.Backoff.MaxSeconds < 0 {
		return errors.New("policy.backoff.max_seconds must be >= 0")
	}

	seen := make(map[string]struct{}, len(p.Steps))
	for i, step := range p.Steps {
		name := strings.TrimSpace(step.Name)
		if name == "" {
			return fmt.Errorf("policy.steps[%d].name is required", i)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("policy.steps[%d].name must be unique (duplicate %q)", i, name)
		}
		seen[name] = struct{}{}
		if step.MaxRetries < 0 {
			return fmt.Errorf("policy.steps[%d].max_retries must be >= 0", i)
		}
		if step.TimeoutSeconds < 1 {
			return fmt.Errorf("policy.steps[%d].timeout_seconds must be >= 1", i)
		}
	}
	return nil
}

// Step returns the per-step overrides for name, if declared.
func (p Policy) Step(name string) (StepPolicy, bool) {
	for _, step := range p.Steps {
		if step.Name == name {
			return step, true
		}
	}
	return StepPolicy{}, false
}

// Delay computes the retry delay before attempt+1, given that attempt
// (1-based) just failed.
func (p Policy) Delay(attempt int) time.Duration {
	if attempt < 1 {
		return 0
	}
	initial := p.Backoff.InitialSeconds
	if initial < 0 {
		initial = 0
	}
	max := p.Backoff.MaxSeconds

	seconds := initial
	if strings.ToLower(p.Backoff.Type) == BackoffExponential {
		seconds = initial * math.Pow(p.Backoff.Multiplier, float64(attempt-1))
	}
	if max > 0 && seconds > max {
		seconds = max
	}
	return time.Duration(seconds * float64(time.Second))
}

// Default is the shipped policy: predict gets the long timeout, the retry
// budget, and the synthetic fallback; everything else fails fast.
func Default() Policy {
	return Policy{
		Schema: SchemaV1,
		Backoff: Backoff{
			Type:           BackoffExponential,
			InitialSeconds: 1,
			MaxSeconds:     30,
			Multiplier:     2,
		},
		Steps: []StepPolicy{
			{Name: "validate_sequence", MaxRetries: 0, TimeoutSeconds: 10},
			{Name: "predict_structure", MaxRetries: 3, TimeoutSeconds: 300, Fallback: "predict_structure_synthetic"},
			{Name: "parse_structure", MaxRetries: 1, TimeoutSeconds: 60},
			{Name: "calculate_metrics", MaxRetries: 0, TimeoutSeconds: 30},
			{Name: "generate_report", MaxRetries: 0, TimeoutSeconds: 30},
		},
	}
}
