package orchpolicy

import (
	"strings"
	"testing"
	"time"
)

const samplePolicy = `
schema: foldline.orchestration.v1
backoff:
  type: exponential
  initial_seconds: 0.5
  max_seconds: 10
  multiplier: 2
steps:
  - name: predict_structure
    max_retries: 3
    timeout_seconds: 300
    fallback: predict_structure_synthetic
  - name: parse_structure
    max_retries: 1
    timeout_seconds: 60
`

func TestParseValidPolicy(t *testing.T) {
	pol, err := Parse([]byte(samplePolicy))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if pol.Schema != SchemaV1 {
		t.Fatalf("expected schema %q, got %q", SchemaV1, pol.Schema)
	}

	step, ok := pol.Step("predict_structure")
	if !ok {
		t.Fatalf("expected predict_structure override")
	}
	if step.MaxRetries != 3 || step.TimeoutSeconds != 300 {
		t.Fatalf("unexpected override: %+v", step)
	}
	if step.Fallback != "predict_structure_synthetic" {
		t.Fatalf("expected fallback, got %q", step.Fallback)
	}

	if _, ok := pol.Step("generate_report"); ok {
		t.Fatalf("undeclared step must have no override")
	}
}

func TestParseRejectsWrongSchema(t *testing.T) {
	bad := strings.Replace(samplePolicy, SchemaV1, "foldline.orchestration.v2", 1)
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatalf("expected schema error")
	}
}

func TestParseRejectsUnknownBackoffType(t *testing.T) {
	bad := strings.Replace(samplePolicy, "exponential", "jittered", 1)
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatalf("expected backoff type error")
	}
}

func TestParseRejectsDuplicateSteps(t *testing.T) {
	bad := samplePolicy + `
  - name: predict_structure
    max_retries: 1
    timeout_seconds: 10
`
	if _, err := Parse([]byte(bad)); err == nil {
		t.Fatalf("expected duplicate step error")
	}
}

func TestDelayExponentialGrowthAndCap(t *testing.T) {
	pol := Policy{
		Schema: SchemaV1,
		Backoff: Backoff{
			Type:           BackoffExponential,
			InitialSeconds: 1,
			MaxSeconds:     4,
			Multiplier:     2,
		},
	}

	cases := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{4, 4 * time.Second},
	}
	for _, tc := range cases {
		if got := pol.Delay(tc.attempt); got != tc.want {
			t.Fatalf("attempt %d: expected %s, got %s", tc.attempt, tc.want, got)
		}
	}
}

func TestDelayFixed(t *testing.T) {
	pol := Policy{
		Schema: SchemaV1,
		Backoff: Backoff{
			Type:           BackoffFixed,
			InitialSeconds: 2,
		},
	}
	for attempt := 1; attempt <= 3; attempt++ {
		if got := pol.Delay(attempt); got != 2*time.Second {
			t.Fatalf("attempt %d: expected 2s, got %s", attempt, got)
		}
	}
}

func TestDefaultPolicyIsValid(t *testing.T) {
	pol := Default()
	if err := pol.Validate(); err != nil {
		t.Fatalf("default policy must validate: %v", err)
	}
	step, ok := pol.Step("predict_structure")
	if !ok || step.Fallback == "" {
		t.Fatalf("default policy must give prediction a fallback")
	}
}
