package plan

import (
	"fmt"
	"strings"
	"time"

	"github.com/foldline-labs/foldline-go/internal/domain"
	"github.com/foldline-labs/foldline-go/internal/orchpolicy"
)

// Characteristics carries the per-run input metadata the builder may use to
// tune the plan. Step identity never depends on it; timeouts may.
type Characteristics struct {
	SequenceLength int
}

// longSequenceResidues is the length above which prediction gets extra
// headroom on its timeout.
const longSequenceResidues = 200

// Build produces the ordered execution plan for one run. The plan is a pure
// function of the characteristics and the orchestration policy.
func Build(chars Characteristics, pol orchpolicy.Policy) ([]domain.StepDescriptor, error) {
	if err := pol.Validate(); err != nil {
		return nil, domain.WrapError(domain.KindConfiguration, "orchestration policy", err)
	}

	steps := []domain.StepDescriptor{
		{
			Name:        "validate_sequence",
			Description: "Validate amino acid sequence format and content",
			Handler:     "validate_sequence",
			Timeout:     10 * time.Second,
		},
		{
			Name:        "predict_structure",
			Description: "Predict protein structure",
			Handler:     "predict_structure",
			DependsOn:   []string{"validate_sequence"},
			Timeout:     300 * time.Second,
		},
		{
			Name:        "parse_structure",
			Description: "Parse and validate predicted structure",
			Handler:     "parse_structure",
			DependsOn:   []string{"predict_structure"},
			Timeout:     60 * time.Second,
		},
		{
			Name:        "calculate_metrics",
			Description: "Calculate structural and quality metrics",
			Handler:     "calculate_metrics",
			DependsOn:   []string{"parse_structure"},
			Timeout:     30 * time.Second,
		},
		{
			Name:        "generate_report",
			Description: "Generate analysis report",
			Handler:     "generate_report",
			DependsOn:   []string{"calculate_metrics"},
			Timeout:     30 * time.Second,
			Final:       true,
		},
	}

	for i := range steps {
		if override, ok := pol.Step(steps[i].Name); ok {
			steps[i].MaxRetries = override.MaxRetries
			steps[i].Fallback = strings.TrimSpace(override.Fallback)
			if override.TimeoutSeconds > 0 {
				steps[i].Timeout = time.Duration(override.TimeoutSeconds) * time.Second
			}
		}
		if steps[i].Name == "predict_structure" && chars.SequenceLength > longSequenceResidues {
			steps[i].Timeout *= 2
		}
	}

	if err := Validate(steps); err != nil {
		return nil, err
	}
	return steps, nil
}

// Validate checks the structural invariants of a plan: unique non-empty step
// names and dependencies that refer to earlier-declared steps only (which
// also rules out cycles). Violations are configuration errors, fatal before
// any execution starts.
func Validate(steps []domain.StepDescriptor) error {
	if len(steps) == 0 {
		return domain.NewError(domain.KindConfiguration, "plan has no steps")
	}

	declared := make(map[string]struct{}, len(steps))
	for i, step := range steps {
		name := strings.TrimSpace(step.Name)
		if name == "" {
			return domain.NewError(domain.KindConfiguration, fmt.Sprintf("plan step[%d] has no name", i))
		}
		if _, ok := declared[name]; ok {
			return domain.NewError(domain.KindConfiguration, fmt.Sprintf("plan declares step %q twice", name))
		}
		if step.Timeout <= 0 {
			return domain.NewError(domain.KindConfiguration, fmt.Sprintf("step %q has no timeout", name))
		}
		if step.MaxRetries < 0 {
			return domain.NewError(domain.KindConfiguration, fmt.Sprintf("step %q has negative retry budget", name))
		}
		for _, dep := range step.DependsOn {
			if _, ok := declared[dep]; !ok {
				return domain.NewError(domain.KindConfiguration, fmt.Sprintf("step %q depends on %q which is not declared earlier in the plan", name, dep))
			}
		}
		declared[name] = struct{}{}
	}
	return nil
}

// Handlers returns every registry identity a plan can dispatch to, fallback
// targets included. Used to cross-check the step registry at startup.
func Handlers(steps []domain.StepDescriptor) []string {
	seen := make(map[string]struct{}, len(steps))
	out := make([]string, 0, len(steps))
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" {
			return
		}
		if _, ok := seen[name]; ok {
			return
		}
		seen[name] = struct{}{}
		out = append(out, name)
	}
	for _, step := range steps {
		add(step.Handler)
		add(step.Fallback)
	}
	return out
}
