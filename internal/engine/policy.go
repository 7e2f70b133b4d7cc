package engine

import (
	"fmt"

	"github.com/foldline-labs/foldline-go/internal/domain"
	"github.com/foldline-labs/foldline-go/internal/orchpolicy"
)

// DecisionPolicy turns a step outcome into a control action. Precedence on
// failure with retries exhausted: fallback wins over abort.
type DecisionPolicy struct {
	backoff orchpolicy.Policy
}

func NewDecisionPolicy(pol orchpolicy.Policy) *DecisionPolicy {
	return &DecisionPolicy{backoff: pol}
}

func (p *DecisionPolicy) Decide(desc domain.StepDescriptor, result domain.StepResult, state *domain.RunState) domain.Decision {
	if result.Status == domain.StepSucceeded {
		if desc.Final {
			return domain.Decision{
				Action: domain.ActionComplete,
				Reason: fmt.Sprintf("step %s produced the final report", result.StepName),
			}
		}
		return domain.Decision{
			Action: domain.ActionContinue,
			Reason: fmt.Sprintf("step %s completed successfully", result.StepName),
		}
	}

	if result.Attempt <= desc.MaxRetries {
		return domain.Decision{
			Action:     domain.ActionRetry,
			Reason:     fmt.Sprintf("step %s failed on attempt %d of %d", result.StepName, result.Attempt, desc.MaxRetries+1),
			RetryDelay: p.backoff.Delay(result.Attempt),
		}
	}

	if desc.Fallback != "" && desc.Fallback != desc.Handler {
		return domain.Decision{
			Action:   domain.ActionFallback,
			Reason:   fmt.Sprintf("step %s exhausted %d attempts; falling back to %s", result.StepName, result.Attempt, desc.Fallback),
			NextStep: desc.Fallback,
		}
	}

	return domain.Decision{
		Action: domain.ActionAbort,
		Reason: fmt.Sprintf("step %s failed after %d attempts with no fallback", result.StepName, result.Attempt),
	}
}
