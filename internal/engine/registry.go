package engine

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/foldline-labs/foldline-go/internal/domain"
)

// StepFunc executes one pipeline step. It reads prior results from the run
// state but never writes to it; the control loop is the only writer.
type StepFunc func(ctx context.Context, state *domain.RunState) (any, error)

// Registry binds handler identities to executables. Built once at startup
// and validated against every identity the plan builder can emit.
type Registry struct {
	funcs map[string]StepFunc
}

func NewRegistry() *Registry {
	return &Registry{funcs: make(map[string]StepFunc)}
}

func (r *Registry) Register(name string, fn StepFunc) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("handler name is required")
	}
	if fn == nil {
		return fmt.Errorf("handler %q is nil", name)
	}
	if _, ok := r.funcs[name]; ok {
		return fmt.Errorf("handler %q registered twice", name)
	}
	r.funcs[name] = fn
	return nil
}

func (r *Registry) Resolve(name string) (StepFunc, bool) {
	fn, ok := r.funcs[name]
	return fn, ok
}

// Validate cross-checks the registry against the handler identities a plan
// can dispatch to. An unknown identity is a configuration error, surfaced
// before any run starts.
func (r *Registry) Validate(handlers []string) error {
	missing := make([]string, 0)
	for _, name := range handlers {
		if _, ok := r.funcs[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return domain.NewError(domain.KindConfiguration, fmt.Sprintf("unregistered step handlers: %s", strings.Join(missing, ", ")))
}
