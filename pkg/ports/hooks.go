package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// Hooks are the runtime's customization points, invoked exactly once per
// execution. Implementations are injected at construction.
type Hooks interface {
	// PrepareState runs after session load/creation and before the first
	// turn. It may enrich or rewrite the state (returning a new value).
	PrepareState(ctx context.Context, state domain.State, req domain.Request) (domain.State, error)

	// AfterExecution runs after the loop finishes, successful or not.
	// Typical use is persistence or audit. Errors are logged, not fatal.
	AfterExecution(ctx context.Context, state domain.State, result *domain.ExecutionResult) error
}

// NopHooks is the default no-op Hooks implementation.
type NopHooks struct{}

// PrepareState returns the state unchanged.
func (NopHooks) PrepareState(_ context.Context, state domain.State, _ domain.Request) (domain.State, error) {
	return state, nil
}

// AfterExecution does nothing.
func (NopHooks) AfterExecution(context.Context, domain.State, *domain.ExecutionResult) error {
	return nil
}
