/*
Package registry stores node contracts and their implementations.

Registration is the only mutation path; once the graph builder compiles a
registry, further mutation is undefined. Registration order is preserved
because it is the tie-break for equal-priority rule matches.
*/
package registry

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/contract"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
)

// Entry pairs a contract with its executable implementation.
type Entry struct {
	Contract contract.NodeContract
	Impl     ports.Node
}

// Registry holds registered nodes. It is an explicit object passed by
// reference to the builder and runtime; there is no package-level singleton.
type Registry struct {
	mu          sync.RWMutex
	order       []string
	entries     map[string]Entry
	validSlices map[string]struct{}
	logger      *slog.Logger
}

// Option configures the Registry.
type Option func(*Registry)

// WithLogger sets a structured logger for registration diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) { r.logger = logger }
}

// WithValidSlices seeds extra slice names beyond the built-ins.
func WithValidSlices(names ...string) Option {
	return func(r *Registry) {
		for _, n := range names {
			r.validSlices[n] = struct{}{}
		}
	}
}

// New creates an empty registry seeded with the built-in slices.
func New(opts ...Option) *Registry {
	r := &Registry{
		entries: make(map[string]Entry),
		validSlices: map[string]struct{}{
			domain.SliceRequest:  {},
			domain.SliceResponse: {},
			domain.SliceInternal: {},
		},
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Register adds a contract and its implementation. It fails with
// domain.ErrDuplicateNode when the name is already taken. Unknown slice
// references are logged here and reported as errors by the validator.
func (r *Registry) Register(c contract.NodeContract, impl ports.Node) error {
	if c.Name == "" {
		return fmt.Errorf("contract missing name")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[c.Name]; exists {
		return fmt.Errorf("%q: %w", c.Name, domain.ErrDuplicateNode)
	}

	for _, sl := range c.Reads {
		if !r.isValidSlice(sl) {
			r.logger.Warn("unknown slice in reads", "node", c.Name, "slice", sl)
		}
	}
	for _, sl := range c.Writes {
		if !r.isValidSlice(sl) {
			r.logger.Warn("unknown slice in writes", "node", c.Name, "slice", sl)
		}
		if sl == domain.SliceRequest {
			r.logger.Warn("writing to the request slice is discouraged", "node", c.Name)
		}
	}

	r.entries[c.Name] = Entry{Contract: c, Impl: impl}
	r.order = append(r.order, c.Name)

	r.logger.Info("registered node", "node", c.Name, "supervisor", c.Supervisor)
	return nil
}

// AddValidSlice extends the set of slice names contracts may reference.
func (r *Registry) AddValidSlice(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validSlices[name] = struct{}{}
}

// IsValidSlice reports whether a slice name is registered.
func (r *Registry) IsValidSlice(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.isValidSlice(name)
}

func (r *Registry) isValidSlice(name string) bool {
	_, ok := r.validSlices[name]
	return ok
}

// ValidSlices returns the registered slice names.
func (r *Registry) ValidSlices() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.validSlices))
	for n := range r.validSlices {
		names = append(names, n)
	}
	return names
}

// Get returns the entry for a node name.
func (r *Registry) Get(name string) (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[name]
	return e, ok
}

// Contract returns the contract for a node name.
func (r *Registry) Contract(name string) (contract.NodeContract, bool) {
	e, ok := r.Get(name)
	return e.Contract, ok
}

// Names returns all node names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// NodesForSupervisor returns the contracts owned by a supervisor, in
// registration order. This order is stable: it is the tie-break for
// equal-priority rule matches.
func (r *Registry) NodesForSupervisor(supervisor string) []contract.NodeContract {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []contract.NodeContract
	for _, name := range r.order {
		if c := r.entries[name].Contract; c.Supervisor == supervisor {
			out = append(out, c)
		}
	}
	return out
}

// Supervisors returns the distinct supervisor names referenced by registered
// contracts, in first-reference order.
func (r *Registry) Supervisors() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	seen := make(map[string]struct{})
	var out []string
	for _, name := range r.order {
		sup := r.entries[name].Contract.Supervisor
		if sup == "" {
			continue
		}
		if _, ok := seen[sup]; !ok {
			seen[sup] = struct{}{}
			out = append(out, sup)
		}
	}
	return out
}

// Reset clears every registration and restores the built-in slice set.
// Exposed for test isolation only.
func (r *Registry) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.order = nil
	r.entries = make(map[string]Entry)
	r.validSlices = map[string]struct{}{
		domain.SliceRequest:  {},
		domain.SliceResponse: {},
		domain.SliceInternal: {},
	}
}
