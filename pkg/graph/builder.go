/*
Package graph compiles a validated registry into an executable decision
graph: one supervisor decision point per supervisor name, conditional edges
to each owned node, and return edges back to the supervisor (or to END for
terminal nodes).

Compilation refuses registries with validation errors; at run time each
compiled node wrapper enforces the contract dynamically, restricting the
input view to declared reads and rejecting undeclared writes.
*/
package graph

import (
	"fmt"
	"log/slog"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/summarize"
	"github.com/aretw0/espalier/pkg/supervisor"
	"github.com/aretw0/espalier/pkg/validator"
)

// Virtual graph endpoints.
const (
	Start = "__start__"
	End   = "__end__"
)

// Builder compiles registries into graphs.
type Builder struct {
	entry         string
	llm           ports.LLM
	terminalTypes []string
	knownServices []string
	strict        bool
	logger        *slog.Logger
	summarizer    *summarize.Summarizer
}

// Option configures the Builder.
type Option func(*Builder)

// WithEntrySupervisor sets the decision point wired to START (default "main").
func WithEntrySupervisor(name string) Option {
	return func(b *Builder) { b.entry = name }
}

// WithLLM threads an LLM into every supervisor.
func WithLLM(llm ports.LLM) Option {
	return func(b *Builder) { b.llm = llm }
}

// WithTerminalResponseTypes overrides the terminal-state set.
func WithTerminalResponseTypes(types ...string) Option {
	return func(b *Builder) { b.terminalTypes = types }
}

// WithKnownServices enables service validation against the given set.
func WithKnownServices(services ...string) Option {
	return func(b *Builder) { b.knownServices = services }
}

// WithStrict promotes validation warnings to build failures.
func WithStrict() Option {
	return func(b *Builder) { b.strict = true }
}

// WithLogger sets a structured logger shared by the compiled components.
func WithLogger(logger *slog.Logger) Option {
	return func(b *Builder) { b.logger = logger }
}

// WithSummarizer replaces the prompt summarizer used by supervisors.
func WithSummarizer(sum *summarize.Summarizer) Option {
	return func(b *Builder) { b.summarizer = sum }
}

// Build validates the registry and compiles it. The registry must not be
// mutated afterwards; the compiled graph is immutable and safe for
// concurrent executions.
func Build(reg *registry.Registry, opts ...Option) (*Graph, error) {
	b := &Builder{
		entry:  "main",
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(b)
	}

	var vopts []validator.Option
	if b.knownServices != nil {
		vopts = append(vopts, validator.WithKnownServices(b.knownServices...))
	}
	result := validator.New(reg, vopts...).Validate()
	if result.HasErrors() {
		return nil, fmt.Errorf("contract validation failed:\n%s", result)
	}
	if b.strict && result.HasWarnings() {
		return nil, fmt.Errorf("contract validation failed (strict mode):\n%s", result)
	}
	for _, w := range result.Warnings {
		b.logger.Warn("contract validation", "warning", w)
	}
	for _, i := range result.Info {
		b.logger.Info("contract validation", "info", i)
	}

	supers := reg.Supervisors()
	if len(supers) == 0 {
		return nil, fmt.Errorf("no supervisors referenced by registered contracts")
	}
	if !containsString(supers, b.entry) {
		return nil, fmt.Errorf("entry supervisor %q owns no nodes", b.entry)
	}

	g := &Graph{
		entry:       b.entry,
		reg:         reg,
		supervisors: make(map[string]*supervisor.Supervisor, len(supers)),
		nodes:       make(map[string]*compiledNode),
		validation:  result,
	}

	for _, name := range supers {
		sopts := []supervisor.Option{supervisor.WithLogger(b.logger)}
		if b.llm != nil {
			sopts = append(sopts, supervisor.WithLLM(b.llm))
		}
		if b.terminalTypes != nil {
			sopts = append(sopts, supervisor.WithTerminalResponseTypes(b.terminalTypes...))
		}
		if b.summarizer != nil {
			sopts = append(sopts, supervisor.WithSummarizer(b.summarizer))
		}
		g.supervisors[name] = supervisor.New(name, reg, sopts...)
	}

	for _, name := range reg.Names() {
		entry, _ := reg.Get(name)
		if entry.Contract.RequiresLLM && b.llm == nil {
			b.logger.Warn("node requires llm but none configured", "node", name)
		}
		g.nodes[name] = newCompiledNode(entry, b.logger)
	}

	return g, nil
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
