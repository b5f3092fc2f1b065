package espalier

import (
	"context"
	"log/slog"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/adapters/redis"
	"github.com/aretw0/espalier/pkg/config"
	"github.com/aretw0/espalier/pkg/contract"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/graph"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/runtime"
	"github.com/aretw0/espalier/pkg/session"
	"github.com/aretw0/espalier/pkg/validator"
)

// Version of the library.
const Version = "0.1.0"

// Engine is the high-level entry point: a validated registry compiled into
// a decision graph plus the runtime that drives it.
type Engine struct {
	registry *registry.Registry
	graph    *graph.Graph
	runtime  *runtime.Runtime
	logger   *slog.Logger
}

type engineOptions struct {
	cfg          config.Config
	llm          ports.LLM
	store        ports.StateStore
	sessionOpts  []session.Option
	hooks        ports.Hooks
	lifecycle    domain.LifecycleHooks
	hasLifecycle bool
	strict       bool
	logger       *slog.Logger
}

// Option defines a functional option for configuring the Engine.
type Option func(*engineOptions)

// WithConfig applies a loaded framework configuration.
func WithConfig(cfg config.Config) Option {
	return func(o *engineOptions) { o.cfg = cfg }
}

// WithLLM enables LLM-assisted routing disambiguation.
func WithLLM(llm ports.LLM) Option {
	return func(o *engineOptions) { o.llm = llm }
}

// WithSessionStore enables durable sessions.
func WithSessionStore(store ports.StateStore, opts ...session.Option) Option {
	return func(o *engineOptions) {
		o.store = store
		o.sessionOpts = opts
	}
}

// WithHooks installs the pre/post execution customization points.
func WithHooks(h ports.Hooks) Option {
	return func(o *engineOptions) { o.hooks = h }
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(o *engineOptions) {
		o.lifecycle = h
		o.hasLifecycle = true
	}
}

// WithStrict promotes contract validation warnings to build failures.
func WithStrict() Option {
	return func(o *engineOptions) { o.strict = true }
}

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(o *engineOptions) { o.logger = logger }
}

// New validates the registry, compiles the decision graph and wires the
// runtime. The registry must not be mutated afterwards.
func New(reg *registry.Registry, opts ...Option) (*Engine, error) {
	o := &engineOptions{
		cfg:    config.Default(),
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(o)
	}

	gopts := []graph.Option{
		graph.WithEntrySupervisor(o.cfg.Supervisor.Entry),
		graph.WithLogger(o.logger),
	}
	if o.cfg.Supervisor.TerminalResponseTypes != nil {
		gopts = append(gopts, graph.WithTerminalResponseTypes(o.cfg.Supervisor.TerminalResponseTypes...))
	}
	if o.cfg.Services != nil {
		gopts = append(gopts, graph.WithKnownServices(o.cfg.Services...))
	}
	if o.llm != nil {
		gopts = append(gopts, graph.WithLLM(o.llm))
	}
	if o.strict {
		gopts = append(gopts, graph.WithStrict())
	}

	g, err := graph.Build(reg, gopts...)
	if err != nil {
		return nil, err
	}

	ropts := []runtime.Option{
		runtime.WithMaxIterations(o.cfg.Supervisor.MaxIterations),
		runtime.WithLogger(o.logger),
	}
	if o.store == nil {
		o.store = storeFromConfig(o.cfg.Session)
	}
	if o.store != nil {
		ropts = append(ropts, runtime.WithSessionStore(o.store, o.sessionOpts...))
	}
	if o.hooks != nil {
		ropts = append(ropts, runtime.WithHooks(o.hooks))
	}
	if o.hasLifecycle {
		ropts = append(ropts, runtime.WithLifecycleHooks(o.lifecycle))
	}

	return &Engine{
		registry: reg,
		graph:    g,
		runtime:  runtime.New(g, ropts...),
		logger:   o.logger,
	}, nil
}

// storeFromConfig builds the configured session backend. An explicit
// WithSessionStore always wins over configuration.
func storeFromConfig(sc config.SessionConfig) ports.StateStore {
	switch sc.Backend {
	case "redis":
		var ropts []redis.Option
		if sc.Prefix != "" {
			ropts = append(ropts, redis.WithPrefix(sc.Prefix))
		}
		if sc.TTL > 0 {
			ropts = append(ropts, redis.WithTTL(sc.TTL.Std()))
		}
		return redis.New(sc.Addr, sc.Password, sc.DB, ropts...)
	case "", "memory":
		return memory.NewStore()
	default:
		return nil
	}
}

// Execute runs one full turn sequence and returns its result.
func (e *Engine) Execute(ctx context.Context, req domain.Request) (*domain.ExecutionResult, error) {
	return e.runtime.Execute(ctx, req)
}

// ExecuteStream runs the same loop but emits one event per node boundary.
// See runtime.Runtime.ExecuteStream for the cancellation contract.
func (e *Engine) ExecuteStream(ctx context.Context, req domain.Request) <-chan domain.Event {
	return e.runtime.ExecuteStream(ctx, req)
}

// Validation returns the findings recorded when the graph was built.
func (e *Engine) Validation() validator.Result {
	return e.graph.Validation()
}

// Contracts returns every compiled contract in registration order, for
// introspection and visualization tooling.
func (e *Engine) Contracts() []contract.NodeContract {
	return e.graph.Contracts()
}

// Graph returns the compiled decision graph.
func (e *Engine) Graph() *graph.Graph {
	return e.graph
}
