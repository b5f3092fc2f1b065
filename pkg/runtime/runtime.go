/*
Package runtime drives repeated supervisor/node turns through a compiled
graph until a terminal decision or the iteration cap.

Per session the loop is strictly sequential: each decision depends on the
previous node's state output. Different sessions run fully in parallel over
the same immutable graph. Failures of any kind are returned as a well-formed
ExecutionResult; no node or LLM fault escapes the runtime boundary.
*/
package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/graph"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/session"
)

// DefaultMaxIterations caps node invocations per execution.
const DefaultMaxIterations = 10

// Runtime executes requests against a compiled graph.
type Runtime struct {
	graph         *graph.Graph
	sessions      *session.Manager
	hooks         ports.Hooks
	lifecycle     domain.LifecycleHooks
	maxIterations int
	logger        *slog.Logger
}

// Option configures the Runtime.
type Option func(*Runtime)

// WithSessionStore enables durable sessions backed by the store.
func WithSessionStore(store ports.StateStore, opts ...session.Option) Option {
	return func(r *Runtime) { r.sessions = session.NewManager(store, opts...) }
}

// WithHooks installs the pre/post execution customization points.
func WithHooks(h ports.Hooks) Option {
	return func(r *Runtime) { r.hooks = h }
}

// WithLifecycleHooks registers observability callbacks.
func WithLifecycleHooks(h domain.LifecycleHooks) Option {
	return func(r *Runtime) { r.lifecycle = h }
}

// WithMaxIterations overrides the loop safety cap.
func WithMaxIterations(n int) Option {
	return func(r *Runtime) { r.maxIterations = n }
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Runtime) { r.logger = logger }
}

// New creates a runtime over a compiled graph.
func New(g *graph.Graph, opts ...Option) *Runtime {
	r := &Runtime{
		graph:         g,
		hooks:         ports.NopHooks{},
		maxIterations: DefaultMaxIterations,
		logger:        logging.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Execute runs one full turn sequence for the request and returns its
// result. The result is always well-formed; the error return carries the
// routing sentinel (domain.ErrNoCandidate, domain.ErrIterationLimit) when
// the result is error-shaped for one of those reasons.
func (r *Runtime) Execute(ctx context.Context, req domain.Request) (*domain.ExecutionResult, error) {
	if r.sessions != nil && req.SessionID != "" {
		var (
			result *domain.ExecutionResult
			err    error
		)
		lockErr := r.sessions.WithLock(ctx, req.SessionID, func(ctx context.Context) error {
			result, err = r.execute(ctx, req, nil)
			return nil
		})
		if lockErr != nil {
			return domain.ErrorResult("session_lock", lockErr.Error()), lockErr
		}
		return result, err
	}
	return r.execute(ctx, req, nil)
}

// emitFunc delivers one streaming event; returning false stops the loop
// (cooperative cancellation by an abandoned consumer).
type emitFunc func(domain.Event) bool

// execute is the shared turn loop. emit is nil for the single-shot path.
func (r *Runtime) execute(ctx context.Context, req domain.Request, emit emitFunc) (*domain.ExecutionResult, error) {
	state, err := r.prepare(ctx, req)
	if err != nil {
		return r.finish(ctx, req, state, domain.ErrorResult("prepare_failed", err.Error()), err)
	}

	current := r.graph.Entry()
	iterations := 0

	for {
		sup, ok := r.graph.Supervisor(current)
		if !ok {
			err := fmt.Errorf("no decision point %q", current)
			return r.finish(ctx, req, state, domain.ErrorResult("bad_graph", err.Error()), err)
		}

		decision, err := sup.Decide(ctx, state)
		if err != nil {
			// NoCandidate is a terminal error outcome, never retried here.
			r.logger.Warn("routing failed", "supervisor", current, "err", err)
			return r.finish(ctx, req, state, domain.ErrorResult("no_candidate", err.Error()), err)
		}

		state = r.recordDecision(state, decision)
		r.lifecycle.EmitDecision(ctx, decision)
		if emit != nil && !emit(domain.Event{
			Type: domain.EventDecision, Timestamp: time.Now(),
			SessionID: req.SessionID, Decision: decision,
		}) {
			return r.finish(ctx, req, state, domain.ErrorResult("canceled", "consumer stopped"), ctx.Err())
		}

		if decision.Type == domain.DecisionTerminal {
			return r.finish(ctx, req, state, resultFromState(state), nil)
		}

		if iterations >= r.maxIterations {
			err := fmt.Errorf("%w after %d node invocations", domain.ErrIterationLimit, iterations)
			r.logger.Warn("iteration limit reached", "max", r.maxIterations)
			return r.finish(ctx, req, state, domain.ErrorResult("iteration_limit", err.Error()), err)
		}
		iterations++

		state, err = r.runNode(ctx, req, decision.NextNode, current, state, emit)
		if err != nil {
			var violation *domain.ContractViolationError
			if errors.As(err, &violation) {
				// A contract violation is a programming bug; surfacing it
				// beats routing onward with silently dropped writes.
				return r.finish(ctx, req, state, domain.ErrorResult("contract_violation", err.Error()), err)
			}
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return r.finish(ctx, req, state, domain.ErrorResult("canceled", err.Error()), err)
			}
			// Node failures are recorded, not retried; whether the flow
			// halts or reaches an error-handling node is trigger policy.
			state = domain.NewAccessor[string](domain.SliceInternal, domain.FieldError).Set(state, err.Error())
		}

		next := r.graph.ReturnEdge(decision.NextNode)
		if next == graph.End {
			return r.finish(ctx, req, state, resultFromState(state), nil)
		}
		current = next
	}
}

func (r *Runtime) runNode(ctx context.Context, req domain.Request, name, super string, state domain.State, emit emitFunc) (domain.State, error) {
	start := time.Now()
	r.lifecycle.EmitNodeStart(ctx, &domain.NodeEvent{Timestamp: start, Node: name, Super: super})
	if emit != nil && !emit(domain.Event{
		Type: domain.EventNodeStart, Timestamp: start,
		SessionID: req.SessionID, Node: name,
	}) {
		return state, context.Canceled
	}

	next, err := r.graph.RunNode(ctx, name, state)

	elapsed := time.Since(start)
	r.lifecycle.EmitNodeEnd(ctx, &domain.NodeEvent{
		Timestamp: time.Now(), Node: name, Super: super, Err: err, Duration: elapsed,
	})
	if emit != nil {
		ev := domain.Event{
			Type: domain.EventNodeEnd, Timestamp: time.Now(),
			SessionID: req.SessionID, Node: name, Duration: elapsed.String(),
		}
		if err != nil {
			ev.NodeErr = err.Error()
		}
		if !emit(ev) {
			return next, context.Canceled
		}
	}
	if err != nil {
		return state, err
	}

	turns := domain.NewAccessor[int](domain.SliceInternal, domain.FieldTurnCount)
	return turns.Set(next, turns.GetOr(next, 0)+1), nil
}

// prepare loads or creates the state, installs the request slice and runs
// the PrepareState hook.
func (r *Runtime) prepare(ctx context.Context, req domain.Request) (domain.State, error) {
	state := domain.NewState()

	if r.sessions != nil && req.SessionID != "" {
		persisted, err := r.sessions.Store().Load(ctx, req.SessionID)
		switch {
		case err == nil:
			state = persisted
			r.logger.Debug("session resumed", "session_id", req.SessionID)
		case errors.Is(err, domain.ErrSessionNotFound):
			r.logger.Debug("session created", "session_id", req.SessionID)
		default:
			return state, fmt.Errorf("load session %q: %w", req.SessionID, err)
		}
	}

	// A fresh request replaces the inbound slice and clears the previous
	// response; framework bookkeeping (_internal) survives resumption.
	state = state.WithSlice(domain.SliceRequest, req.Slice())
	state = state.WithSlice(domain.SliceResponse, domain.Slice{})

	return r.hooks.PrepareState(ctx, state, req)
}

// finish persists the session, fires AfterExecution exactly once and hands
// back the result.
func (r *Runtime) finish(ctx context.Context, req domain.Request, state domain.State, result *domain.ExecutionResult, err error) (*domain.ExecutionResult, error) {
	if r.sessions != nil && req.SessionID != "" {
		if saveErr := r.sessions.Store().Save(ctx, req.SessionID, state); saveErr != nil {
			r.logger.Warn("session save failed", "session_id", req.SessionID, "err", saveErr)
		}
	}
	if hookErr := r.hooks.AfterExecution(ctx, state, result); hookErr != nil {
		r.logger.Warn("after-execution hook failed", "err", hookErr)
	}
	return result, err
}

// recordDecision writes the per-supervisor trace counters into _internal.
func (r *Runtime) recordDecision(state domain.State, d *domain.Decision) domain.State {
	state = domain.NewAccessor[string](domain.SliceInternal, domain.FieldDecision).Set(state, d.NextNode)
	counter := domain.NewAccessor[int](domain.SliceInternal, d.Supervisor+"_iteration")
	return counter.Set(state, counter.GetOr(state, 0)+1)
}

func resultFromState(state domain.State) *domain.ExecutionResult {
	resp := state.Get(domain.SliceResponse)
	result := &domain.ExecutionResult{}
	if t, ok := resp[domain.FieldResponseType].(string); ok {
		result.ResponseType = t
	}
	if d, ok := resp[domain.FieldResponseData].(map[string]any); ok {
		result.ResponseData = d
	}
	return result
}
