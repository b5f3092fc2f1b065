/*
Package supervisor implements the routing decision engine.

Each supervisor owns a roster of nodes and, once per turn, decides which of
them runs next. A decision passes through up to five phases:

 1. Terminal check: a terminal response type ends the turn immediately.
 2. Explicit routing: answers to a pending question return to its owner.
 3. Rule evaluation: trigger conditions produce an ordered candidate set.
 4. LLM decision: an optional LLM picks among the offered candidates.
 5. Fallback: the top rule candidate, or failure when nothing matched.

The engine is deterministic without an LLM and never trusts an LLM answer
outside the offered set.
*/
package supervisor

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/summarize"
)

// DefaultTerminalResponseTypes end the turn loop unless overridden.
var DefaultTerminalResponseTypes = []string{"question", "completed", "error"}

// Supervisor decides which owned node runs next.
type Supervisor struct {
	name          string
	reg           *registry.Registry
	llm           ports.LLM
	terminalTypes map[string]struct{}
	summarizer    *summarize.Summarizer
	logger        *slog.Logger
}

// Option configures a Supervisor.
type Option func(*Supervisor)

// WithLLM enables LLM-assisted disambiguation.
func WithLLM(llm ports.LLM) Option {
	return func(s *Supervisor) { s.llm = llm }
}

// WithTerminalResponseTypes replaces the terminal-state set.
func WithTerminalResponseTypes(types ...string) Option {
	return func(s *Supervisor) {
		s.terminalTypes = make(map[string]struct{}, len(types))
		for _, t := range types {
			s.terminalTypes[t] = struct{}{}
		}
	}
}

// WithLogger sets a structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Supervisor) { s.logger = logger }
}

// WithSummarizer replaces the prompt summarizer.
func WithSummarizer(sum *summarize.Summarizer) Option {
	return func(s *Supervisor) { s.summarizer = sum }
}

// New creates a supervisor for the named decision point.
func New(name string, reg *registry.Registry, opts ...Option) *Supervisor {
	s := &Supervisor{
		name:       name,
		reg:        reg,
		summarizer: summarize.New(summarize.WithMaxDepth(2), summarize.WithMaxMapItems(5)),
		logger:     logging.NewNop(),
	}
	WithTerminalResponseTypes(DefaultTerminalResponseTypes...)(s)
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("supervisor", name)
	return s
}

// Name returns the supervisor's decision point name.
func (s *Supervisor) Name() string { return s.name }

// Decide runs the decision phases against the current state. A nil error
// guarantees a usable decision; the only error is a wrapped
// domain.ErrNoCandidate, which the caller surfaces as a terminal failure
// (the supervisor itself never retries).
func (s *Supervisor) Decide(ctx context.Context, state domain.State) (*domain.Decision, error) {
	// Phase 1: terminal check. Idempotent: re-checking an already-terminal
	// state yields the same decision with no side effects.
	respType, _ := domain.NewAccessor[string](domain.SliceResponse, domain.FieldResponseType).Get(state)
	if _, terminal := s.terminalTypes[respType]; terminal {
		return &domain.Decision{
			Supervisor: s.name,
			Type:       domain.DecisionTerminal,
			Reasoning:  fmt.Sprintf("response_type %q is terminal", respType),
		}, nil
	}

	// Phase 2: explicit routing back to the pending question's owner.
	action, _ := domain.NewAccessor[string](domain.SliceRequest, domain.FieldAction).Get(state)
	owner, _ := domain.NewAccessor[string](domain.SliceInternal, domain.FieldPendingQuestion).Get(state)
	if action == domain.ActionAnswer && owner != "" && s.owns(owner) {
		return &domain.Decision{
			Supervisor: s.name,
			Type:       domain.DecisionExplicit,
			NextNode:   owner,
			Reasoning:  fmt.Sprintf("answer routed to question owner %q", owner),
		}, nil
	}

	// Phase 3: rule evaluation.
	candidates := s.Candidates(state)

	// Phase 4: LLM decision. With no rule matches the full owned roster is
	// offered instead.
	if s.llm != nil {
		offered := candidates
		if len(offered) == 0 {
			offered = s.fullRoster()
		}
		if len(offered) > 0 {
			if choice, err := s.decideWithLLM(ctx, state, offered); err == nil {
				return &domain.Decision{
					Supervisor: s.name,
					Type:       domain.DecisionLLM,
					NextNode:   choice,
					Reasoning:  "llm selection",
					Candidates: offered,
				}, nil
			} else {
				s.logger.Warn("llm decision failed, falling back to rules", "err", err)
			}
		}
	}

	// Phase 5: fallback to the top rule candidate.
	if len(candidates) > 0 {
		decType := domain.DecisionRule
		reasoning := candidates[0].Reason
		if s.llm != nil {
			decType = domain.DecisionFallback
			reasoning = "rule fallback: " + candidates[0].Reason
		}
		return &domain.Decision{
			Supervisor: s.name,
			Type:       decType,
			NextNode:   candidates[0].Name,
			Reasoning:  reasoning,
			Candidates: candidates,
		}, nil
	}

	return nil, fmt.Errorf("supervisor %q: %w", s.name, domain.ErrNoCandidate)
}

// Candidates evaluates every owned node's trigger conditions and returns the
// matches ordered by (priority desc, registration order asc).
func (s *Supervisor) Candidates(state domain.State) []domain.Candidate {
	var out []domain.Candidate
	for _, c := range s.reg.NodesForSupervisor(s.name) {
		priority, reason, ok := c.Match(state)
		if !ok {
			continue
		}
		out = append(out, domain.Candidate{
			Name:     c.Name,
			Priority: priority,
			Reason:   reason,
			Hint:     strings.Join(c.LLMHints(), "; "),
		})
	}
	// Stable sort preserves registration order among equal priorities.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Priority > out[j].Priority
	})
	return out
}

func (s *Supervisor) fullRoster() []domain.Candidate {
	var out []domain.Candidate
	for _, c := range s.reg.NodesForSupervisor(s.name) {
		out = append(out, domain.Candidate{
			Name:   c.Name,
			Reason: "no rule matched; offered for llm selection",
			Hint:   strings.Join(c.LLMHints(), "; "),
		})
	}
	return out
}

func (s *Supervisor) owns(node string) bool {
	c, ok := s.reg.Contract(node)
	return ok && c.Supervisor == s.name
}

func (s *Supervisor) decideWithLLM(ctx context.Context, state domain.State, offered []domain.Candidate) (string, error) {
	prompt, err := s.buildPrompt(state, offered)
	if err != nil {
		return "", err
	}

	reply, err := s.llm.Invoke(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("llm invoke: %w", err)
	}

	choice := parseChoice(reply)
	for _, c := range offered {
		if c.Name == choice {
			return choice, nil
		}
	}

	names := make([]string, len(offered))
	for i, c := range offered {
		names[i] = c.Name
	}
	return "", &domain.InvalidLLMChoiceError{Supervisor: s.name, Choice: choice, Offered: names}
}

// parseChoice normalizes an LLM reply down to a bare node name: the first
// non-empty line, stripped of quotes, backticks and emphasis markers.
func parseChoice(reply string) string {
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		line = strings.Trim(line, "`'\"*- ")
		if line != "" {
			return line
		}
	}
	return ""
}
