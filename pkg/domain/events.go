package domain

import (
	"context"
	"time"
)

// EventType defines the category of a runtime event.
type EventType string

const (
	EventDecision  EventType = "decision"
	EventNodeStart EventType = "node_start"
	EventNodeEnd   EventType = "node_end"
	EventResult    EventType = "result"
)

// Event is one entry of the streaming execution feed, emitted in strict
// execution order.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id,omitempty"`

	// Node boundary events.
	Node     string `json:"node,omitempty"`
	NodeErr  string `json:"node_err,omitempty"`
	Duration string `json:"duration,omitempty"`

	// Decision events.
	Decision *Decision `json:"decision,omitempty"`

	// Result events (final).
	Result *ExecutionResult `json:"result,omitempty"`
}

// NodeEvent describes a node boundary for lifecycle hooks.
type NodeEvent struct {
	Timestamp time.Time
	Node      string
	Super     string
	Err       error
	Duration  time.Duration
}

// LifecycleHooks defines optional callbacks for engine observability.
// Nil members are skipped. Callbacks run synchronously inside the turn loop
// and must not block.
type LifecycleHooks struct {
	OnDecision  func(context.Context, *Decision)
	OnNodeStart func(context.Context, *NodeEvent)
	OnNodeEnd   func(context.Context, *NodeEvent)
}

// EmitDecision invokes OnDecision when set.
func (h LifecycleHooks) EmitDecision(ctx context.Context, d *Decision) {
	if h.OnDecision != nil {
		h.OnDecision(ctx, d)
	}
}

// EmitNodeStart invokes OnNodeStart when set.
func (h LifecycleHooks) EmitNodeStart(ctx context.Context, ev *NodeEvent) {
	if h.OnNodeStart != nil {
		h.OnNodeStart(ctx, ev)
	}
}

// EmitNodeEnd invokes OnNodeEnd when set.
func (h LifecycleHooks) EmitNodeEnd(ctx context.Context, ev *NodeEvent) {
	if h.OnNodeEnd != nil {
		h.OnNodeEnd(ctx, ev)
	}
}
