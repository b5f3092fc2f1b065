package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// NodeInputs is the read-only view a node receives: only the slices its
// contract declares in reads are present, even if more exist in state.
type NodeInputs struct {
	state domain.State
}

// NewNodeInputs wraps an already-restricted state view.
func NewNodeInputs(view domain.State) NodeInputs {
	return NodeInputs{state: view}
}

// Slice returns a declared-read slice (empty if the node never wrote it).
func (in NodeInputs) Slice(name string) domain.Slice {
	return in.state.Get(name)
}

// Decode unmarshals a declared-read slice into a typed struct.
func (in NodeInputs) Decode(name string, out any) error {
	return domain.DecodeSlice(in.state, name, out)
}

// Lookup resolves a dotted path within the visible slices.
func (in NodeInputs) Lookup(path string) (any, bool) {
	return in.state.Lookup(path)
}

// RequestParam reads request.params[key], falling back to def.
func (in NodeInputs) RequestParam(key string, def any) any {
	params, ok := in.state.Get(domain.SliceRequest)[domain.FieldParams].(map[string]any)
	if !ok {
		return def
	}
	if v, ok := params[key]; ok {
		return v
	}
	return def
}

// NodeOutputs is a partial state update: slice name to new content. Every
// key must appear in the node's declared writes; the compiled wrapper
// rejects anything else with a ContractViolationError.
type NodeOutputs map[string]domain.Slice

// ErrorOutput builds the conventional error-shaped response slice.
func ErrorOutput(message, code string) NodeOutputs {
	return NodeOutputs{
		domain.SliceResponse: domain.Slice{
			domain.FieldResponseType: domain.ResponseTypeError,
			domain.FieldResponseData: map[string]any{"message": message, "code": code},
		},
	}
}

// Node is the minimal capability every processing unit implements.
type Node interface {
	Execute(ctx context.Context, in NodeInputs) (NodeOutputs, error)
}

// NodeFunc adapts a plain function to the Node interface.
type NodeFunc func(ctx context.Context, in NodeInputs) (NodeOutputs, error)

// Execute implements Node.
func (f NodeFunc) Execute(ctx context.Context, in NodeInputs) (NodeOutputs, error) {
	return f(ctx, in)
}

// Interactive is the optional extended capability for conversational nodes.
// When a registered implementation also satisfies this interface, the
// compiled wrapper drives it through a fixed lifecycle instead of calling
// Execute directly:
//
//	view := PrepareContext(in)
//	ProcessAnswer(view, in)        // only when answering a pending question
//	if CheckCompletion(view, in)   // done: completion output, question cleared
//	else GenerateQuestion(view, in) // ask: output + question ownership recorded
//
// Question ownership is framework bookkeeping (_internal); implementations
// never write it themselves.
type Interactive interface {
	Node

	// PrepareContext converts the raw inputs into a working view (typically
	// a typed struct decoded from a slice).
	PrepareContext(in NodeInputs) (any, error)

	// CheckCompletion reports whether the node has everything it needs.
	CheckCompletion(view any, in NodeInputs) bool

	// ProcessAnswer consumes the user's answer to the previous question.
	// It returns true when the answer advanced the state.
	ProcessAnswer(ctx context.Context, view any, in NodeInputs) (bool, error)

	// GenerateQuestion produces the next question output.
	GenerateQuestion(ctx context.Context, view any, in NodeInputs) (NodeOutputs, error)
}

// CompletionProvider optionally customizes the output an Interactive node
// emits once CheckCompletion reports true. Without it the completion output
// is empty and only the framework bookkeeping changes.
type CompletionProvider interface {
	CompletionOutput(ctx context.Context, view any, in NodeInputs) (NodeOutputs, error)
}
