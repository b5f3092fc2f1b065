package domain

import (
	"sort"
	"strings"
)

// Built-in slice names. Every registry starts with these three; applications
// extend the set via Registry.AddValidSlice.
const (
	SliceRequest  = "request"
	SliceResponse = "response"
	SliceInternal = "_internal"
)

// Well-known field names inside the built-in slices.
const (
	FieldAction          = "action"
	FieldMessage         = "message"
	FieldParams          = "params"
	FieldResponseType    = "response_type"
	FieldResponseData    = "response_data"
	FieldError           = "error"
	FieldDecision        = "decision"
	FieldTurnCount       = "turn_count"
	FieldPendingQuestion = "pending_question_node"
)

// ActionAnswer marks an inbound request as the answer to a pending question.
// The supervisor routes it straight back to the node that asked.
const ActionAnswer = "answer"

// Slice is one named sub-document of the state.
type Slice = map[string]any

// State maps slice names to their content. It is never mutated in place:
// WithSlice and Merge return new top-level maps sharing untouched slices.
type State map[string]Slice

// NewState creates a state seeded with empty built-in slices.
func NewState() State {
	return State{
		SliceRequest:  Slice{},
		SliceResponse: Slice{},
		SliceInternal: Slice{},
	}
}

// Get returns the named slice, or an empty one if absent. The returned map
// must be treated as read-only.
func (s State) Get(name string) Slice {
	if sl, ok := s[name]; ok && sl != nil {
		return sl
	}
	return Slice{}
}

// WithSlice returns a new state where the named slice is replaced. All other
// slices are shared with the receiver.
func (s State) WithSlice(name string, data Slice) State {
	next := make(State, len(s)+1)
	for k, v := range s {
		next[k] = v
	}
	next[name] = data
	return next
}

// Merge returns a new state with every given slice replaced. Replacement is
// whole-slice (last write wins); no field-level reconciliation is attempted.
func (s State) Merge(updates map[string]Slice) State {
	if len(updates) == 0 {
		return s
	}
	next := make(State, len(s)+len(updates))
	for k, v := range s {
		next[k] = v
	}
	for k, v := range updates {
		next[k] = v
	}
	return next
}

// View returns a state containing only the named slices. Nodes receive a
// view restricted to their declared reads.
func (s State) View(names []string) State {
	view := make(State, len(names))
	for _, name := range names {
		view[name] = s.Get(name)
	}
	return view
}

// Lookup resolves a dotted path ("slice.field.nested") against the state.
// A bare key with no dot is searched across all slices in name order, which
// keeps flat-key conditions deterministic. The second return reports whether
// the path resolved to a value.
func (s State) Lookup(path string) (any, bool) {
	if strings.Contains(path, ".") {
		parts := strings.Split(path, ".")
		sl, ok := s[parts[0]]
		if !ok {
			return nil, false
		}
		return lookupIn(sl, parts[1:])
	}

	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if v, ok := s[name][path]; ok {
			return v, true
		}
	}
	return nil, false
}

func lookupIn(m map[string]any, parts []string) (any, bool) {
	var current any = m
	for _, part := range parts {
		node, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = node[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}
