package domain

import (
	"errors"
	"fmt"
	"strings"
)

// ErrDuplicateNode is returned when registering a contract whose name is taken.
var ErrDuplicateNode = errors.New("node already registered")

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrNoCandidate is returned when no trigger condition matched and no LLM
// (or a failed LLM) was available to disambiguate.
var ErrNoCandidate = errors.New("no routing candidate matched")

// ErrIterationLimit is the loop safety valve: the runtime refuses to run
// more node turns than configured.
var ErrIterationLimit = errors.New("iteration limit exceeded")

// ContractViolationError reports a node writing a slice it did not declare.
// The offending output is rejected before it touches the state.
type ContractViolationError struct {
	Node  string
	Slice string
}

func (e *ContractViolationError) Error() string {
	return fmt.Sprintf("node %q wrote undeclared slice %q", e.Node, e.Slice)
}

// InvalidLLMChoiceError reports an LLM answer naming a node outside the
// offered set. It is always recovered via rule fallback, never trusted.
type InvalidLLMChoiceError struct {
	Supervisor string
	Choice     string
	Offered    []string
}

func (e *InvalidLLMChoiceError) Error() string {
	return fmt.Sprintf("supervisor %q: llm chose %q, offered [%s]",
		e.Supervisor, e.Choice, strings.Join(e.Offered, ", "))
}

// NodeError wraps a failure raised by a node implementation mid-turn.
type NodeError struct {
	Node string
	Err  error
}

func (e *NodeError) Error() string {
	return fmt.Sprintf("node %q failed: %v", e.Node, e.Err)
}

func (e *NodeError) Unwrap() error { return e.Err }
