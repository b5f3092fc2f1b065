package contract

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// NodeContract is the declarative description of a node: its identity, the
// state slices it touches, the capabilities it needs and the rules that make
// it a routing candidate.
type NodeContract struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// I/O declaration. Every slice named here must be registered.
	Reads  []string `json:"reads,omitempty" yaml:"reads,omitempty"`
	Writes []string `json:"writes,omitempty" yaml:"writes,omitempty"`

	// Dependency declaration.
	RequiresLLM bool     `json:"requires_llm,omitempty" yaml:"requires_llm,omitempty"`
	Services    []string `json:"services,omitempty" yaml:"services,omitempty"`

	// Routing metadata.
	Supervisor        string             `json:"supervisor" yaml:"supervisor"`
	TriggerConditions []TriggerCondition `json:"trigger_conditions,omitempty" yaml:"trigger_conditions,omitempty"`

	// Terminal nodes end the turn sequence instead of returning to their
	// supervisor.
	Terminal bool `json:"is_terminal,omitempty" yaml:"is_terminal,omitempty"`
}

// TriggerCondition is one prioritized routing rule. A condition with no
// when/when_not entries matches unconditionally (catch-all).
type TriggerCondition struct {
	Priority int `json:"priority,omitempty" yaml:"priority,omitempty"`

	// When maps dotted slice paths to expected values; entries are ANDed.
	// A missing path never matches.
	When map[string]any `json:"when,omitempty" yaml:"when,omitempty"`

	// WhenNot is the negated form; a missing path always satisfies it.
	WhenNot map[string]any `json:"when_not,omitempty" yaml:"when_not,omitempty"`

	// LLMHint is free text shown to the LLM when this node is a candidate.
	LLMHint string `json:"llm_hint,omitempty" yaml:"llm_hint,omitempty"`
}

// Match evaluates the condition against the state. When it matches, the
// returned reason names the concrete entries that held, e.g.
// "request.action=search".
func (c TriggerCondition) Match(state domain.State) (string, bool) {
	var reasons []string

	for _, key := range sortedKeys(c.When) {
		expected := c.When[key]
		actual, ok := state.Lookup(key)
		if !ok || !matchesExpected(actual, expected) {
			return "", false
		}
		reasons = append(reasons, fmt.Sprintf("%s=%v", key, expected))
	}

	for _, key := range sortedKeys(c.WhenNot) {
		unexpected := c.WhenNot[key]
		actual, ok := state.Lookup(key)
		if ok && matchesExpected(actual, unexpected) {
			return "", false
		}
		reasons = append(reasons, fmt.Sprintf("%s!=%v", key, unexpected))
	}

	if len(reasons) == 0 {
		return "catch-all", true
	}
	return "matched because " + strings.Join(reasons, ", "), true
}

// Match returns the highest-priority matching condition for this contract.
// The bool reports whether the node is a candidate at all.
func (nc NodeContract) Match(state domain.State) (priority int, reason string, ok bool) {
	best := false
	for _, cond := range nc.TriggerConditions {
		r, matched := cond.Match(state)
		if !matched {
			continue
		}
		if !best || cond.Priority > priority {
			priority, reason, best = cond.Priority, r, true
		}
	}
	return priority, reason, best
}

// LLMHints collects the non-empty hints across all conditions.
func (nc NodeContract) LLMHints() []string {
	var hints []string
	for _, cond := range nc.TriggerConditions {
		if cond.LLMHint != "" {
			hints = append(hints, cond.LLMHint)
		}
	}
	return hints
}

// ReadsSlice reports whether the contract declares the slice in reads.
func (nc NodeContract) ReadsSlice(name string) bool { return contains(nc.Reads, name) }

// WritesSlice reports whether the contract declares the slice in writes.
func (nc NodeContract) WritesSlice(name string) bool { return contains(nc.Writes, name) }

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// matchesExpected implements the structural-equality rules for rule values:
// boolean expectations compare truthiness, numbers compare by value across
// int/float representations, everything else is deep equality.
func matchesExpected(actual, expected any) bool {
	if b, ok := expected.(bool); ok {
		return truthy(actual) == b
	}
	if ef, eok := asFloat(expected); eok {
		af, aok := asFloat(actual)
		return aok && af == ef
	}
	return reflect.DeepEqual(actual, expected)
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case map[string]any:
		return len(t) > 0
	case []any:
		return len(t) > 0
	default:
		if f, ok := asFloat(v); ok {
			return f != 0
		}
		return true
	}
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	default:
		return 0, false
	}
}
