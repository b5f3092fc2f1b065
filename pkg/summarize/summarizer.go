/*
Package summarize renders arbitrarily nested state values as compact strings
for LLM prompt context, limiting depth, item counts and string lengths so a
large slice never blows the token budget.
*/
package summarize

import (
	"fmt"
	"sort"
	"strings"
)

// Summarizer produces bounded, human-readable summaries of state values.
// The zero value is not usable; call New.
type Summarizer struct {
	maxDepth     int
	maxMapItems  int
	maxListItems int
	maxStrLen    int
}

// Option configures the Summarizer.
type Option func(*Summarizer)

// WithMaxDepth limits recursion depth (0 = keys/counts only at top level).
func WithMaxDepth(n int) Option { return func(s *Summarizer) { s.maxDepth = n } }

// WithMaxMapItems limits map entries shown per level.
func WithMaxMapItems(n int) Option { return func(s *Summarizer) { s.maxMapItems = n } }

// WithMaxListItems limits list items shown per level.
func WithMaxListItems(n int) Option { return func(s *Summarizer) { s.maxListItems = n } }

// WithMaxStringLen limits string length before truncation.
func WithMaxStringLen(n int) Option { return func(s *Summarizer) { s.maxStrLen = n } }

// New creates a summarizer with the default limits.
func New(opts ...Option) *Summarizer {
	s := &Summarizer{
		maxDepth:     5,
		maxMapItems:  5,
		maxListItems: 5,
		maxStrLen:    400,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Summarize renders a value within the configured limits.
func (s *Summarizer) Summarize(v any) string {
	return s.value(v, 0)
}

func (s *Summarizer) value(v any, depth int) string {
	switch t := v.(type) {
	case nil:
		return "null"
	case bool:
		return fmt.Sprintf("%t", t)
	case string:
		return s.str(t)
	case map[string]any:
		return s.mapping(t, depth)
	case []any:
		return s.list(t, depth)
	default:
		out := fmt.Sprintf("%v", t)
		if len(out) > s.maxStrLen {
			return out[:s.maxStrLen] + "..."
		}
		return out
	}
}

func (s *Summarizer) str(v string) string {
	if len(v) <= s.maxStrLen {
		return fmt.Sprintf("%q", v)
	}
	return fmt.Sprintf("%q...", v[:s.maxStrLen])
}

func (s *Summarizer) mapping(m map[string]any, depth int) string {
	if len(m) == 0 {
		return "{}"
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	total := len(keys)
	shown := keys
	if total > s.maxMapItems {
		shown = keys[:s.maxMapItems]
	}

	// At max depth show keys only, no values.
	var parts []string
	for _, k := range shown {
		if depth >= s.maxDepth {
			parts = append(parts, fmt.Sprintf("%q", k))
		} else {
			parts = append(parts, fmt.Sprintf("%q: %s", k, s.value(m[k], depth+1)))
		}
	}

	body := strings.Join(parts, ", ")
	if total > s.maxMapItems {
		return fmt.Sprintf("{%s, ...} (%d items)", body, total)
	}
	if depth >= s.maxDepth {
		return fmt.Sprintf("{%s} (%d items)", body, total)
	}
	return fmt.Sprintf("{%s}", body)
}

func (s *Summarizer) list(l []any, depth int) string {
	if len(l) == 0 {
		return "[]"
	}

	total := len(l)
	if depth >= s.maxDepth && total > s.maxListItems {
		return fmt.Sprintf("[...] (%d items)", total)
	}

	n := total
	if n > s.maxListItems {
		n = s.maxListItems
	}
	parts := make([]string, 0, n)
	for _, item := range l[:n] {
		parts = append(parts, s.value(item, depth+1))
	}

	body := strings.Join(parts, ", ")
	if total > s.maxListItems {
		return fmt.Sprintf("[%s, ...] (%d items)", body, total)
	}
	return fmt.Sprintf("[%s]", body)
}
