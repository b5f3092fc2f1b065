package summarize_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aretw0/espalier/pkg/summarize"
)

func TestScalars(t *testing.T) {
	s := summarize.New()
	assert.Equal(t, "null", s.Summarize(nil))
	assert.Equal(t, "true", s.Summarize(true))
	assert.Equal(t, "42", s.Summarize(42))
	assert.Equal(t, `"hello"`, s.Summarize("hello"))
}

func TestLongStringTruncated(t *testing.T) {
	s := summarize.New(summarize.WithMaxStringLen(5))
	out := s.Summarize("abcdefghij")
	assert.Equal(t, `"abcde"...`, out)
}

func TestMapLimitsItems(t *testing.T) {
	s := summarize.New(summarize.WithMaxMapItems(2))
	out := s.Summarize(map[string]any{
		"a": 1, "b": 2, "c": 3, "d": 4,
	})
	// Keys render in sorted order; the overflow is annotated with the total.
	assert.Equal(t, `{"a": 1, "b": 2, ...} (4 items)`, out)
}

func TestListLimitsItems(t *testing.T) {
	s := summarize.New(summarize.WithMaxListItems(2))
	out := s.Summarize([]any{"x", "y", "z"})
	assert.Equal(t, `["x", "y", ...] (3 items)`, out)
}

func TestDepthLimitShowsKeysOnly(t *testing.T) {
	s := summarize.New(summarize.WithMaxDepth(1))
	out := s.Summarize(map[string]any{
		"outer": map[string]any{
			"inner": map[string]any{"deep": "value"},
		},
	})
	// Depth 1 renders the nested map as keys only, never its values.
	assert.Contains(t, out, `"inner"`)
	assert.NotContains(t, out, "deep")
	assert.NotContains(t, out, "value")
}

func TestEmptyContainers(t *testing.T) {
	s := summarize.New()
	assert.Equal(t, "{}", s.Summarize(map[string]any{}))
	assert.Equal(t, "[]", s.Summarize([]any{}))
}

func TestNestedWithinLimits(t *testing.T) {
	s := summarize.New()
	out := s.Summarize(map[string]any{
		"history": []any{
			map[string]any{"role": "user", "content": "hi"},
		},
	})
	assert.Equal(t, `{"history": [{"content": "hi", "role": "user"}]}`, out)
	assert.False(t, strings.Contains(out, "items"), "no annotation under the limits")
}
