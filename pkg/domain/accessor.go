package domain

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Accessor is a typed, immutable handle to one field inside one slice.
// Get never allocates; Set copies the target slice and the top-level map,
// leaving every other slice reference-identical.
type Accessor[T any] struct {
	slice string
	field string
}

// NewAccessor builds an accessor for slice.field.
func NewAccessor[T any](slice, field string) Accessor[T] {
	return Accessor[T]{slice: slice, field: field}
}

// Get reads the field. The second return is false when the field is absent
// or holds a different type.
func (a Accessor[T]) Get(s State) (T, bool) {
	var zero T
	sl, ok := s[a.slice]
	if !ok {
		return zero, false
	}
	raw, ok := sl[a.field]
	if !ok {
		return zero, false
	}
	v, ok := raw.(T)
	if !ok {
		return zero, false
	}
	return v, true
}

// GetOr reads the field, falling back to def.
func (a Accessor[T]) GetOr(s State, def T) T {
	if v, ok := a.Get(s); ok {
		return v
	}
	return def
}

// Set returns a new state with the field replaced. The input state is not
// mutated.
func (a Accessor[T]) Set(s State, v T) State {
	old := s.Get(a.slice)
	next := make(Slice, len(old)+1)
	for k, val := range old {
		next[k] = val
	}
	next[a.field] = v
	return s.WithSlice(a.slice, next)
}

// DecodeSlice decodes a whole slice into a typed struct. Field mapping
// honors `json` tags so DTOs can be reused for wire serialization.
func DecodeSlice(s State, name string, out any) error {
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		Result:           out,
	})
	if err != nil {
		return fmt.Errorf("decoder for slice %q: %w", name, err)
	}
	if err := dec.Decode(s.Get(name)); err != nil {
		return fmt.Errorf("decode slice %q: %w", name, err)
	}
	return nil
}
