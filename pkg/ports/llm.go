package ports

import "context"

// LLM is the opaque text-completion capability used by the supervisor for
// disambiguation. Retry, rate limiting and request shaping are the client's
// concern; the engine only requires that the call honors ctx cancellation
// and returns either text or an error.
type LLM interface {
	Invoke(ctx context.Context, prompt string) (string, error)
}

// LLMFunc adapts a plain function to the LLM interface.
type LLMFunc func(ctx context.Context, prompt string) (string, error)

// Invoke implements LLM.
func (f LLMFunc) Invoke(ctx context.Context, prompt string) (string, error) {
	return f(ctx, prompt)
}
