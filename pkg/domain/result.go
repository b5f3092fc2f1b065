package domain

// Request is the inbound user intent for one execution turn sequence.
type Request struct {
	SessionID string         `json:"session_id,omitempty"`
	Action    string         `json:"action"`
	Message   string         `json:"message,omitempty"`
	Params    map[string]any `json:"params,omitempty"`
}

// Slice converts the request into the "request" slice shape.
func (r Request) Slice() Slice {
	sl := Slice{FieldAction: r.Action}
	if r.Message != "" {
		sl[FieldMessage] = r.Message
	}
	if len(r.Params) > 0 {
		sl[FieldParams] = r.Params
	}
	return sl
}

// Standard error response types produced by the runtime itself.
const (
	ResponseTypeError = "error"
)

// ExecutionResult is what the runtime hands back to its caller. Failures are
// delivered as a well-formed result with ResponseType "error"; a raw node or
// LLM fault never crosses the runtime boundary.
type ExecutionResult struct {
	ResponseType string         `json:"response_type"`
	ResponseData map[string]any `json:"response_data,omitempty"`
}

// ErrorResult builds the canonical error-shaped result.
func ErrorResult(code, message string) *ExecutionResult {
	return &ExecutionResult{
		ResponseType: ResponseTypeError,
		ResponseData: map[string]any{"code": code, "message": message},
	}
}
