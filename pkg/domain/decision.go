package domain

// DecisionType classifies how the supervisor chose the next node.
type DecisionType string

const (
	// DecisionTerminal: the response type is in the terminal set; no node runs.
	DecisionTerminal DecisionType = "terminal_state"
	// DecisionExplicit: the request answers a pending question; routed to its owner.
	DecisionExplicit DecisionType = "explicit"
	// DecisionRule: top rule candidate selected (no LLM configured).
	DecisionRule DecisionType = "rule_based"
	// DecisionLLM: the LLM picked one of the offered candidates.
	DecisionLLM DecisionType = "llm_decision"
	// DecisionFallback: LLM failed or answered outside the offered set; the
	// top rule candidate was used instead.
	DecisionFallback DecisionType = "fallback"
)

// Candidate is one node whose trigger conditions matched this turn.
type Candidate struct {
	Name     string `json:"name"`
	Priority int    `json:"priority"`
	Reason   string `json:"reason"`
	Hint     string `json:"hint,omitempty"`
}

// Decision is the per-turn routing record. It doubles as the trace surface
// consumed by observability tooling.
type Decision struct {
	Supervisor string       `json:"supervisor"`
	NextNode   string       `json:"next_node,omitempty"` // empty for terminal decisions
	Type       DecisionType `json:"type"`
	Reasoning  string       `json:"reasoning,omitempty"`

	// Candidates holds the full matched set in (priority desc, registration
	// order asc) order, including the selected node.
	Candidates []Candidate `json:"candidates,omitempty"`
}
