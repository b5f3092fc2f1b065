package supervisor

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/aretw0/espalier/pkg/domain"
)

// baseSlices are always serialized verbatim into the prompt; everything else
// a candidate reads is summarized to keep the token budget bounded.
var baseSlices = []string{domain.SliceRequest, domain.SliceResponse, domain.SliceInternal}

func (s *Supervisor) buildPrompt(state domain.State, offered []domain.Candidate) (string, error) {
	var b strings.Builder

	fmt.Fprintf(&b, "You are the routing supervisor for the %q flow.\n", s.name)
	b.WriteString("Choose the next node based on the current state.\n\n")

	b.WriteString("Current state:\n")
	for _, name := range baseSlices {
		raw, err := json.Marshal(state.Get(name))
		if err != nil {
			return "", fmt.Errorf("serialize slice %q: %w", name, err)
		}
		fmt.Fprintf(&b, "  %s: %s\n", name, raw)
	}
	for _, name := range s.extraContextSlices(offered) {
		fmt.Fprintf(&b, "  %s: %s\n", name, s.summarizer.Summarize(map[string]any(state.Get(name))))
	}

	b.WriteString("\nCandidates:\n")
	for _, c := range offered {
		contract, _ := s.reg.Contract(c.Name)
		fmt.Fprintf(&b, "- %s (priority %d): %s", c.Name, c.Priority, contract.Description)
		if c.Hint != "" {
			fmt.Fprintf(&b, " (%s)", c.Hint)
		}
		if c.Reason != "" {
			fmt.Fprintf(&b, " [%s]", c.Reason)
		}
		b.WriteString("\n")
	}

	b.WriteString("\nReturn only the node name.")
	return b.String(), nil
}

// extraContextSlices collects the declared reads of the offered candidates
// beyond the base slices, in first-declared order.
func (s *Supervisor) extraContextSlices(offered []domain.Candidate) []string {
	seen := map[string]struct{}{
		domain.SliceRequest:  {},
		domain.SliceResponse: {},
		domain.SliceInternal: {},
	}
	var out []string
	for _, c := range offered {
		contract, ok := s.reg.Contract(c.Name)
		if !ok {
			continue
		}
		for _, sl := range contract.Reads {
			if _, dup := seen[sl]; dup {
				continue
			}
			seen[sl] = struct{}{}
			out = append(out, sl)
		}
	}
	return out
}
