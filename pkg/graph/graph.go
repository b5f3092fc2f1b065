package graph

import (
	"fmt"
	"sort"
	"strings"

	"github.com/aretw0/espalier/pkg/contract"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/supervisor"
	"github.com/aretw0/espalier/pkg/validator"
)

// Graph is a compiled, immutable decision graph. It is safe to share
// read-only across concurrent executions.
type Graph struct {
	entry       string
	reg         *registry.Registry
	supervisors map[string]*supervisor.Supervisor
	nodes       map[string]*compiledNode
	validation  validator.Result
}

// Entry returns the supervisor wired to START.
func (g *Graph) Entry() string { return g.entry }

// Validation returns the findings recorded at build time (warnings/info;
// errors would have aborted the build).
func (g *Graph) Validation() validator.Result { return g.validation }

// Supervisor returns a decision point by name.
func (g *Graph) Supervisor(name string) (*supervisor.Supervisor, bool) {
	s, ok := g.supervisors[name]
	return s, ok
}

// Contract returns a compiled node's contract.
func (g *Graph) Contract(name string) (contract.NodeContract, bool) {
	n, ok := g.nodes[name]
	if !ok {
		return contract.NodeContract{}, false
	}
	return n.contract, true
}

// Contracts returns all compiled contracts in registration order.
func (g *Graph) Contracts() []contract.NodeContract {
	out := make([]contract.NodeContract, 0, len(g.nodes))
	for _, name := range g.reg.Names() {
		out = append(out, g.nodes[name].contract)
	}
	return out
}

// node returns a compiled node or an error naming it.
func (g *Graph) node(name string) (*compiledNode, error) {
	n, ok := g.nodes[name]
	if !ok {
		return nil, fmt.Errorf("unknown node %q", name)
	}
	return n, nil
}

// ReturnEdge names the decision point a node returns to after running, or
// End for terminal nodes.
func (g *Graph) ReturnEdge(node string) string {
	n, ok := g.nodes[node]
	if !ok || n.contract.Terminal {
		return End
	}
	return n.contract.Supervisor
}

// Edge is one wire of the compiled graph, exposed for tooling.
type Edge struct {
	From        string
	To          string
	Conditional bool
}

// Edges lists every wire: START to the entry supervisor, conditional
// supervisor-to-node edges, and node return edges.
func (g *Graph) Edges() []Edge {
	edges := []Edge{{From: Start, To: g.entry}}

	supers := make([]string, 0, len(g.supervisors))
	for name := range g.supervisors {
		supers = append(supers, name)
	}
	sort.Strings(supers)

	for _, sup := range supers {
		for _, c := range g.reg.NodesForSupervisor(sup) {
			edges = append(edges, Edge{From: sup, To: c.Name, Conditional: true})
			edges = append(edges, Edge{From: c.Name, To: g.ReturnEdge(c.Name)})
		}
	}
	return edges
}

// Mermaid renders the graph as a mermaid flowchart for documentation tools.
func (g *Graph) Mermaid() string {
	var b strings.Builder
	b.WriteString("flowchart TD\n")
	for _, e := range g.Edges() {
		from, to := mermaidID(e.From), mermaidID(e.To)
		if e.Conditional {
			fmt.Fprintf(&b, "    %s -.-> %s\n", from, to)
		} else {
			fmt.Fprintf(&b, "    %s --> %s\n", from, to)
		}
	}
	return b.String()
}

func mermaidID(name string) string {
	switch name {
	case Start:
		return "START"
	case End:
		return "END"
	default:
		return strings.NewReplacer("-", "_", ".", "_").Replace(name)
	}
}
