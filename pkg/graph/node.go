package graph

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/espalier/pkg/contract"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

// compiledNode wraps a node implementation with dynamic contract
// enforcement: the input view carries only declared reads, and an output
// naming an undeclared slice is rejected before the state is touched.
type compiledNode struct {
	contract contract.NodeContract
	impl     ports.Node
	logger   *slog.Logger
}

func newCompiledNode(entry registry.Entry, logger *slog.Logger) *compiledNode {
	return &compiledNode{
		contract: entry.Contract,
		impl:     entry.Impl,
		logger:   logger.With("node", entry.Contract.Name),
	}
}

// RunNode executes one compiled node against the state and returns the next
// state. Node failures are wrapped in *domain.NodeError; the input state is
// never mutated.
func (g *Graph) RunNode(ctx context.Context, name string, state domain.State) (domain.State, error) {
	n, err := g.node(name)
	if err != nil {
		return state, err
	}
	return n.run(ctx, state)
}

func (n *compiledNode) run(ctx context.Context, state domain.State) (domain.State, error) {
	in := ports.NewNodeInputs(state.View(n.contract.Reads))

	var (
		outs ports.NodeOutputs
		post stateUpdate
		err  error
	)
	if inode, ok := n.impl.(ports.Interactive); ok {
		outs, post, err = n.runInteractive(ctx, inode, in, state)
	} else {
		outs, err = n.impl.Execute(ctx, in)
	}
	if err != nil {
		return state, &domain.NodeError{Node: n.contract.Name, Err: err}
	}

	for slice := range outs {
		if !n.contract.WritesSlice(slice) {
			return state, &domain.ContractViolationError{Node: n.contract.Name, Slice: slice}
		}
	}

	next := state.Merge(outs)

	// Interactive bookkeeping is a framework write, applied after the
	// declared outputs so question ownership survives the merge.
	if post != nil {
		next = post(next)
	}
	return next, nil
}

// stateUpdate is a deferred framework write produced by the interactive
// lifecycle (question ownership changes). Kept out of the node's declared
// outputs so contract enforcement stays strict.
type stateUpdate func(domain.State) domain.State

func clearPendingQuestion(owner string) stateUpdate {
	return func(s domain.State) domain.State {
		acc := domain.NewAccessor[string](domain.SliceInternal, domain.FieldPendingQuestion)
		if current, _ := acc.Get(s); current == owner {
			return acc.Set(s, "")
		}
		return s
	}
}

func setPendingQuestion(owner string) stateUpdate {
	return func(s domain.State) domain.State {
		return domain.NewAccessor[string](domain.SliceInternal, domain.FieldPendingQuestion).Set(s, owner)
	}
}

// runInteractive drives the fixed four-step lifecycle:
// prepare -> (process answer) -> check -> question | completion.
func (n *compiledNode) runInteractive(ctx context.Context, inode ports.Interactive, in ports.NodeInputs, state domain.State) (ports.NodeOutputs, stateUpdate, error) {
	view, err := inode.PrepareContext(in)
	if err != nil {
		return nil, nil, fmt.Errorf("prepare context: %w", err)
	}

	action, _ := domain.NewAccessor[string](domain.SliceRequest, domain.FieldAction).Get(state)
	owner, _ := domain.NewAccessor[string](domain.SliceInternal, domain.FieldPendingQuestion).Get(state)
	if action == domain.ActionAnswer && owner == n.contract.Name {
		processed, err := inode.ProcessAnswer(ctx, view, in)
		if err != nil {
			return nil, nil, fmt.Errorf("process answer: %w", err)
		}
		n.logger.Debug("answer processed", "advanced", processed)
	}

	if inode.CheckCompletion(view, in) {
		post := clearPendingQuestion(n.contract.Name)
		if cp, ok := inode.(ports.CompletionProvider); ok {
			outs, err := cp.CompletionOutput(ctx, view, in)
			if err != nil {
				return nil, nil, fmt.Errorf("completion output: %w", err)
			}
			return outs, post, nil
		}
		return ports.NodeOutputs{}, post, nil
	}

	outs, err := inode.GenerateQuestion(ctx, view, in)
	if err != nil {
		return nil, nil, fmt.Errorf("generate question: %w", err)
	}
	return outs, setPendingQuestion(n.contract.Name), nil
}
