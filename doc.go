/*
Package espalier is a contract-driven routing engine for turn-based
conversational agents.

Independently authored processing units ("nodes") are composed into a
control flow purely by declaring, per node, what state slices they read and
write, what capabilities they need, and under what conditions they should
run next. A supervisor decision engine picks the next node every turn,
combining deterministic rule evaluation with optional LLM-assisted
disambiguation; the engine never trusts an LLM answer outside the candidate
set and always falls back to rules.

# Concept

State is a mapping of named slices. Every node declares the slices it reads
and writes; the compiled graph enforces both at run time. State is never
mutated in place: each turn produces a new value sharing untouched slices
with its predecessor, so concurrent sessions need no locking in the core.

# Usage

	reg := registry.New()
	reg.AddValidSlice("diagnosis")

	_ = reg.Register(contract.NodeContract{
		Name:       "greeting",
		Supervisor: "main",
		Reads:      []string{"request"},
		Writes:     []string{"response"},
		TriggerConditions: []contract.TriggerCondition{
			{Priority: 10, When: map[string]any{"request.action": "greet"}},
		},
	}, ports.NodeFunc(greet))

	eng, err := espalier.New(reg)
	if err != nil {
		log.Fatal(err)
	}

	result, err := eng.Execute(ctx, domain.Request{Action: "greet"})

Sessions persist to an in-memory store by default; a Redis backend, an LLM
client, lifecycle hooks and strict validation are enabled through
configuration or options. See New.
*/
package espalier
