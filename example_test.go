package espalier_test

import (
	"context"
	"fmt"
	"log"

	"github.com/aretw0/espalier"
	"github.com/aretw0/espalier/pkg/contract"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

// Example wires a minimal two-node flow and executes one turn. Routing is
// purely rule based: the "greet" action matches the prioritized condition.
func Example() {
	reg := registry.New()

	greet := func(ctx context.Context, in ports.NodeInputs) (ports.NodeOutputs, error) {
		return ports.NodeOutputs{
			domain.SliceResponse: {
				domain.FieldResponseType: "completed",
				domain.FieldResponseData: map[string]any{"message": "Welcome aboard!"},
			},
		}, nil
	}

	err := reg.Register(contract.NodeContract{
		Name:       "greeting",
		Supervisor: "main",
		Reads:      []string{"request"},
		Writes:     []string{"response"},
		TriggerConditions: []contract.TriggerCondition{
			{Priority: 10, When: map[string]any{"request.action": "greet"}},
		},
	}, ports.NodeFunc(greet))
	if err != nil {
		log.Fatal(err)
	}

	err = reg.Register(contract.NodeContract{
		Name:              "fallback",
		Supervisor:        "main",
		Writes:            []string{"response"},
		TriggerConditions: []contract.TriggerCondition{{Priority: 0}},
	}, ports.NodeFunc(func(ctx context.Context, in ports.NodeInputs) (ports.NodeOutputs, error) {
		return ports.NodeOutputs{
			domain.SliceResponse: {
				domain.FieldResponseType: "completed",
				domain.FieldResponseData: map[string]any{"message": "How can I help?"},
			},
		}, nil
	}))
	if err != nil {
		log.Fatal(err)
	}

	eng, err := espalier.New(reg)
	if err != nil {
		log.Fatal(err)
	}

	result, err := eng.Execute(context.Background(), domain.Request{Action: "greet"})
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(result.ResponseData["message"])
	// Output: Welcome aboard!
}
