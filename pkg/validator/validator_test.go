package validator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/contract"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/validator"
)

var noop = ports.NodeFunc(func(ctx context.Context, in ports.NodeInputs) (ports.NodeOutputs, error) {
	return ports.NodeOutputs{}, nil
})

func catchAll() []contract.TriggerCondition {
	return []contract.TriggerCondition{{Priority: 0}}
}

func TestValidRegistryPasses(t *testing.T) {
	reg := registry.New(registry.WithValidSlices("diagnosis"))
	require.NoError(t, reg.Register(contract.NodeContract{
		Name:              "triage",
		Supervisor:        "main",
		Reads:             []string{domain.SliceRequest},
		Writes:            []string{domain.SliceResponse, "diagnosis"},
		TriggerConditions: catchAll(),
	}, noop))

	res := validator.New(reg).Validate()
	assert.True(t, res.IsValid())
	assert.False(t, res.HasWarnings())
	assert.Equal(t, "OK", res.String())
}

func TestUnknownSliceIsError(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(contract.NodeContract{
		Name:              "triage",
		Supervisor:        "main",
		Reads:             []string{"mystery"},
		Writes:            []string{domain.SliceResponse, "other"},
		TriggerConditions: catchAll(),
	}, noop))

	res := validator.New(reg).Validate()
	require.True(t, res.HasErrors())
	assert.False(t, res.IsValid())
	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[0], `reads unknown slice "mystery"`)
	assert.Contains(t, res.Errors[1], `writes unknown slice "other"`)
}

func TestUnknownServiceIsWarning(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(contract.NodeContract{
		Name:              "search",
		Supervisor:        "main",
		Services:          []string{"kb_service", "mystery_service"},
		TriggerConditions: catchAll(),
	}, noop))

	// Without a known set, service validation is skipped.
	res := validator.New(reg).Validate()
	assert.False(t, res.HasWarnings())

	res = validator.New(reg, validator.WithKnownServices("kb_service")).Validate()
	assert.True(t, res.IsValid(), "unknown service is a warning, not an error")
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], `unknown service "mystery_service"`)
}

func TestOrphanNodeIsWarning(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(contract.NodeContract{
		Name:              "loner",
		TriggerConditions: catchAll(),
	}, noop))

	res := validator.New(reg).Validate()
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "orphan")
}

type interactiveStub struct{ ports.NodeFunc }

func (interactiveStub) PrepareContext(in ports.NodeInputs) (any, error) { return nil, nil }
func (interactiveStub) CheckCompletion(view any, in ports.NodeInputs) bool {
	return true
}
func (interactiveStub) ProcessAnswer(ctx context.Context, view any, in ports.NodeInputs) (bool, error) {
	return false, nil
}
func (interactiveStub) GenerateQuestion(ctx context.Context, view any, in ports.NodeInputs) (ports.NodeOutputs, error) {
	return ports.NodeOutputs{}, nil
}

func TestUnreachableNodeIsWarning(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(contract.NodeContract{
		Name:       "dead",
		Supervisor: "main",
	}, noop))
	// Interactive nodes are reachable via explicit routing, no warning.
	require.NoError(t, reg.Register(contract.NodeContract{
		Name:       "survey",
		Supervisor: "main",
	}, interactiveStub{NodeFunc: noop}))

	res := validator.New(reg).Validate()
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], `"dead" is unreachable`)
}

func TestSharedWritersAreInfo(t *testing.T) {
	reg := registry.New(registry.WithValidSlices("diagnosis"))
	require.NoError(t, reg.Register(contract.NodeContract{
		Name: "a", Supervisor: "main",
		Writes:            []string{"diagnosis"},
		TriggerConditions: catchAll(),
	}, noop))
	require.NoError(t, reg.Register(contract.NodeContract{
		Name: "b", Supervisor: "main",
		Writes:            []string{"diagnosis"},
		TriggerConditions: catchAll(),
	}, noop))

	v := validator.New(reg)
	res := v.Validate()
	assert.True(t, res.IsValid())
	require.Len(t, res.Info, 1)
	assert.Contains(t, res.Info[0], `slice "diagnosis" is written by multiple nodes: a, b`)

	writers := v.SharedWriters()
	assert.Equal(t, map[string][]string{"diagnosis": {"a", "b"}}, writers)
}

func TestDataFlow(t *testing.T) {
	reg := registry.New(registry.WithValidSlices("diagnosis"))
	require.NoError(t, reg.Register(contract.NodeContract{
		Name: "triage", Supervisor: "main",
		Reads:             []string{domain.SliceRequest},
		Writes:            []string{"diagnosis"},
		TriggerConditions: catchAll(),
	}, noop))
	require.NoError(t, reg.Register(contract.NodeContract{
		Name: "resolution", Supervisor: "main",
		Reads:             []string{"diagnosis"},
		Writes:            []string{domain.SliceResponse},
		TriggerConditions: catchAll(),
	}, noop))

	v := validator.New(reg)
	flow := v.DataFlow()
	assert.Equal(t, []string{"triage"}, flow["resolution"])
	assert.Empty(t, flow["triage"])

	readers := v.SliceReaders()
	assert.Equal(t, []string{"resolution"}, readers["diagnosis"])
}
