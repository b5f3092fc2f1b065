package registry_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/contract"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
)

var noop = ports.NodeFunc(func(ctx context.Context, in ports.NodeInputs) (ports.NodeOutputs, error) {
	return ports.NodeOutputs{}, nil
})

func TestRegisterAndGet(t *testing.T) {
	reg := registry.New()

	c := contract.NodeContract{
		Name:       "greeting",
		Supervisor: "main",
		Reads:      []string{domain.SliceRequest},
		Writes:     []string{domain.SliceResponse},
	}
	require.NoError(t, reg.Register(c, noop))

	entry, ok := reg.Get("greeting")
	require.True(t, ok)
	assert.Equal(t, "greeting", entry.Contract.Name)
	assert.NotNil(t, entry.Impl)

	_, ok = reg.Get("absent")
	assert.False(t, ok)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	reg := registry.New()
	c := contract.NodeContract{Name: "greeting", Supervisor: "main"}

	require.NoError(t, reg.Register(c, noop))
	err := reg.Register(c, noop)
	assert.ErrorIs(t, err, domain.ErrDuplicateNode)
}

func TestRegisterRejectsEmptyName(t *testing.T) {
	reg := registry.New()
	assert.Error(t, reg.Register(contract.NodeContract{}, noop))
}

func TestNamesPreserveRegistrationOrder(t *testing.T) {
	reg := registry.New()
	for _, name := range []string{"zeta", "alpha", "mid"} {
		require.NoError(t, reg.Register(contract.NodeContract{Name: name, Supervisor: "main"}, noop))
	}
	assert.Equal(t, []string{"zeta", "alpha", "mid"}, reg.Names())
}

func TestNodesForSupervisor(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(contract.NodeContract{Name: "a", Supervisor: "main"}, noop))
	require.NoError(t, reg.Register(contract.NodeContract{Name: "b", Supervisor: "billing"}, noop))
	require.NoError(t, reg.Register(contract.NodeContract{Name: "c", Supervisor: "main"}, noop))

	var names []string
	for _, c := range reg.NodesForSupervisor("main") {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"a", "c"}, names)
	assert.Empty(t, reg.NodesForSupervisor("nosuch"))
}

func TestSupervisorsFirstReferenceOrder(t *testing.T) {
	reg := registry.New()
	require.NoError(t, reg.Register(contract.NodeContract{Name: "a", Supervisor: "main"}, noop))
	require.NoError(t, reg.Register(contract.NodeContract{Name: "b", Supervisor: "billing"}, noop))
	require.NoError(t, reg.Register(contract.NodeContract{Name: "c", Supervisor: "main"}, noop))
	require.NoError(t, reg.Register(contract.NodeContract{Name: "orphan"}, noop))

	assert.Equal(t, []string{"main", "billing"}, reg.Supervisors())
}

func TestValidSlices(t *testing.T) {
	reg := registry.New(registry.WithValidSlices("diagnosis"))

	assert.True(t, reg.IsValidSlice(domain.SliceRequest))
	assert.True(t, reg.IsValidSlice(domain.SliceResponse))
	assert.True(t, reg.IsValidSlice(domain.SliceInternal))
	assert.True(t, reg.IsValidSlice("diagnosis"))
	assert.False(t, reg.IsValidSlice("profile"))

	reg.AddValidSlice("profile")
	assert.True(t, reg.IsValidSlice("profile"))
}

func TestReset(t *testing.T) {
	reg := registry.New()
	reg.AddValidSlice("diagnosis")
	require.NoError(t, reg.Register(contract.NodeContract{Name: "a", Supervisor: "main"}, noop))

	reg.Reset()
	assert.Empty(t, reg.Names())
	assert.False(t, reg.IsValidSlice("diagnosis"))
	assert.True(t, reg.IsValidSlice(domain.SliceRequest))
}
