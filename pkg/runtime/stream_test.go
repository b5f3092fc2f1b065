package runtime_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/pkg/adapters/memory"
	"github.com/aretw0/espalier/pkg/contract"
	"github.com/aretw0/espalier/pkg/domain"
	"github.com/aretw0/espalier/pkg/graph"
	"github.com/aretw0/espalier/pkg/ports"
	"github.com/aretw0/espalier/pkg/registry"
	"github.com/aretw0/espalier/pkg/runtime"
)

func collect(t *testing.T, ch <-chan domain.Event) []domain.Event {
	t.Helper()
	var events []domain.Event
	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev, ok := <-ch:
			if !ok {
				return events
			}
			events = append(events, ev)
		case <-timeout:
			t.Fatal("stream did not close in time")
		}
	}
}

func TestExecuteStreamEmitsOrderedEvents(t *testing.T) {
	rt := runtime.New(greeterGraph(t))

	ch := rt.ExecuteStream(context.Background(), domain.Request{Action: "greet"})
	events := collect(t, ch)

	// decision(rule) -> node_start -> node_end -> decision(terminal) -> result
	require.Len(t, events, 5)
	assert.Equal(t, domain.EventDecision, events[0].Type)
	assert.Equal(t, "greeting", events[0].Decision.NextNode)
	assert.Equal(t, domain.EventNodeStart, events[1].Type)
	assert.Equal(t, "greeting", events[1].Node)
	assert.Equal(t, domain.EventNodeEnd, events[2].Type)
	assert.Equal(t, "greeting", events[2].Node)
	assert.Empty(t, events[2].NodeErr)
	assert.Equal(t, domain.EventDecision, events[3].Type)
	assert.Equal(t, domain.DecisionTerminal, events[3].Decision.Type)

	final := events[4]
	assert.Equal(t, domain.EventResult, final.Type)
	require.NotNil(t, final.Result)
	assert.Equal(t, "completed", final.Result.ResponseType)
	assert.Equal(t, "hello", final.Result.ResponseData["message"])
}

func TestExecuteStreamCarriesSessionID(t *testing.T) {
	store := memory.NewStore()
	rt := runtime.New(greeterGraph(t), runtime.WithSessionStore(store))

	ch := rt.ExecuteStream(context.Background(), domain.Request{SessionID: "s-9", Action: "greet"})
	events := collect(t, ch)
	require.NotEmpty(t, events)
	for _, ev := range events {
		assert.Equal(t, "s-9", ev.SessionID)
	}

	// The session was persisted under the stream's lock.
	_, err := store.Load(context.Background(), "s-9")
	assert.NoError(t, err)
}

func TestExecuteStreamCancellationStopsLoop(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())

	var invocations int
	reg := registry.New()
	require.NoError(t, reg.Register(contract.NodeContract{
		Name: "spinner", Supervisor: "main",
		TriggerConditions: []contract.TriggerCondition{{Priority: 0}},
	}, ports.NodeFunc(func(ctx context.Context, in ports.NodeInputs) (ports.NodeOutputs, error) {
		invocations++
		return ports.NodeOutputs{}, nil
	})))
	g, err := graph.Build(reg)
	require.NoError(t, err)

	rt := runtime.New(g, runtime.WithMaxIterations(1000))
	ch := rt.ExecuteStream(ctx, domain.Request{Action: "go"})

	// Read one event, then walk away. The unbuffered channel blocks the
	// loop until cancellation releases it.
	<-ch
	cancel()

	deadline := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-ch:
			if !ok {
				assert.Less(t, invocations, 1000)
				return
			}
		case <-deadline:
			t.Fatal("stream did not terminate after cancellation")
		}
	}
}
