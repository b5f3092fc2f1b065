package httpapi_test

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/espalier/internal/logging"
	"github.com/aretw0/espalier/pkg/adapters/httpapi"
	"github.com/aretw0/espalier/pkg/contract"
	"github.com/aretw0/espalier/pkg/domain"
)

// fakeEngine is a canned httpapi.Engine.
type fakeEngine struct {
	result    *domain.ExecutionResult
	err       error
	events    []domain.Event
	contracts []contract.NodeContract
	lastReq   domain.Request
}

func (f *fakeEngine) Execute(ctx context.Context, req domain.Request) (*domain.ExecutionResult, error) {
	f.lastReq = req
	return f.result, f.err
}

func (f *fakeEngine) ExecuteStream(ctx context.Context, req domain.Request) <-chan domain.Event {
	f.lastReq = req
	ch := make(chan domain.Event)
	go func() {
		defer close(ch)
		for _, ev := range f.events {
			select {
			case ch <- ev:
			case <-ctx.Done():
				return
			}
		}
	}()
	return ch
}

func (f *fakeEngine) Contracts() []contract.NodeContract { return f.contracts }

func newServer(engine *fakeEngine) *httptest.Server {
	return httptest.NewServer(httpapi.NewHandler(engine, logging.NewNop()))
}

func TestExecuteEndpoint(t *testing.T) {
	engine := &fakeEngine{
		result: &domain.ExecutionResult{
			ResponseType: "completed",
			ResponseData: map[string]any{"message": "hello"},
		},
	}
	srv := newServer(engine)
	defer srv.Close()

	body := `{"session_id":"s1","action":"greet"}`
	resp, err := http.Post(srv.URL+"/execute", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "greet", engine.lastReq.Action)
	assert.Equal(t, "s1", engine.lastReq.SessionID)

	var result domain.ExecutionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, "completed", result.ResponseType)
	assert.Equal(t, "hello", result.ResponseData["message"])
}

func TestExecuteEndpointRejectsBadBody(t *testing.T) {
	srv := newServer(&fakeEngine{})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/execute", "application/json", strings.NewReader("{nope"))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestExecuteEndpointErrorResultStays200(t *testing.T) {
	// Routing failures arrive as well-formed error results; the transport
	// answer is still 200.
	engine := &fakeEngine{
		result: domain.ErrorResult("no_candidate", "no routing candidate matched"),
		err:    domain.ErrNoCandidate,
	}
	srv := newServer(engine)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/execute", "application/json", strings.NewReader(`{"action":"x"}`))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var result domain.ExecutionResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	assert.Equal(t, domain.ResponseTypeError, result.ResponseType)
	assert.Equal(t, "no_candidate", result.ResponseData["code"])
}

func TestHealthEndpoint(t *testing.T) {
	srv := newServer(&fakeEngine{})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
}

func TestContractsEndpoint(t *testing.T) {
	engine := &fakeEngine{
		contracts: []contract.NodeContract{
			{Name: "greeting", Supervisor: "main"},
		},
	}
	srv := newServer(engine)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/contracts")
	require.NoError(t, err)
	defer resp.Body.Close()

	var contracts []contract.NodeContract
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&contracts))
	require.Len(t, contracts, 1)
	assert.Equal(t, "greeting", contracts[0].Name)
}

func TestEventsEndpointStreamsSSE(t *testing.T) {
	engine := &fakeEngine{
		events: []domain.Event{
			{Type: domain.EventDecision, Timestamp: time.Now(), Decision: &domain.Decision{NextNode: "greeting"}},
			{Type: domain.EventResult, Timestamp: time.Now(), Result: &domain.ExecutionResult{ResponseType: "completed"}},
		},
	}
	srv := newServer(engine)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/events?session_id=s1&action=greet&message=hi")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	var types []string
	scanner := bufio.NewScanner(resp.Body)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.HasPrefix(line, "event: ") {
			types = append(types, strings.TrimPrefix(line, "event: "))
		}
	}
	assert.Equal(t, []string{"ping", "decision", "result"}, types)
	assert.Equal(t, "greet", engine.lastReq.Action)
	assert.Equal(t, "hi", engine.lastReq.Message)
}
