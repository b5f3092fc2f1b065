/*
Package httpapi exposes the engine over HTTP: single-shot execution,
server-sent event streaming, and contract introspection.
*/
package httpapi

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/aretw0/espalier/pkg/contract"
	"github.com/aretw0/espalier/pkg/domain"
)

// Engine defines the surface the HTTP adapter needs.
type Engine interface {
	Execute(ctx context.Context, req domain.Request) (*domain.ExecutionResult, error)
	ExecuteStream(ctx context.Context, req domain.Request) <-chan domain.Event
	Contracts() []contract.NodeContract
}

// Server hosts an Engine over HTTP.
type Server struct {
	engine Engine
	logger *slog.Logger
}

// NewHandler creates the HTTP handler for the engine.
func NewHandler(engine Engine, logger *slog.Logger) http.Handler {
	s := &Server{engine: engine, logger: logger}

	r := chi.NewRouter()
	r.Post("/execute", s.execute)
	r.Get("/events", s.events)
	r.Get("/contracts", s.contracts)
	r.Get("/health", s.health)
	return r
}

func (s *Server) execute(w http.ResponseWriter, r *http.Request) {
	var req domain.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		s.logger.Warn("execute: invalid request body", "err", err)
		return
	}

	// Routing and node failures arrive as well-formed error results, so the
	// transport answer is 200 either way; only adapter faults are 5xx.
	result, err := s.engine.Execute(r.Context(), req)
	if result == nil {
		http.Error(w, fmt.Sprintf("execute error: %v", err), http.StatusInternalServerError)
		s.logger.Error("execute failed without result", "err", err)
		return
	}
	if err != nil {
		s.logger.Warn("execution finished with error result", "err", err)
	}

	writeJSON(w, s.logger, result)
}

func (s *Server) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	q := r.URL.Query()
	req := domain.Request{
		SessionID: q.Get("session_id"),
		Action:    q.Get("action"),
		Message:   q.Get("message"),
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	// The stream honors request-context cancellation: a disconnected client
	// halts further node execution.
	for ev := range s.engine.ExecuteStream(r.Context(), req) {
		data, err := json.Marshal(ev)
		if err != nil {
			s.logger.Error("event marshal failed", "err", err)
			continue
		}
		fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
		flusher.Flush()
	}
}

func (s *Server) contracts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, s.engine.Contracts())
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.logger, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, logger *slog.Logger, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("response encode failed", "err", err)
	}
}
