package ports

import (
	"context"

	"github.com/aretw0/espalier/pkg/domain"
)

// StateStore defines the interface for persisting session state. This
// enables durable conversations ("Stop & Resume") across requests.
type StateStore interface {
	// Save persists the state for a given session ID. Expiration (TTL) is
	// an implementation concern configured on the store.
	Save(ctx context.Context, sessionID string, state domain.State) error

	// Load retrieves the state for a given session ID.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, sessionID string) (domain.State, error)

	// Delete removes the state for a given session ID.
	Delete(ctx context.Context, sessionID string) error

	// List returns all known session IDs.
	List(ctx context.Context) ([]string, error)
}
