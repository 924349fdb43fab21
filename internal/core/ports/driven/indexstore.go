package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IndexStore persists one vector index per session.
// A snapshot loaded back must reproduce the saved chunks in the same order.
type IndexStore interface {
	// Save writes the snapshot for a session, replacing any existing one.
	Save(ctx context.Context, sessionID string, snap *domain.IndexSnapshot) error

	// Load reads a session's snapshot.
	// Returns a *domain.IndexNotFoundError if none is persisted.
	Load(ctx context.Context, sessionID string) (*domain.IndexSnapshot, error)

	// Exists reports whether an index is persisted for the session.
	Exists(ctx context.Context, sessionID string) (bool, error)

	// Delete removes the session's index. Deleting a missing index is not an error.
	Delete(ctx context.Context, sessionID string) error
}
