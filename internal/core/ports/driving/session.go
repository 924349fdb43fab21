package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SessionService manages stored sessions.
type SessionService interface {
	// List returns all sessions, oldest first.
	List(ctx context.Context) ([]domain.Session, error)

	// Get returns one session. Returns domain.ErrNotFound if missing.
	Get(ctx context.Context, id string) (*domain.Session, error)

	// Delete removes a session's document, metadata and index.
	// Returns domain.ErrInvalidInput for a malformed id, domain.ErrNotFound
	// when nothing exists, and *domain.DeletionError when removal is partial.
	Delete(ctx context.Context, id string) error
}
