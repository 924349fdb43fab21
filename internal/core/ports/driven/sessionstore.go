package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// SessionStore persists session metadata and history.
type SessionStore interface {
	// List returns every stored session.
	List(ctx context.Context) ([]domain.Session, error)

	// Load returns one session. Returns domain.ErrNotFound if missing.
	Load(ctx context.Context, id string) (*domain.Session, error)

	// Save creates or replaces a session.
	Save(ctx context.Context, session *domain.Session) error

	// Delete removes a session. Deleting a missing session is not an error.
	Delete(ctx context.Context, id string) error
}
