package driven

import "context"

// DocumentStore persists the raw bytes of uploaded documents.
type DocumentStore interface {
	// Put stores a session's source document.
	Put(ctx context.Context, sessionID, filename string, data []byte) error

	// Get returns the stored document bytes.
	// Returns domain.ErrNotFound if nothing is stored.
	Get(ctx context.Context, sessionID, filename string) ([]byte, error)

	// Exists reports whether any document storage exists for the session.
	Exists(ctx context.Context, sessionID string) (bool, error)

	// Delete removes all document storage for the session.
	// Deleting missing storage is not an error.
	Delete(ctx context.Context, sessionID string) error
}
