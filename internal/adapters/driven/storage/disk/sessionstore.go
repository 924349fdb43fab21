package disk

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure SessionStore implements the interface.
var _ driven.SessionStore = (*SessionStore)(nil)

// SessionStore keeps each session as data/<id>/meta.json.
type SessionStore struct {
	layout Layout
}

// NewSessionStore creates a session store rooted at root.
func NewSessionStore(root string) (*SessionStore, error) {
	l := Layout{Root: root}
	if err := os.MkdirAll(l.DataDir(), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &SessionStore{layout: l}, nil
}

// List returns all sessions with readable metadata, oldest first.
// Directories without valid metadata are skipped with a warning.
func (s *SessionStore) List(ctx context.Context) ([]domain.Session, error) {
	entries, err := os.ReadDir(s.layout.DataDir())
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("listing sessions: %w", err)
	}

	sessions := make([]domain.Session, 0, len(entries))
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if !entry.IsDir() {
			continue
		}
		sess, err := s.Load(ctx, entry.Name())
		if err != nil {
			logger.Warn("skipping session %s: %v", entry.Name(), err)
			continue
		}
		sessions = append(sessions, *sess)
	}

	slices.SortStableFunc(sessions, func(a, b domain.Session) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return sessions, nil
}

// Load reads one session's metadata.
func (s *SessionStore) Load(_ context.Context, id string) (*domain.Session, error) {
	dir, err := s.layout.SessionDir(id)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(dir, metaFileName))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("reading session %s: %w", id, err)
	}

	var sess domain.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("decoding session %s: %w", id, err)
	}
	if sess.ID == "" {
		sess.ID = id
	}
	if sess.History == nil {
		sess.History = []domain.Turn{}
	}
	return &sess, nil
}

// Save writes the session's metadata, creating its directory if needed.
func (s *SessionStore) Save(_ context.Context, sess *domain.Session) error {
	if sess == nil {
		return fmt.Errorf("%w: nil session", domain.ErrInvalidInput)
	}
	dir, err := s.layout.SessionDir(sess.ID)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(dir, 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}

	data, err := json.MarshalIndent(sess, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding session %s: %w", sess.ID, err)
	}
	if err := writeFileAtomic(filepath.Join(dir, metaFileName), data, 0600); err != nil {
		return fmt.Errorf("writing session %s: %w", sess.ID, err)
	}
	return nil
}

// Delete removes the session's metadata file.
func (s *SessionStore) Delete(_ context.Context, id string) error {
	dir, err := s.layout.SessionDir(id)
	if err != nil {
		return err
	}
	err = os.Remove(filepath.Join(dir, metaFileName))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("deleting session %s: %w", id, err)
	}
	return nil
}
