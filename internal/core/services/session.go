package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/vectorindex"
)

// Ensure SessionService implements the interface.
var _ driving.SessionService = (*SessionService)(nil)

// SessionService lists, inspects and deletes sessions.
type SessionService struct {
	sessions  driven.SessionStore
	documents driven.DocumentStore
	indexes   driven.IndexStore
	cache     *vectorindex.Cache
}

// NewSessionService creates a session service. cache may be nil.
func NewSessionService(
	sessions driven.SessionStore,
	documents driven.DocumentStore,
	indexes driven.IndexStore,
	cache *vectorindex.Cache,
) *SessionService {
	return &SessionService{sessions: sessions, documents: documents, indexes: indexes, cache: cache}
}

// List returns all sessions, oldest first.
func (s *SessionService) List(ctx context.Context) ([]domain.Session, error) {
	return s.sessions.List(ctx)
}

// Get returns a session by id.
func (s *SessionService) Get(ctx context.Context, id string) (*domain.Session, error) {
	if err := validateSessionID(id); err != nil {
		return nil, err
	}
	return s.sessions.Load(ctx, id)
}

// Delete removes a session's metadata, raw document and index, and evicts
// its cached index. Every part is attempted; the ones that could not be
// removed are named in a *domain.DeletionError.
func (s *SessionService) Delete(ctx context.Context, id string) error {
	if err := validateSessionID(id); err != nil {
		return err
	}

	if !s.anyExists(ctx, id) {
		return fmt.Errorf("session %s: %w", id, domain.ErrNotFound)
	}

	logger.Section("Delete session")
	var (
		parts []domain.StoragePart
		errs  []error
	)
	steps := []struct {
		part domain.StoragePart
		run  func(context.Context, string) error
	}{
		{domain.StorageMetadata, s.sessions.Delete},
		{domain.StorageDocument, s.documents.Delete},
		{domain.StorageIndex, s.indexes.Delete},
	}
	for _, step := range steps {
		if err := step.run(ctx, id); err != nil && !errors.Is(err, domain.ErrNotFound) {
			logger.Warn("Deleting %s of session %s: %v", step.part, id, err)
			parts = append(parts, step.part)
			errs = append(errs, fmt.Errorf("%s: %w", step.part, err))
		}
	}

	if s.cache != nil {
		s.cache.Evict(id)
	}

	if len(parts) > 0 {
		return &domain.DeletionError{SessionID: id, Parts: parts, Err: errors.Join(errs...)}
	}
	logger.Info("Deleted session %s", id)
	return nil
}

// anyExists reports whether any part of the session is stored. Lookup errors
// count as existing so Delete still attempts removal.
func (s *SessionService) anyExists(ctx context.Context, id string) bool {
	if _, err := s.sessions.Load(ctx, id); err == nil || !errors.Is(err, domain.ErrNotFound) {
		return true
	}
	if ok, err := s.documents.Exists(ctx, id); ok || err != nil {
		return true
	}
	if ok, err := s.indexes.Exists(ctx, id); ok || err != nil {
		return true
	}
	return false
}

func validateSessionID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("%w: session id %q is not a UUID", domain.ErrInvalidInput, id)
	}
	return nil
}
