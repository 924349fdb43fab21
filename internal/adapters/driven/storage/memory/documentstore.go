package memory

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu   sync.RWMutex
	docs map[string]map[string][]byte
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{docs: make(map[string]map[string][]byte)}
}

// Put stores a copy of data.
func (s *DocumentStore) Put(_ context.Context, sessionID, filename string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	files, ok := s.docs[sessionID]
	if !ok {
		files = make(map[string][]byte)
		s.docs[sessionID] = files
	}
	files[filename] = append([]byte(nil), data...)
	return nil
}

// Get returns the stored bytes.
func (s *DocumentStore) Get(_ context.Context, sessionID, filename string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.docs[sessionID][filename]
	if !ok {
		return nil, fmt.Errorf("document %s: %w", filename, domain.ErrNotFound)
	}
	return append([]byte(nil), data...), nil
}

// Exists reports whether anything is stored for the session.
func (s *DocumentStore) Exists(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.docs[sessionID]
	return ok, nil
}

// Delete removes all files of the session.
func (s *DocumentStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.docs, sessionID)
	return nil
}

// Sessions returns the ids with stored documents, sorted.
func (s *DocumentStore) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.docs))
}
