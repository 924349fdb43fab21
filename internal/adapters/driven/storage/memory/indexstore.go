package memory

import (
	"context"
	"maps"
	"slices"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure IndexStore implements the interface.
var _ driven.IndexStore = (*IndexStore)(nil)

// IndexStore is an in-memory implementation of driven.IndexStore.
type IndexStore struct {
	mu    sync.RWMutex
	snaps map[string]domain.IndexSnapshot
	loads map[string]int
}

// NewIndexStore creates a new in-memory index store.
func NewIndexStore() *IndexStore {
	return &IndexStore{
		snaps: make(map[string]domain.IndexSnapshot),
		loads: make(map[string]int),
	}
}

// Save stores a copy of the snapshot.
func (s *IndexStore) Save(_ context.Context, sessionID string, snap *domain.IndexSnapshot) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *snap
	c.Chunks = append([]domain.Chunk{}, snap.Chunks...)
	s.snaps[sessionID] = c
	return nil
}

// Load returns a copy of the snapshot.
func (s *IndexStore) Load(_ context.Context, sessionID string) (*domain.IndexSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.snaps[sessionID]
	if !ok {
		return nil, &domain.IndexNotFoundError{SessionID: sessionID}
	}
	s.loads[sessionID]++
	snap.Chunks = append([]domain.Chunk{}, snap.Chunks...)
	return &snap, nil
}

// Exists reports whether a snapshot is stored.
func (s *IndexStore) Exists(_ context.Context, sessionID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.snaps[sessionID]
	return ok, nil
}

// Delete removes a snapshot.
func (s *IndexStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snaps, sessionID)
	return nil
}

// Loads returns how many times Load succeeded for a session.
func (s *IndexStore) Loads(sessionID string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loads[sessionID]
}

// Sessions returns the ids with stored snapshots, sorted.
func (s *IndexStore) Sessions() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.snaps))
}
