package disk

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore keeps uploaded files in data/<id>/.
type DocumentStore struct {
	layout Layout
}

// NewDocumentStore creates a document store rooted at root.
func NewDocumentStore(root string) (*DocumentStore, error) {
	l := Layout{Root: root}
	if err := os.MkdirAll(l.DataDir(), 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}
	return &DocumentStore{layout: l}, nil
}

// path resolves the stored file, keeping only the base name of filename.
func (s *DocumentStore) path(id, filename string) (string, error) {
	dir, err := s.layout.SessionDir(id)
	if err != nil {
		return "", err
	}
	base := filepath.Base(filepath.Clean("/" + filename))
	if base == "/" || base == "." || base == metaFileName {
		return "", fmt.Errorf("%w: filename %q", domain.ErrInvalidInput, filename)
	}
	return filepath.Join(dir, base), nil
}

// Put writes the document bytes.
func (s *DocumentStore) Put(_ context.Context, id, filename string, data []byte) error {
	p, err := s.path(id, filename)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0700); err != nil {
		return fmt.Errorf("creating session directory: %w", err)
	}
	if err := writeFileAtomic(p, data, 0600); err != nil {
		return fmt.Errorf("storing document: %w", err)
	}
	return nil
}

// Get reads the document bytes.
func (s *DocumentStore) Get(_ context.Context, id, filename string) ([]byte, error) {
	p, err := s.path(id, filename)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(p)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("document %s: %w", filename, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("reading document: %w", err)
	}
	return data, nil
}

// Exists reports whether the session directory exists.
func (s *DocumentStore) Exists(_ context.Context, id string) (bool, error) {
	dir, err := s.layout.SessionDir(id)
	if err != nil {
		return false, err
	}
	_, err = os.Stat(dir)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Delete removes the whole session directory.
func (s *DocumentStore) Delete(_ context.Context, id string) error {
	dir, err := s.layout.SessionDir(id)
	if err != nil {
		return err
	}
	if err := os.RemoveAll(dir); err != nil {
		return fmt.Errorf("deleting documents of %s: %w", id, err)
	}
	return nil
}
