package domain

import (
	"errors"
	"fmt"
	"strings"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates no extractor handles the document's format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrEmptyDocument indicates a document produced no indexable text.
	ErrEmptyDocument = errors.New("document contains no extractable text")

	// ErrIndexNotFound indicates no index is persisted for a session.
	ErrIndexNotFound = errors.New("index not found")

	// ErrDimensionMismatch indicates a vector does not match the index dimensionality.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrEmbedderMismatch indicates the index was built with a different embedding model.
	ErrEmbedderMismatch = errors.New("embedding model mismatch")

	// ErrRunSuperseded indicates a newer run replaced this one.
	// Tokens from a superseded run are discarded.
	ErrRunSuperseded = errors.New("run superseded")

	// ErrLLMUnavailable indicates the LLM service is not configured or unreachable.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured or unreachable.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")
)

// IngestionError reports a document that could not be turned into a session.
type IngestionError struct {
	Filename string
	Err      error
}

func (e *IngestionError) Error() string {
	return fmt.Sprintf("ingest %q: %v", e.Filename, e.Err)
}

func (e *IngestionError) Unwrap() error { return e.Err }

// IndexNotFoundError reports a session with no persisted index.
type IndexNotFoundError struct {
	SessionID string
}

func (e *IndexNotFoundError) Error() string {
	return fmt.Sprintf("index not found for session %s", e.SessionID)
}

// Is matches ErrIndexNotFound and ErrNotFound.
func (e *IndexNotFoundError) Is(target error) bool {
	return target == ErrIndexNotFound || target == ErrNotFound
}

// EmbeddingError reports a failure of the embedding backend.
type EmbeddingError struct {
	// Op is what was being embedded ("chunks", "query").
	Op  string
	Err error
}

func (e *EmbeddingError) Error() string {
	return fmt.Sprintf("embed %s: %v", e.Op, e.Err)
}

func (e *EmbeddingError) Unwrap() error { return e.Err }

// GenerationError reports a streaming failure. Partial holds whatever answer
// text was produced before the failure.
type GenerationError struct {
	Partial string
	Err     error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("generation failed after %d bytes: %v", len(e.Partial), e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// StoragePart names one half of a session's persisted state.
type StoragePart string

// Session storage parts.
const (
	StorageDocument StoragePart = "document"
	StorageMetadata StoragePart = "metadata"
	StorageIndex    StoragePart = "index"
)

// DeletionError reports which parts of a session could not be removed.
type DeletionError struct {
	SessionID string
	Parts     []StoragePart
	Err       error
}

func (e *DeletionError) Error() string {
	parts := make([]string, len(e.Parts))
	for i, p := range e.Parts {
		parts[i] = string(p)
	}
	return fmt.Sprintf("delete session %s: failed to remove %s: %v",
		e.SessionID, strings.Join(parts, ", "), e.Err)
}

func (e *DeletionError) Unwrap() error { return e.Err }

// Failed reports whether the named part could not be removed.
func (e *DeletionError) Failed(part StoragePart) bool {
	for _, p := range e.Parts {
		if p == part {
			return true
		}
	}
	return false
}
