package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// IngestService turns an uploaded document into a new session.
type IngestService interface {
	// Ingest indexes data under a fresh session id and returns the session.
	// progress may be nil. On failure nothing is persisted.
	Ingest(ctx context.Context, data []byte, filename string, progress ProgressReporter) (*domain.Session, error)

	// SupportedExtensions lists the file extensions that can be ingested.
	SupportedExtensions() []string
}

// ProgressReporter receives ingestion progress.
type ProgressReporter interface {
	// Stage starts a named stage with a known amount of work.
	Stage(name string, total int)

	// Advance records n units of completed work in the current stage.
	Advance(n int)

	// Done is called once when ingestion ends, successfully or not.
	Done()
}
