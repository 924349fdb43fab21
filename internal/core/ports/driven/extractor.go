package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// PageExtractor turns document bytes into per-page text.
type PageExtractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// Extensions returns the lower-case file extensions handled, with dot.
	Extensions() []string

	// Extract returns the document's pages in order, numbered from 1.
	Extract(ctx context.Context, data []byte) ([]domain.Page, error)
}

// ExtractorRegistry selects an extractor for a filename.
type ExtractorRegistry interface {
	// Register adds an extractor, replacing earlier ones for the same extensions.
	Register(e PageExtractor)

	// For returns the extractor for filename's extension.
	// Returns domain.ErrUnsupportedType if none matches.
	For(filename string) (PageExtractor, error)

	// Extensions lists every supported extension.
	Extensions() []string
}
