package driven

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Chunker splits a page into chunks for embedding.
// Returned chunks carry the page number and no vector.
type Chunker interface {
	// Name returns the chunker name for logging.
	Name() string

	// Chunk splits one page. A page without text yields no chunks.
	Chunk(ctx context.Context, page domain.Page) ([]domain.Chunk, error)
}
