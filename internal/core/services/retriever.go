package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/vectorindex"
)

// Retriever finds the passages of a session's document closest to a question.
type Retriever struct {
	cache    *vectorindex.Cache
	embedder driven.EmbeddingService
	topK     int
}

// NewRetriever creates a retriever. topK <= 0 uses domain.DefaultTopK.
func NewRetriever(cache *vectorindex.Cache, embedder driven.EmbeddingService, topK int) *Retriever {
	if topK <= 0 {
		topK = domain.DefaultTopK
	}
	return &Retriever{cache: cache, embedder: embedder, topK: topK}
}

// Retrieve returns at most k passages, most similar first.
// k <= 0 uses the retriever's default.
func (r *Retriever) Retrieve(ctx context.Context, sessionID, question string, k int) ([]domain.Passage, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: empty question", domain.ErrInvalidInput)
	}
	if k <= 0 {
		k = r.topK
	}

	ix, err := r.cache.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if ix.Model() != "" && ix.Model() != r.embedder.Identity() {
		return nil, &domain.EmbeddingError{
			Op:  "query",
			Err: fmt.Errorf("index built with %s, querying with %s: %w", ix.Model(), r.embedder.Identity(), domain.ErrEmbedderMismatch),
		}
	}

	vec, err := r.embedder.Embed(ctx, question)
	if err != nil {
		return nil, &domain.EmbeddingError{Op: "query", Err: err}
	}
	if len(vec) != ix.Dimensions() {
		return nil, &domain.EmbeddingError{
			Op:  "query",
			Err: fmt.Errorf("query has %d dimensions, index has %d: %w", len(vec), ix.Dimensions(), domain.ErrDimensionMismatch),
		}
	}

	hits, err := ix.Search(vec, k)
	if err != nil {
		return nil, &domain.EmbeddingError{Op: "query", Err: err}
	}

	passages := make([]domain.Passage, len(hits))
	for i, h := range hits {
		passages[i] = domain.Passage{Page: h.Chunk.Page, Text: h.Chunk.Text, Score: h.Score}
	}
	logger.Debug("Retrieved %d passages for session %s", len(passages), sessionID)
	return passages, nil
}
