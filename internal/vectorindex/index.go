package vectorindex

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// Hit is one search result.
type Hit struct {
	Chunk domain.Chunk
	Score float64
}

// Index is an in-memory flat vector index.
// Add must not be called concurrently with Search; a fully built index is
// safe for concurrent searches.
type Index struct {
	model  string
	dims   int
	chunks []domain.Chunk
	norms  []float64
}

// New creates an empty index for vectors of the given dimensionality
// produced by the named embedding model.
func New(model string, dims int) (*Index, error) {
	if dims <= 0 {
		return nil, fmt.Errorf("new index: dimensions %d: %w", dims, domain.ErrInvalidInput)
	}
	return &Index{model: model, dims: dims}, nil
}

// FromSnapshot rebuilds an index from its persisted form.
func FromSnapshot(snap *domain.IndexSnapshot) (*Index, error) {
	if snap == nil {
		return nil, fmt.Errorf("load snapshot: %w", domain.ErrInvalidInput)
	}
	ix, err := New(snap.EmbeddingModel, snap.Dimensions)
	if err != nil {
		return nil, err
	}
	ix.chunks = make([]domain.Chunk, 0, len(snap.Chunks))
	ix.norms = make([]float64, 0, len(snap.Chunks))
	for _, c := range snap.Chunks {
		if err := ix.Add(c); err != nil {
			return nil, err
		}
	}
	return ix, nil
}

// Add appends a chunk. Its vector must match the index dimensionality.
func (ix *Index) Add(c domain.Chunk) error {
	if len(c.Vector) != ix.dims {
		return fmt.Errorf("add chunk %d (page %d): got %d dimensions, want %d: %w",
			len(ix.chunks), c.Page, len(c.Vector), ix.dims, domain.ErrDimensionMismatch)
	}
	c.Vector = slices.Clone(c.Vector)
	ix.chunks = append(ix.chunks, c)
	ix.norms = append(ix.norms, norm(c.Vector))
	return nil
}

// Search returns up to k chunks ranked by cosine similarity to query,
// highest first. Ties keep insertion order.
func (ix *Index) Search(query []float32, k int) ([]Hit, error) {
	if len(query) != ix.dims {
		return nil, fmt.Errorf("search: got %d dimensions, want %d: %w",
			len(query), ix.dims, domain.ErrDimensionMismatch)
	}
	if k <= 0 || len(ix.chunks) == 0 {
		return nil, nil
	}

	qn := norm(query)
	hits := make([]Hit, len(ix.chunks))
	for i, c := range ix.chunks {
		hits[i] = Hit{Chunk: c, Score: cosine(query, qn, c.Vector, ix.norms[i])}
	}
	slices.SortStableFunc(hits, func(a, b Hit) int {
		return cmp.Compare(b.Score, a.Score)
	})

	if k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

// Snapshot returns the persistable form of the index.
func (ix *Index) Snapshot() *domain.IndexSnapshot {
	chunks := make([]domain.Chunk, len(ix.chunks))
	for i, c := range ix.chunks {
		c.Vector = slices.Clone(c.Vector)
		chunks[i] = c
	}
	return &domain.IndexSnapshot{
		EmbeddingModel: ix.model,
		Dimensions:     ix.dims,
		Chunks:         chunks,
	}
}

// Model returns the identity of the embedder that built the index.
func (ix *Index) Model() string { return ix.model }

// Dimensions returns the vector size.
func (ix *Index) Dimensions() int { return ix.dims }

// Len returns the number of chunks.
func (ix *Index) Len() int { return len(ix.chunks) }

func norm(v []float32) float64 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	return math.Sqrt(sum)
}

// cosine returns 0 when either vector has zero length.
func cosine(a []float32, an float64, b []float32, bn float64) float64 {
	if an == 0 || bn == 0 {
		return 0
	}
	var dot float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
	}
	return dot / (an * bn)
}
