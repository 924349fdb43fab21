package services

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
	"github.com/custodia-labs/docqa/internal/vectorindex"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestService = (*IngestionService)(nil)

// DefaultEmbedBatchSize is how many chunks are embedded per backend call.
const DefaultEmbedBatchSize = 32

// Ingestion stages reported to a ProgressReporter.
const (
	StageExtract = "extracting pages"
	StageChunk   = "chunking"
	StageEmbed   = "embedding"
	StageSave    = "saving"
)

// IngestionService turns an uploaded document into a new session: raw bytes,
// a persisted vector index and metadata with empty history.
// It does not touch the index cache; the first question loads the index.
type IngestionService struct {
	extractors driven.ExtractorRegistry
	chunker    driven.Chunker
	embedder   driven.EmbeddingService
	sessions   driven.SessionStore
	documents  driven.DocumentStore
	indexes    driven.IndexStore
	batchSize  int
	now        func() time.Time
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(
	extractors driven.ExtractorRegistry,
	chunker driven.Chunker,
	embedder driven.EmbeddingService,
	sessions driven.SessionStore,
	documents driven.DocumentStore,
	indexes driven.IndexStore,
) *IngestionService {
	return &IngestionService{
		extractors: extractors,
		chunker:    chunker,
		embedder:   embedder,
		sessions:   sessions,
		documents:  documents,
		indexes:    indexes,
		batchSize:  DefaultEmbedBatchSize,
		now:        time.Now,
	}
}

// SetBatchSize overrides the embedding batch size.
func (s *IngestionService) SetBatchSize(n int) {
	if n > 0 {
		s.batchSize = n
	}
}

// SupportedExtensions lists the file extensions that can be ingested.
func (s *IngestionService) SupportedExtensions() []string {
	return s.extractors.Extensions()
}

// Ingest indexes data under a fresh session id. Every failure is an
// *domain.IngestionError and leaves nothing persisted.
func (s *IngestionService) Ingest(
	ctx context.Context, data []byte, filename string, progress driving.ProgressReporter,
) (*domain.Session, error) {
	if progress == nil {
		progress = nopProgress{}
	}
	defer progress.Done()

	filename = strings.TrimSpace(filename)
	fail := func(err error) (*domain.Session, error) {
		logger.Warn("Ingestion of %q failed: %v", filename, err)
		return nil, &domain.IngestionError{Filename: filename, Err: err}
	}

	logger.Section("Ingestion")
	logger.Debug("File: %s (%d bytes)", filename, len(data))

	if filename == "" || len(data) == 0 {
		return fail(fmt.Errorf("%w: empty document or filename", domain.ErrInvalidInput))
	}

	extractor, err := s.extractors.For(filename)
	if err != nil {
		return fail(err)
	}

	progress.Stage(StageExtract, 1)
	pages, err := extractor.Extract(ctx, data)
	if err != nil {
		return fail(fmt.Errorf("%s: %w", extractor.Name(), err))
	}
	progress.Advance(1)
	logger.Debug("Extracted %d pages with %s", len(pages), extractor.Name())

	chunks, err := s.chunk(ctx, pages, progress)
	if err != nil {
		return fail(err)
	}
	if len(chunks) == 0 {
		return fail(domain.ErrEmptyDocument)
	}

	ix, err := s.embed(ctx, chunks, progress)
	if err != nil {
		return fail(err)
	}

	sess := &domain.Session{
		ID:             uuid.NewString(),
		DisplayName:    domain.DisplayNameFromFilename(filename),
		SourceFilename: filepath.Base(filename),
		CreatedAt:      s.now().UTC(),
		History:        []domain.Turn{},
	}

	if err := s.persist(ctx, sess, data, ix, progress); err != nil {
		return fail(err)
	}

	logger.Info("Ingested %s as session %s: %d pages, %d chunks", filename, sess.ID, len(pages), ix.Len())
	return sess, nil
}

func (s *IngestionService) chunk(ctx context.Context, pages []domain.Page, progress driving.ProgressReporter) ([]domain.Chunk, error) {
	progress.Stage(StageChunk, len(pages))
	var chunks []domain.Chunk
	for _, page := range pages {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pageChunks, err := s.chunker.Chunk(ctx, page)
		if err != nil {
			return nil, fmt.Errorf("chunk page %d: %w", page.Number, err)
		}
		chunks = append(chunks, pageChunks...)
		progress.Advance(1)
	}
	logger.Debug("Chunked into %d chunks with %s", len(chunks), s.chunker.Name())
	return chunks, nil
}

// embed vectors every chunk and builds the index. The index dimensionality is
// taken from the first vector; every other vector must match it.
func (s *IngestionService) embed(ctx context.Context, chunks []domain.Chunk, progress driving.ProgressReporter) (*vectorindex.Index, error) {
	progress.Stage(StageEmbed, len(chunks))

	var ix *vectorindex.Index
	for start := 0; start < len(chunks); start += s.batchSize {
		end := min(start+s.batchSize, len(chunks))
		batch := chunks[start:end]

		texts := make([]string, len(batch))
		for i, c := range batch {
			texts[i] = c.Text
		}
		vectors, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, &domain.EmbeddingError{Op: "chunks", Err: err}
		}
		if len(vectors) != len(batch) {
			return nil, &domain.EmbeddingError{
				Op:  "chunks",
				Err: fmt.Errorf("got %d vectors for %d chunks", len(vectors), len(batch)),
			}
		}

		if ix == nil {
			dims := len(vectors[0])
			if dims != s.embedder.Dimensions() {
				logger.Warn("Embedder %s reports %d dimensions but returned %d", s.embedder.Identity(), s.embedder.Dimensions(), dims)
			}
			ix, err = vectorindex.New(s.embedder.Identity(), dims)
			if err != nil {
				return nil, &domain.EmbeddingError{Op: "chunks", Err: err}
			}
		}

		for i, c := range batch {
			c.Vector = vectors[i]
			if err := ix.Add(c); err != nil {
				return nil, &domain.EmbeddingError{Op: "chunks", Err: err}
			}
		}
		progress.Advance(len(batch))
	}
	return ix, nil
}

// persist writes document, index and metadata, removing whatever was written
// if a later step fails.
func (s *IngestionService) persist(
	ctx context.Context, sess *domain.Session, data []byte, ix *vectorindex.Index, progress driving.ProgressReporter,
) error {
	progress.Stage(StageSave, 3)

	steps := []struct {
		name string
		run  func() error
	}{
		{"document", func() error { return s.documents.Put(ctx, sess.ID, sess.SourceFilename, data) }},
		{"index", func() error { return s.indexes.Save(ctx, sess.ID, ix.Snapshot()) }},
		{"metadata", func() error { return s.sessions.Save(ctx, sess) }},
	}
	for _, step := range steps {
		if err := step.run(); err != nil {
			return errors.Join(fmt.Errorf("save %s: %w", step.name, err), s.cleanup(sess.ID))
		}
		progress.Advance(1)
	}
	return nil
}

// cleanup removes a half-written session. It ignores ctx cancellation so an
// interrupted ingest still cleans up.
func (s *IngestionService) cleanup(id string) error {
	ctx := context.Background()
	var errs []error
	if err := s.sessions.Delete(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("cleanup metadata: %w", err))
	}
	if err := s.indexes.Delete(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("cleanup index: %w", err))
	}
	if err := s.documents.Delete(ctx, id); err != nil {
		errs = append(errs, fmt.Errorf("cleanup document: %w", err))
	}
	return errors.Join(errs...)
}

type nopProgress struct{}

func (nopProgress) Stage(string, int) {}
func (nopProgress) Advance(int)       {}
func (nopProgress) Done()             {}
