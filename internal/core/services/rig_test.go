package services

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/adapters/driven/embedding/local"
	"github.com/custodia-labs/docqa/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/extractors"
	"github.com/custodia-labs/docqa/internal/extractors/plaintext"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
	"github.com/custodia-labs/docqa/internal/vectorindex"
)

const invoiceText = "Quarterly staffing report covering headcount and office locations.\f" +
	"Invoice total: $450 payable on receipt.\f" +
	"Appendix with contact names and phone numbers."

// rig wires the services to in-memory stores and the local embedder.
type rig struct {
	sessions  *memory.SessionStore
	documents *memory.DocumentStore
	indexes   *memory.IndexStore
	embedder  driven.EmbeddingService
	cache     *vectorindex.Cache
	retriever *Retriever
	ingest    *IngestionService
}

func newRig(t *testing.T) *rig {
	t.Helper()
	r := &rig{
		sessions:  memory.NewSessionStore(),
		documents: memory.NewDocumentStore(),
		indexes:   memory.NewIndexStore(),
		embedder:  local.NewEmbeddingService(256),
	}
	r.cache = vectorindex.NewCache(r.indexes)
	r.retriever = NewRetriever(r.cache, r.embedder, domain.DefaultTopK)
	r.ingest = NewIngestionService(
		extractors.NewRegistry(plaintext.New()),
		chunker.New(),
		r.embedder,
		r.sessions,
		r.documents,
		r.indexes,
	)
	return r
}

func (r *rig) ingestText(t *testing.T, filename, text string) *domain.Session {
	t.Helper()
	sess, err := r.ingest.Ingest(context.Background(), []byte(text), filename, nil)
	require.NoError(t, err)
	return sess
}

func (r *rig) chat(llm driven.LLMService) *ChatService {
	var gen *Generator
	if llm != nil {
		gen = NewGenerator(llm, GenerateOptionsFromSettings(domain.DefaultAppSettings().LLM))
	}
	return NewChatService(r.sessions, r.retriever, gen)
}
