package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/extractors"
	"github.com/custodia-labs/docqa/internal/extractors/plaintext"
	"github.com/custodia-labs/docqa/internal/postprocessors/chunker"
)

func TestIngest_CreatesSession(t *testing.T) {
	r := newRig(t)
	progress := &recordingProgress{}

	sess, err := r.ingest.Ingest(context.Background(), []byte(invoiceText), "dir/Q3 invoice.txt", progress)
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "Q3_invoice", sess.DisplayName)
	assert.Equal(t, "Q3 invoice.txt", sess.SourceFilename)
	assert.Empty(t, sess.History)
	assert.False(t, sess.CreatedAt.IsZero())

	stored, err := r.sessions.Load(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.ID, stored.ID)

	data, err := r.documents.Get(context.Background(), sess.ID, sess.SourceFilename)
	require.NoError(t, err)
	assert.Equal(t, invoiceText, string(data))

	snap, err := r.indexes.Load(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Equal(t, r.embedder.Identity(), snap.EmbeddingModel)
	assert.Equal(t, 256, snap.Dimensions)
	require.Len(t, snap.Chunks, 3)
	for i, c := range snap.Chunks {
		assert.Equal(t, i+1, c.Page)
	}

	assert.Equal(t, []string{StageExtract, StageChunk, StageEmbed, StageSave}, progress.stages)
	assert.True(t, progress.done)
	assert.False(t, r.cache.Contains(sess.ID))
}

func TestIngest_BatchesEmbeddings(t *testing.T) {
	r := newRig(t)
	r.ingest.SetBatchSize(2)

	sess := r.ingestText(t, "invoice.txt", invoiceText)
	snap, err := r.indexes.Load(context.Background(), sess.ID)
	require.NoError(t, err)
	assert.Len(t, snap.Chunks, 3)
}

func TestIngest_Rejects(t *testing.T) {
	tests := []struct {
		name     string
		data     string
		filename string
		want     error
	}{
		{"empty data", "", "a.txt", domain.ErrInvalidInput},
		{"empty filename", "text", " ", domain.ErrInvalidInput},
		{"unsupported type", "text", "a.xyz", domain.ErrUnsupportedType},
		{"whitespace only", " \n\f\t ", "a.txt", domain.ErrEmptyDocument},
		{"invalid utf8", "\xff\xfe", "a.txt", domain.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newRig(t)
			_, err := r.ingest.Ingest(context.Background(), []byte(tt.data), tt.filename, nil)

			var ingErr *domain.IngestionError
			require.ErrorAs(t, err, &ingErr)
			assert.ErrorIs(t, err, tt.want)

			list, err := r.sessions.List(context.Background())
			require.NoError(t, err)
			assert.Empty(t, list)
		})
	}
}

func TestIngest_EmbeddingFailure(t *testing.T) {
	r := newRig(t)
	boom := errors.New("backend down")
	svc := NewIngestionService(
		extractors.NewRegistry(plaintext.New()), chunker.New(),
		&fakeEmbedder{identity: "fake:model", dims: 4, err: boom},
		r.sessions, r.documents, r.indexes,
	)

	_, err := svc.Ingest(context.Background(), []byte(invoiceText), "a.txt", nil)

	var embErr *domain.EmbeddingError
	require.ErrorAs(t, err, &embErr)
	assert.Equal(t, "chunks", embErr.Op)
	assert.ErrorIs(t, err, boom)

	list, err := r.sessions.List(context.Background())
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestIngest_PersistenceFailureCleansUp(t *testing.T) {
	r := newRig(t)
	sessions := &failingSessionStore{SessionStore: r.sessions, saveErr: errors.New("disk full")}
	svc := NewIngestionService(
		extractors.NewRegistry(plaintext.New()), chunker.New(), r.embedder,
		sessions, r.documents, r.indexes,
	)

	_, err := svc.Ingest(context.Background(), []byte(invoiceText), "a.txt", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")

	// The document and index written before the failure are gone.
	assert.Empty(t, r.documents.Sessions())
	assert.Empty(t, r.indexes.Sessions())
}

func TestIngest_SupportedExtensions(t *testing.T) {
	r := newRig(t)
	assert.Equal(t, []string{".text", ".txt"}, r.ingest.SupportedExtensions())
}
