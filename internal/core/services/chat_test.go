package services

import (
	"context"
	"errors"
	"io"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

func history(t *testing.T, r *rig, id string) []domain.Turn {
	t.Helper()
	sess, err := r.sessions.Load(context.Background(), id)
	require.NoError(t, err)
	return sess.History
}

func TestChat_AskRecordsExchange(t *testing.T) {
	r := newRig(t)
	sess := r.ingestText(t, "invoice.txt", invoiceText)
	chat := r.chat(newFakeLLM("The total is ", "$450 (Page 2)."))

	stream, err := chat.Ask(context.Background(), sess.ID, "What is the invoice total?", nil)
	require.NoError(t, err)
	require.NotEmpty(t, stream.Passages())
	assert.Equal(t, 2, stream.Passages()[0].Page)

	toks, err := drain(t, stream.Next)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"The total is ", "$450 (Page 2)."}, toks)
	assert.Equal(t, domain.RunCompleted, stream.State())
	require.NoError(t, stream.Close())

	assert.Equal(t, []domain.Turn{
		{Role: domain.RoleUser, Text: "What is the invoice total?"},
		{Role: domain.RoleAssistant, Text: "The total is $450 (Page 2)."},
	}, history(t, r, sess.ID))

	_, active := chat.ActiveRun(sess.ID)
	assert.False(t, active)
}

func TestChat_HistoryGrowsByTwoPerAsk(t *testing.T) {
	r := newRig(t)
	sess := r.ingestText(t, "invoice.txt", invoiceText)
	chat := r.chat(newFakeLLM("ok"))

	for i := 1; i <= 3; i++ {
		stream, err := chat.Ask(context.Background(), sess.ID, "invoice?", nil)
		require.NoError(t, err)
		_, err = drain(t, stream.Next)
		require.ErrorIs(t, err, io.EOF)
		assert.Len(t, history(t, r, sess.ID), 2*i)
	}
}

func TestChat_CancelledRecordsPartialAnswer(t *testing.T) {
	r := newRig(t)
	sess := r.ingestText(t, "invoice.txt", invoiceText)
	chat := r.chat(newFakeLLM("The ", "total ", "is $450."))

	var stop atomic.Bool
	stream, err := chat.Ask(context.Background(), sess.ID, "total?", stop.Load)
	require.NoError(t, err)

	tok, err := stream.Next()
	require.NoError(t, err)
	assert.Equal(t, "The ", tok)
	stop.Store(true)

	_, err = stream.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, domain.RunCancelled, stream.State())

	turns := history(t, r, sess.ID)
	require.Len(t, turns, 2)
	assert.Equal(t, "The ", turns[1].Text)
}

func TestChat_CloseMidStreamRecordsPartialAnswer(t *testing.T) {
	r := newRig(t)
	sess := r.ingestText(t, "invoice.txt", invoiceText)
	chat := r.chat(newFakeLLM("a", "b", "c"))

	stream, err := chat.Ask(context.Background(), sess.ID, "q", nil)
	require.NoError(t, err)
	_, err = stream.Next()
	require.NoError(t, err)

	require.NoError(t, stream.Close())
	require.NoError(t, stream.Close())

	turns := history(t, r, sess.ID)
	require.Len(t, turns, 2)
	assert.Equal(t, "a", turns[1].Text)
}

func TestChat_FailedRunLeavesHistory(t *testing.T) {
	r := newRig(t)
	sess := r.ingestText(t, "invoice.txt", invoiceText)
	llm := newFakeLLM("partial", "never")
	llm.failAt = 1
	llm.failErr = errors.New("connection reset")
	chat := r.chat(llm)

	stream, err := chat.Ask(context.Background(), sess.ID, "q", nil)
	require.NoError(t, err)

	_, err = drain(t, stream.Next)
	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "partial", genErr.Partial)
	require.NoError(t, stream.Close())

	assert.Empty(t, history(t, r, sess.ID))
	_, active := chat.ActiveRun(sess.ID)
	assert.False(t, active)
}

func TestChat_NewAskSupersedesRunningOne(t *testing.T) {
	r := newRig(t)
	sess := r.ingestText(t, "invoice.txt", invoiceText)
	llm := newFakeLLM("a", "b", "c")
	chat := r.chat(llm)

	first, err := chat.Ask(context.Background(), sess.ID, "first", nil)
	require.NoError(t, err)
	_, err = first.Next()
	require.NoError(t, err)
	firstStream := llm.lastStream()

	second, err := chat.Ask(context.Background(), sess.ID, "second", nil)
	require.NoError(t, err)
	assert.NotEqual(t, first.RunID(), second.RunID())

	_, err = first.Next()
	assert.ErrorIs(t, err, domain.ErrRunSuperseded)
	assert.Equal(t, 1, firstStream.closeCount())

	toks, err := drain(t, second.Next)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"a", "b", "c"}, toks)

	require.NoError(t, first.Close())
	require.NoError(t, second.Close())

	turns := history(t, r, sess.ID)
	require.Len(t, turns, 2)
	assert.Equal(t, "second", turns[0].Text)
	assert.Equal(t, "abc", turns[1].Text)
}

func TestChat_AskErrors(t *testing.T) {
	r := newRig(t)
	sess := r.ingestText(t, "invoice.txt", invoiceText)

	_, err := r.chat(nil).Ask(context.Background(), sess.ID, "q", nil)
	assert.ErrorIs(t, err, domain.ErrLLMUnavailable)

	chat := r.chat(newFakeLLM("x"))
	_, err = chat.Ask(context.Background(), sess.ID, "  ", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = chat.Ask(context.Background(), "8f14e45f-ceea-4e67-a2f4-9d3c2b1a0e77", "q", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestChat_RetrieveWithoutLLM(t *testing.T) {
	r := newRig(t)
	sess := r.ingestText(t, "invoice.txt", invoiceText)

	passages, err := r.chat(nil).Retrieve(context.Background(), sess.ID, "invoice total", 1)
	require.NoError(t, err)
	require.Len(t, passages, 1)
	assert.Equal(t, 2, passages[0].Page)
}
