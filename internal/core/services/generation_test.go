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
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

func drain(t *testing.T, next func() (string, error)) ([]string, error) {
	t.Helper()
	var toks []string
	for i := 0; i < 1000; i++ {
		tok, err := next()
		if err != nil {
			return toks, err
		}
		toks = append(toks, tok)
	}
	t.Fatal("stream did not end")
	return nil, nil
}

func TestGenerationOptionsFromSettings(t *testing.T) {
	opts := GenerateOptionsFromSettings(domain.DefaultAppSettings().LLM)
	assert.Equal(t, driven.GenerateOptions{MaxTokens: 512, Temperature: 0.25, TopP: 0.9}, opts)
}

func TestRun_IsLazy(t *testing.T) {
	llm := newFakeLLM("a")
	run := NewGenerator(llm, driven.GenerateOptions{}).Generate(context.Background(), "p", nil)

	assert.Equal(t, domain.RunIdle, run.State())
	assert.NotEmpty(t, run.ID())
	assert.Zero(t, llm.openCount())
}

func TestRun_Completed(t *testing.T) {
	llm := newFakeLLM("Hello", "", " world")
	run := NewGenerator(llm, driven.GenerateOptions{}).Generate(context.Background(), "p", nil)

	toks, err := drain(t, run.Next)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"Hello", " world"}, toks)
	assert.Equal(t, domain.RunCompleted, run.State())
	assert.Equal(t, "Hello world", run.Answer())
	assert.Equal(t, 1, llm.lastStream().closeCount())

	// Terminal runs keep reporting the end of stream.
	_, err = run.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRun_CancelBeforeFirstToken(t *testing.T) {
	llm := newFakeLLM("a", "b")
	run := NewGenerator(llm, driven.GenerateOptions{}).Generate(context.Background(), "p", func() bool { return true })

	_, err := run.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, domain.RunCancelled, run.State())
	assert.Empty(t, run.Answer())
	assert.Zero(t, llm.openCount())
}

func TestRun_CancelAfterTokens(t *testing.T) {
	var stop atomic.Bool
	llm := newFakeLLM("a", "b", "c", "d")
	run := NewGenerator(llm, driven.GenerateOptions{}).Generate(context.Background(), "p", stop.Load)

	for _, want := range []string{"a", "b"} {
		tok, err := run.Next()
		require.NoError(t, err)
		assert.Equal(t, want, tok)
	}
	stop.Store(true)

	_, err := run.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, domain.RunCancelled, run.State())
	assert.Equal(t, "ab", run.Answer())
	assert.Equal(t, 1, llm.lastStream().closeCount())
}

func TestRun_TokenReceivedAfterCancelIsDiscarded(t *testing.T) {
	var stop atomic.Bool
	llm := newFakeLLM("a", "b", "c", "d")
	llm.onToken = func(i int) {
		if i == 2 {
			stop.Store(true)
		}
	}
	run := NewGenerator(llm, driven.GenerateOptions{}).Generate(context.Background(), "p", stop.Load)

	toks, err := drain(t, run.Next)
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, []string{"a", "b"}, toks)
	assert.Equal(t, "ab", run.Answer())
	assert.Equal(t, domain.RunCancelled, run.State())
}

func TestRun_FailedKeepsPartialAnswer(t *testing.T) {
	boom := errors.New("connection reset")
	llm := newFakeLLM("a", "b", "c")
	llm.failAt = 2
	llm.failErr = boom
	run := NewGenerator(llm, driven.GenerateOptions{}).Generate(context.Background(), "p", nil)

	toks, err := drain(t, run.Next)
	assert.Equal(t, []string{"a", "b"}, toks)
	assert.ErrorIs(t, err, boom)

	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, "ab", genErr.Partial)
	assert.Equal(t, domain.RunFailed, run.State())
	assert.Equal(t, 1, llm.lastStream().closeCount())

	_, again := run.Next()
	assert.Equal(t, err, again)
}

func TestRun_StreamOpenFailure(t *testing.T) {
	llm := newFakeLLM()
	llm.streamErr = errors.New("HTTP 500")
	run := NewGenerator(llm, driven.GenerateOptions{}).Generate(context.Background(), "p", nil)

	_, err := run.Next()
	var genErr *domain.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Empty(t, genErr.Partial)
	assert.Equal(t, domain.RunFailed, run.State())
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	llm := newFakeLLM("a", "b")
	run := NewGenerator(llm, driven.GenerateOptions{}).Generate(ctx, "p", nil)

	_, err := run.Next()
	require.NoError(t, err)
	cancel()

	_, err = run.Next()
	assert.ErrorIs(t, err, io.EOF)
	assert.Equal(t, domain.RunCancelled, run.State())
	assert.Equal(t, "a", run.Answer())
}

func TestRun_Close(t *testing.T) {
	llm := newFakeLLM("a", "b")
	run := NewGenerator(llm, driven.GenerateOptions{}).Generate(context.Background(), "p", nil)

	_, err := run.Next()
	require.NoError(t, err)

	require.NoError(t, run.Close())
	require.NoError(t, run.Close())
	assert.Equal(t, domain.RunCancelled, run.State())
	assert.Equal(t, 1, llm.lastStream().closeCount())

	_, err = run.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestRun_CloseAfterCompletionKeepsState(t *testing.T) {
	run := NewGenerator(newFakeLLM("a"), driven.GenerateOptions{}).Generate(context.Background(), "p", nil)

	_, err := drain(t, run.Next)
	require.ErrorIs(t, err, io.EOF)
	require.NoError(t, run.Close())
	assert.Equal(t, domain.RunCompleted, run.State())
}
