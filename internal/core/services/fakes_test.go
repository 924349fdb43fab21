package services

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
)

// fakeLLM streams a fixed token sequence. failAt >= 0 makes the stream fail
// instead of returning the token at that position.
type fakeLLM struct {
	tokens    []string
	failAt    int
	failErr   error
	streamErr error
	onToken   func(i int)

	mu      sync.Mutex
	opened  int
	streams []*fakeStream
}

func newFakeLLM(tokens ...string) *fakeLLM {
	return &fakeLLM{tokens: tokens, failAt: -1}
}

func (f *fakeLLM) Stream(_ context.Context, _ string, _ driven.GenerateOptions) (driven.TokenStream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opened++
	if f.streamErr != nil {
		return nil, f.streamErr
	}
	s := &fakeStream{llm: f}
	f.streams = append(f.streams, s)
	return s, nil
}

func (f *fakeLLM) ModelName() string          { return "fake" }
func (f *fakeLLM) Ping(context.Context) error { return nil }
func (f *fakeLLM) Close() error               { return nil }

func (f *fakeLLM) openCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opened
}

func (f *fakeLLM) lastStream() *fakeStream {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.streams) == 0 {
		return nil
	}
	return f.streams[len(f.streams)-1]
}

type fakeStream struct {
	llm *fakeLLM

	mu     sync.Mutex
	pos    int
	closes int
}

func (s *fakeStream) Next() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closes > 0 {
		return "", errors.New("stream closed")
	}
	i := s.pos
	if i == s.llm.failAt {
		return "", s.llm.failErr
	}
	if i >= len(s.llm.tokens) {
		return "", io.EOF
	}
	s.pos++
	if s.llm.onToken != nil {
		s.llm.onToken(i)
	}
	return s.llm.tokens[i], nil
}

func (s *fakeStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closes++
	return nil
}

func (s *fakeStream) closeCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closes
}

// fakeEmbedder returns a vector of fixed length for every text.
type fakeEmbedder struct {
	identity string
	dims     int
	err      error
}

func (f *fakeEmbedder) Embed(_ context.Context, _ string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	v := make([]float32, f.dims)
	if f.dims > 0 {
		v[0] = 1
	}
	return v, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := f.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (f *fakeEmbedder) Dimensions() int            { return f.dims }
func (f *fakeEmbedder) ModelName() string          { return "fake" }
func (f *fakeEmbedder) Identity() string           { return f.identity }
func (f *fakeEmbedder) Ping(context.Context) error { return nil }
func (f *fakeEmbedder) Close() error               { return nil }

// failingSessionStore wraps a store and fails the selected operations.
type failingSessionStore struct {
	driven.SessionStore
	saveErr   error
	deleteErr error
}

func (f *failingSessionStore) Save(ctx context.Context, s *domain.Session) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.SessionStore.Save(ctx, s)
}

func (f *failingSessionStore) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.SessionStore.Delete(ctx, id)
}

type failingDocumentStore struct {
	driven.DocumentStore
	deleteErr error
}

func (f *failingDocumentStore) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.DocumentStore.Delete(ctx, id)
}

type failingIndexStore struct {
	driven.IndexStore
	saveErr   error
	deleteErr error
}

func (f *failingIndexStore) Save(ctx context.Context, id string, snap *domain.IndexSnapshot) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.IndexStore.Save(ctx, id, snap)
}

func (f *failingIndexStore) Delete(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.IndexStore.Delete(ctx, id)
}

// recordingProgress captures reported stages.
type recordingProgress struct {
	stages   []string
	advanced int
	done     bool
}

func (p *recordingProgress) Stage(name string, _ int) { p.stages = append(p.stages, name) }
func (p *recordingProgress) Advance(n int)            { p.advanced += n }
func (p *recordingProgress) Done()                    { p.done = true }
