package vectorindex

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

type fakeLoader struct {
	calls   atomic.Int32
	delay   time.Duration
	release chan struct{}
	snaps   map[string]*domain.IndexSnapshot
}

func (f *fakeLoader) Load(_ context.Context, sessionID string) (*domain.IndexSnapshot, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	time.Sleep(f.delay)
	snap, ok := f.snaps[sessionID]
	if !ok {
		return nil, &domain.IndexNotFoundError{SessionID: sessionID}
	}
	return snap, nil
}

func testSnapshot() *domain.IndexSnapshot {
	return &domain.IndexSnapshot{
		EmbeddingModel: "test:model",
		Dimensions:     2,
		Chunks: []domain.Chunk{
			{Text: "one", Page: 1, Vector: []float32{1, 0}},
			{Text: "two", Page: 2, Vector: []float32{0, 1}},
		},
	}
}

func TestCache_LoadsOnceAndReuses(t *testing.T) {
	loader := &fakeLoader{snaps: map[string]*domain.IndexSnapshot{"s1": testSnapshot()}}
	cache := NewCache(loader)

	first, err := cache.Get(context.Background(), "s1")
	require.NoError(t, err)
	second, err := cache.Get(context.Background(), "s1")
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, int32(1), loader.calls.Load())
	assert.True(t, cache.Contains("s1"))
	assert.Equal(t, 1, cache.Len())
}

func TestCache_ConcurrentGetsShareOneLoad(t *testing.T) {
	loader := &fakeLoader{
		delay: 20 * time.Millisecond,
		snaps: map[string]*domain.IndexSnapshot{"s1": testSnapshot()},
	}
	cache := NewCache(loader)

	const workers = 16
	results := make([]*Index, workers)
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ix, err := cache.Get(context.Background(), "s1")
			assert.NoError(t, err)
			results[i] = ix
		}(i)
	}
	wg.Wait()

	assert.Equal(t, int32(1), loader.calls.Load())
	for _, ix := range results {
		assert.Same(t, results[0], ix)
	}
}

func TestCache_MissingIndex(t *testing.T) {
	cache := NewCache(&fakeLoader{snaps: map[string]*domain.IndexSnapshot{}})

	_, err := cache.Get(context.Background(), "nope")

	var notFound *domain.IndexNotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "nope", notFound.SessionID)
	assert.False(t, cache.Contains("nope"))
}

func TestCache_Evict(t *testing.T) {
	loader := &fakeLoader{snaps: map[string]*domain.IndexSnapshot{"s1": testSnapshot()}}
	cache := NewCache(loader)

	_, err := cache.Get(context.Background(), "s1")
	require.NoError(t, err)

	cache.Evict("s1")
	assert.False(t, cache.Contains("s1"))

	_, err = cache.Get(context.Background(), "s1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), loader.calls.Load())
}

func TestCache_EvictDuringLoadDropsResult(t *testing.T) {
	loader := &fakeLoader{
		release: make(chan struct{}),
		snaps:   map[string]*domain.IndexSnapshot{"s1": testSnapshot()},
	}
	cache := NewCache(loader)

	done := make(chan struct{})
	go func() {
		defer close(done)
		_, err := cache.Get(context.Background(), "s1")
		assert.NoError(t, err)
	}()

	require.Eventually(t, func() bool { return loader.calls.Load() == 1 }, time.Second, time.Millisecond)
	cache.Evict("s1")
	close(loader.release)
	<-done

	assert.False(t, cache.Contains("s1"))
	assert.Zero(t, cache.tracked())
}

func TestCache_GetHonoursContext(t *testing.T) {
	loader := &fakeLoader{
		release: make(chan struct{}),
		snaps:   map[string]*domain.IndexSnapshot{"s1": testSnapshot()},
	}
	cache := NewCache(loader)
	defer close(loader.release)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := cache.Get(ctx, "s1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestCache_EvictKeepsNoBookkeeping(t *testing.T) {
	loader := &fakeLoader{snaps: map[string]*domain.IndexSnapshot{"s1": testSnapshot()}}
	cache := NewCache(loader)

	for _, id := range []string{"s1", "s2", "s3"} {
		_, _ = cache.Get(context.Background(), id)
		cache.Evict(id)
	}
	cache.Evict("never-loaded")

	assert.Zero(t, cache.tracked())
	assert.Zero(t, cache.Len())
}

// ctxLoader blocks until its context is done.
type ctxLoader struct{}

func (ctxLoader) Load(ctx context.Context, _ string) (*domain.IndexSnapshot, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestCache_LoadIsBoundedByTimeout(t *testing.T) {
	cache := NewCache(ctxLoader{})
	assert.Equal(t, LoadTimeout, cache.loadTimeout)
	cache.loadTimeout = 20 * time.Millisecond

	done := make(chan error, 1)
	go func() {
		_, err := cache.Get(context.Background(), "s1")
		done <- err
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.DeadlineExceeded)
	case <-time.After(2 * time.Second):
		t.Fatal("load was not bounded by the load timeout")
	}
	assert.False(t, cache.Contains("s1"))
	assert.Zero(t, cache.tracked())
}

// tracked returns the number of ids holding load bookkeeping.
func (c *Cache) tracked() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.epochs) + len(c.inflight)
}
