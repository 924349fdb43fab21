package vectorindex

import (
	"context"
	"fmt"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/logger"
)

// LoadTimeout bounds a single index load, which keeps running after its
// waiters give up.
const LoadTimeout = 60 * time.Second

// Loader reads a persisted index snapshot. driven.IndexStore satisfies it.
type Loader interface {
	Load(ctx context.Context, sessionID string) (*domain.IndexSnapshot, error)
}

// Cache maps session ids to loaded indexes.
//
// Entries never expire and are only removed by Evict. Hits do not take an
// exclusive lock. A miss runs at most one load per session id at a time;
// concurrent callers for the same id share its result.
type Cache struct {
	items  *gocache.Cache
	loads  singleflight.Group
	loader Loader

	loadTimeout time.Duration

	// epochs and inflight only hold ids with a load in progress. Evict bumps
	// the epoch so that load does not install a stale index.
	mu       sync.Mutex
	epochs   map[string]uint64
	inflight map[string]int
}

// NewCache creates an empty cache backed by loader.
func NewCache(loader Loader) *Cache {
	return &Cache{
		items:       gocache.New(gocache.NoExpiration, 0),
		loader:      loader,
		loadTimeout: LoadTimeout,
		epochs:      make(map[string]uint64),
		inflight:    make(map[string]int),
	}
}

// Get returns the session's index, loading it on first use.
// Returns a *domain.IndexNotFoundError when nothing is persisted for the session.
// Waiting for a shared load stops when ctx is done; the load itself continues
// until it finishes or LoadTimeout passes.
func (c *Cache) Get(ctx context.Context, sessionID string) (*Index, error) {
	if ix, ok := c.lookup(sessionID); ok {
		return ix, nil
	}

	detached := context.WithoutCancel(ctx)
	ch := c.loads.DoChan(sessionID, func() (any, error) {
		if ix, ok := c.lookup(sessionID); ok {
			return ix, nil
		}
		loadCtx, cancel := context.WithTimeout(detached, c.loadTimeout)
		defer cancel()
		return c.load(loadCtx, sessionID)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*Index), nil
	}
}

func (c *Cache) load(ctx context.Context, sessionID string) (*Index, error) {
	epoch := c.begin(sessionID)
	defer c.end(sessionID)

	logger.Debug("Loading index for session %s", sessionID)
	snap, err := c.loader.Load(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("load index: %w", err)
	}
	ix, err := FromSnapshot(snap)
	if err != nil {
		return nil, fmt.Errorf("load index %s: %w", sessionID, err)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// An Evict that raced with the load wins.
	if c.epochs[sessionID] == epoch {
		c.items.Set(sessionID, ix, gocache.NoExpiration)
	}
	logger.Debug("Loaded index for session %s: %d chunks, model %s", sessionID, ix.Len(), ix.Model())
	return ix, nil
}

// Evict drops the session's entry. Called when a session is deleted.
func (c *Cache) Evict(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[sessionID] > 0 {
		c.epochs[sessionID]++
	}
	c.items.Delete(sessionID)
	c.loads.Forget(sessionID)
}

// Contains reports whether the session's index is loaded.
func (c *Cache) Contains(sessionID string) bool {
	_, ok := c.lookup(sessionID)
	return ok
}

// Len returns the number of loaded indexes.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}

func (c *Cache) lookup(sessionID string) (*Index, bool) {
	v, ok := c.items.Get(sessionID)
	if !ok {
		return nil, false
	}
	return v.(*Index), true
}

// begin registers a load and returns the epoch it must still match to install
// its result.
func (c *Cache) begin(sessionID string) uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.inflight[sessionID]++
	return c.epochs[sessionID]
}

func (c *Cache) end(sessionID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.inflight[sessionID]--; c.inflight[sessionID] <= 0 {
		delete(c.inflight, sessionID)
		delete(c.epochs, sessionID)
	}
}
