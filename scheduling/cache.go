package scheduling

import (
	"context"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/hupe1980/schedmesh/actor"
	"github.com/hupe1980/schedmesh/logging"
)

type cacheKey struct {
	sessionID string
	address   string
}

func (k cacheKey) String() string { return k.sessionID + "\x00" + k.address }

// store is the backing map of a Cache.
type store interface {
	Get(key cacheKey) (*API, bool)
	Add(key cacheKey, api *API)
	Remove(key cacheKey) bool
	Len() int
	Values() []*API
}

type mapStore struct {
	mu      sync.RWMutex
	entries map[cacheKey]*API
}

func (s *mapStore) Get(key cacheKey) (*API, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	api, ok := s.entries[key]
	return api, ok
}

func (s *mapStore) Add(key cacheKey, api *API) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = api
}

func (s *mapStore) Remove(key cacheKey) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.entries[key]
	delete(s.entries, key)
	return ok
}

func (s *mapStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *mapStore) Values() []*API {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*API, 0, len(s.entries))
	for _, api := range s.entries {
		out = append(out, api)
	}
	return out
}

type lruStore struct {
	c *lru.Cache[cacheKey, *API]
}

func (s lruStore) Get(key cacheKey) (*API, bool) { return s.c.Get(key) }
func (s lruStore) Add(key cacheKey, api *API)    { s.c.Add(key, api) }
func (s lruStore) Remove(key cacheKey) bool      { return s.c.Remove(key) }
func (s lruStore) Len() int                      { return s.c.Len() }
func (s lruStore) Values() []*API                { return s.c.Values() }

// Cache hands out one API per (session id, address) pair. The first Get for
// a pair resolves its collaborators; concurrent Gets for the same pair share
// that resolution and every later Get returns the same instance. Failed
// resolutions are not cached.
type Cache struct {
	pool     *actor.Pool
	opts     Options
	resolver Resolver
	group    singleflight.Group
	entries  store
}

// NewCache creates a cache resolving against pool unless Options.Resolver
// says otherwise.
func NewCache(pool *actor.Pool, optFns ...func(o *Options)) *Cache {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.normalize()

	resolver := opts.Resolver
	if resolver == nil {
		resolver = NewActorResolver(pool, func(o *ResolverOptions) {
			o.UIDFunc = opts.UIDFunc
			o.Locator = opts.Locator
			o.Logger = opts.Logger
		})
	}

	var entries store = &mapStore{entries: make(map[cacheKey]*API)}
	if opts.MaxEntries > 0 {
		// lru.New only fails for a non-positive size.
		c, _ := lru.New[cacheKey, *API](opts.MaxEntries)
		entries = lruStore{c: c}
	}
	return &Cache{pool: pool, opts: opts, resolver: resolver, entries: entries}
}

// Pool returns the actor pool the cache resolves against.
func (c *Cache) Pool() *actor.Pool { return c.pool }

// Get returns the API of sessionID at address, resolving it on first use.
func (c *Cache) Get(ctx context.Context, sessionID, address string) (*API, error) {
	key := cacheKey{sessionID: sessionID, address: address}
	if api, ok := c.entries.Get(key); ok {
		c.opts.Metrics.observeCacheHit()
		return api, nil
	}

	ch := c.group.DoChan(key.String(), func() (any, error) {
		// A flight for this key may have completed between the lookup above
		// and this one starting.
		if api, ok := c.entries.Get(key); ok {
			return api, nil
		}
		return c.resolve(ctx, key)
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.(*API), nil
	}
}

// resolve runs detached from the cancellation of the caller that started it
// because other callers may be waiting on the same flight.
func (c *Cache) resolve(ctx context.Context, key cacheKey) (*API, error) {
	rctx := context.WithoutCancel(ctx)
	if c.opts.ResolveTimeout > 0 {
		var cancel context.CancelFunc
		rctx, cancel = context.WithTimeout(rctx, c.opts.ResolveTimeout)
		defer cancel()
	}

	start := time.Now()
	refs, err := c.resolver.Resolve(rctx, key.sessionID, key.address)
	dur := time.Since(start)
	c.opts.Metrics.observeResolution(err)
	switch sl, ok := c.opts.Logger.(*logging.SchedLogger); {
	case ok:
		sl.LogResolution(key.sessionID, key.address, dur, err)
	case err != nil:
		c.opts.Logger.Error("scheduling api resolution failed", "session_id", key.sessionID, "address", key.address, "duration", dur, "error", err)
	default:
		c.opts.Logger.Info("scheduling api resolved", "session_id", key.sessionID, "address", key.address, "duration", dur)
	}
	if err != nil {
		return nil, err
	}

	api := newAPI(key.sessionID, key.address, refs, c.opts)
	c.entries.Add(key, api)
	return api, nil
}

// Invalidate drops the cached API of sessionID at address so that the next
// Get resolves again. The dropped instance stays usable by its holders. It
// reports whether an entry was present.
func (c *Cache) Invalidate(sessionID, address string) bool {
	return c.entries.Remove(cacheKey{sessionID: sessionID, address: address})
}

// Len returns the number of cached API instances.
func (c *Cache) Len() int { return c.entries.Len() }

// Close stops coalescing on every cached API.
func (c *Cache) Close() {
	for _, api := range c.entries.Values() {
		api.Close()
	}
}
