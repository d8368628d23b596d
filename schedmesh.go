// Package schedmesh provides a high-level façade over the scheduling
// subsystem of a distributed compute cluster. Most applications interact
// with this package by:
//  1. Creating a Mesh via New() (optionally overriding the actor pool, logger
//     or metrics registry), or using the process-wide default through Create
//  2. Obtaining the scheduling API of a session at a cluster address
//  3. Submitting, reprioritizing, cancelling and finishing subtasks through it
//
// The façade delegates resolution and caching to scheduling.Cache while
// keeping setup concise. CreateMock brings up a single-node topology in
// process, which is safe for local development and testing.
package schedmesh

import (
	"context"
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/schedmesh/actor"
	"github.com/hupe1980/schedmesh/logging"
	"github.com/hupe1980/schedmesh/scheduling"
)

// Options configures the Mesh instance.
type Options struct {
	// Pool hosts the cluster's actors. Defaults to actor.Default().
	Pool *actor.Pool

	// Registerer, when set, receives the facade metrics.
	Registerer prometheus.Registerer

	// Scheduling adjusts the cache and API options (batch window, cache
	// bound, resolver, locator).
	Scheduling []func(o *scheduling.Options)

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// Mesh is the high-level façade aggregating an actor pool and the handle
// cache resolving against it.
type Mesh struct {
	opts  Options
	cache *scheduling.Cache
}

// New creates a Mesh. It fails only when the metrics cannot be registered.
func New(optFns ...func(o *Options)) (*Mesh, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Pool == nil {
		opts.Pool = actor.Default()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	var metrics *scheduling.Metrics
	if opts.Registerer != nil {
		m, err := scheduling.NewMetrics(opts.Registerer)
		if err != nil {
			return nil, err
		}
		metrics = m
	}

	fns := append([]func(o *scheduling.Options){func(o *scheduling.Options) {
		o.Logger = opts.Logger
		o.Metrics = metrics
	}}, opts.Scheduling...)

	return &Mesh{opts: opts, cache: scheduling.NewCache(opts.Pool, fns...)}, nil
}

// Pool returns the actor pool of the mesh.
func (m *Mesh) Pool() *actor.Pool { return m.opts.Pool }

// Cache returns the handle cache of the mesh.
func (m *Mesh) Cache() *scheduling.Cache { return m.cache }

// API returns the scheduling API of sessionID at address.
func (m *Mesh) API(ctx context.Context, sessionID, address string) (*scheduling.API, error) {
	return m.cache.Get(ctx, sessionID, address)
}

// CreateMock bootstraps an in-process topology for sessionID at address and
// returns its scheduling API.
func (m *Mesh) CreateMock(ctx context.Context, sessionID, address string, optFns ...func(o *scheduling.MockOptions)) (*scheduling.API, error) {
	return m.cache.CreateMock(ctx, sessionID, address, optFns...)
}

// Close stops priority update coalescing on every cached API.
func (m *Mesh) Close() { m.cache.Close() }

var (
	defaultOnce sync.Once
	defaultMesh *Mesh
)

// Default returns the process-wide Mesh over actor.Default().
func Default() *Mesh {
	defaultOnce.Do(func() {
		// Without a registerer New cannot fail.
		defaultMesh, _ = New()
	})
	return defaultMesh
}

// Create returns the scheduling API of sessionID at address from the
// process-wide Mesh. Repeated calls for the same pair return the same API.
func Create(ctx context.Context, sessionID, address string) (*scheduling.API, error) {
	return Default().API(ctx, sessionID, address)
}

// CreateMock bootstraps an in-process topology in the process-wide Mesh and
// returns the session's scheduling API.
func CreateMock(ctx context.Context, sessionID, address string, optFns ...func(o *scheduling.MockOptions)) (*scheduling.API, error) {
	return Default().CreateMock(ctx, sessionID, address, optFns...)
}
