package scheduling

import (
	"time"

	"github.com/hupe1980/schedmesh/batch"
	"github.com/hupe1980/schedmesh/cluster"
	"github.com/hupe1980/schedmesh/core"
	"github.com/hupe1980/schedmesh/logging"
)

// Options configures a Cache and the API instances it hands out.
//
// Every field has a usable zero value. Callers typically adjust a few fields
// through the functional option passed to NewCache:
//
//	cache := scheduling.NewCache(pool, func(o *scheduling.Options) {
//		o.MaxEntries = 1024
//		o.BatchWindow = 2 * time.Millisecond
//	})
type Options struct {
	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger

	// Metrics records call, batch and resolution metrics. Nil disables metrics.
	Metrics *Metrics

	// Resolver locates the collaborators of a session. Defaults to an
	// ActorResolver over the cache's pool.
	Resolver Resolver

	// UIDFunc addresses per-session actors for the default resolver.
	// Defaults to core.GenUID.
	UIDFunc core.UIDFunc

	// Locator supplies cluster membership to the default resolver. Defaults
	// to the resolved address alone.
	Locator cluster.Locator

	// MaxEntries bounds the number of cached API instances, evicting the
	// least recently used. Zero keeps every instance until invalidated.
	MaxEntries int

	// ResolveTimeout bounds one resolution. Zero means no bound beyond the
	// caller's context.
	ResolveTimeout time.Duration

	// BatchWindow is how long a priority update waits for company before
	// the buffer is flushed. Defaults to batch.DefaultWindow.
	BatchWindow time.Duration

	// MaxBatchSize flushes the priority update buffer once it holds this
	// many updates. Zero means unbounded.
	MaxBatchSize int

	// DisableBatching makes single priority updates fail with
	// core.ErrNotImplemented. UpdateSubtaskPriorities keeps working.
	DisableBatching bool
}

func defaultOptions() Options {
	return Options{
		Logger:      logging.NoOpLogger{},
		UIDFunc:     core.GenUID,
		BatchWindow: batch.DefaultWindow,
	}
}

func (o *Options) normalize() {
	if o.Logger == nil {
		o.Logger = logging.NoOpLogger{}
	}
	if o.UIDFunc == nil {
		o.UIDFunc = core.GenUID
	}
	if o.BatchWindow <= 0 {
		o.BatchWindow = batch.DefaultWindow
	}
	if o.MaxEntries < 0 {
		o.MaxEntries = 0
	}
	if o.MaxBatchSize < 0 {
		o.MaxBatchSize = 0
	}
}
