package scheduling

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/hupe1980/schedmesh/actor"
	"github.com/hupe1980/schedmesh/cluster"
	"github.com/hupe1980/schedmesh/core"
	"github.com/hupe1980/schedmesh/logging"
)

// Refs are the three collaborators an API forwards to.
type Refs struct {
	Manager    core.SubtaskManager
	Queueing   core.SubtaskQueueing
	Autoscaler core.Autoscaler
}

// Resolver locates the collaborators serving a session at a cluster address.
type Resolver interface {
	Resolve(ctx context.Context, sessionID, address string) (Refs, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(ctx context.Context, sessionID, address string) (Refs, error)

// Resolve calls f.
func (f ResolverFunc) Resolve(ctx context.Context, sessionID, address string) (Refs, error) {
	return f(ctx, sessionID, address)
}

// ResolverOptions configures an ActorResolver.
type ResolverOptions struct {
	// UIDFunc addresses the per-session manager and queueing actors.
	// Defaults to core.GenUID.
	UIDFunc core.UIDFunc
	// Locator is handed to the cluster API used for autoscaler discovery.
	Locator cluster.Locator
	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger
}

// WithUIDFunc overrides the per-session addressing scheme.
func WithUIDFunc(fn core.UIDFunc) func(o *ResolverOptions) {
	return func(o *ResolverOptions) { o.UIDFunc = fn }
}

// WithLocator sets the membership source for autoscaler discovery.
func WithLocator(l cluster.Locator) func(o *ResolverOptions) {
	return func(o *ResolverOptions) { o.Locator = l }
}

// ActorResolver resolves collaborators from an actor.Pool. The manager and
// queueing actors live at the session address under per-session uids; the
// autoscaler is a supervisor singleton found through the cluster API.
type ActorResolver struct {
	pool    *actor.Pool
	uid     core.UIDFunc
	locator cluster.Locator
	logger  logging.Logger
}

// NewActorResolver creates a resolver over pool.
func NewActorResolver(pool *actor.Pool, optFns ...func(o *ResolverOptions)) *ActorResolver {
	opts := ResolverOptions{UIDFunc: core.GenUID, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.UIDFunc == nil {
		opts.UIDFunc = core.GenUID
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &ActorResolver{pool: pool, uid: opts.UIDFunc, locator: opts.Locator, logger: opts.Logger}
}

// Resolve looks up all three collaborators concurrently. Any failure aborts
// the whole resolution with a *core.ResolutionError.
func (r *ActorResolver) Resolve(ctx context.Context, sessionID, address string) (Refs, error) {
	var refs Refs
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := actor.RefAs[core.SubtaskManager](gctx, r.pool, r.uid(core.KindSubtaskManager, sessionID), address)
		if err != nil {
			return r.fail(sessionID, address, core.KindSubtaskManager, err)
		}
		refs.Manager = m
		return nil
	})
	g.Go(func() error {
		q, err := actor.RefAs[core.SubtaskQueueing](gctx, r.pool, r.uid(core.KindSubtaskQueueing, sessionID), address)
		if err != nil {
			return r.fail(sessionID, address, core.KindSubtaskQueueing, err)
		}
		refs.Queueing = q
		return nil
	})
	g.Go(func() error {
		a, err := r.autoscaler(gctx, address)
		if err != nil {
			return r.fail(sessionID, address, core.KindAutoscaler, err)
		}
		refs.Autoscaler = a
		return nil
	})

	if err := g.Wait(); err != nil {
		return Refs{}, err
	}
	return refs, nil
}

func (r *ActorResolver) autoscaler(ctx context.Context, address string) (core.Autoscaler, error) {
	api, err := cluster.New(ctx, r.pool, address, func(o *cluster.Options) {
		o.Locator = r.locator
		o.Logger = r.logger
	})
	if err != nil {
		return nil, err
	}
	refs, err := api.GetSupervisorRefs(ctx, []string{core.DefaultUID(core.KindAutoscaler)})
	if err != nil {
		return nil, err
	}
	a, ok := refs[0].(core.Autoscaler)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not an autoscaler", actor.ErrActorType, refs[0])
	}
	return a, nil
}

func (r *ActorResolver) fail(sessionID, address string, kind core.ComponentKind, err error) error {
	r.logger.Debug("collaborator lookup failed", "session_id", sessionID, "address", address, "component", string(kind), "error", err)
	return &core.ResolutionError{SessionID: sessionID, Address: address, Component: kind, Err: err}
}

var _ Resolver = (*ActorResolver)(nil)
