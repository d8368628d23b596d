package cluster

import (
	"context"
	"errors"
	"fmt"

	"github.com/cespare/xxhash/v2"

	"github.com/hupe1980/schedmesh/actor"
	"github.com/hupe1980/schedmesh/logging"
)

// ErrNoSupervisor is returned when the locator reports an empty cluster.
var ErrNoSupervisor = errors.New("no supervisor available")

// Options configures an API.
type Options struct {
	// Locator defaults to a StaticLocator holding only the API's own address.
	Locator Locator
	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger
}

// API answers membership queries on behalf of a node at a cluster address.
type API struct {
	pool    *actor.Pool
	address string
	locator Locator
	logger  logging.Logger
}

// New creates a cluster API bound to address. The address must host at least
// one actor in the pool, otherwise actor.ErrUnreachable is returned.
func New(ctx context.Context, pool *actor.Pool, address string, optFns ...func(o *Options)) (*API, error) {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Locator == nil {
		opts.Locator = StaticLocator{address}
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	reachable := false
	for _, addr := range pool.Addresses() {
		if addr == address {
			reachable = true
			break
		}
	}
	if !reachable {
		return nil, fmt.Errorf("cluster api: %w: %s", actor.ErrUnreachable, address)
	}
	return &API{pool: pool, address: address, locator: opts.Locator, logger: opts.Logger}, nil
}

// Address returns the address the API is bound to.
func (a *API) Address() string { return a.address }

// GetSupervisors returns every supervisor address of the cluster.
func (a *API) GetSupervisors(ctx context.Context) ([]string, error) {
	sups, err := a.locator.Supervisors(ctx)
	if err != nil {
		return nil, err
	}
	if len(sups) == 0 {
		return nil, ErrNoSupervisor
	}
	return sups, nil
}

// GetSupervisorsByKeys maps every key to the supervisor responsible for it.
// The mapping is stable for a given membership.
func (a *API) GetSupervisorsByKeys(ctx context.Context, keys []string) ([]string, error) {
	sups, err := a.GetSupervisors(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = sups[xxhash.Sum64String(k)%uint64(len(sups))]
	}
	return out, nil
}

// GetSupervisorRefs resolves supervisor-wide singletons by uid, each at the
// supervisor responsible for it.
func (a *API) GetSupervisorRefs(ctx context.Context, uids []string) ([]any, error) {
	addrs, err := a.GetSupervisorsByKeys(ctx, uids)
	if err != nil {
		return nil, err
	}
	refs := make([]any, len(uids))
	for i, uid := range uids {
		ref, err := a.pool.Ref(ctx, uid, addrs[i])
		if err != nil {
			a.logger.Warn("supervisor ref lookup failed", "uid", uid, "supervisor", addrs[i], "error", err)
			return nil, err
		}
		refs[i] = ref
	}
	return refs, nil
}
