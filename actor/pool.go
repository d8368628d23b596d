package actor

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/schedmesh/logging"
)

var (
	// ErrActorNotFound is returned when no actor with the requested uid lives
	// at the requested address.
	ErrActorNotFound = errors.New("actor not found")

	// ErrActorExists is returned when creating an actor whose uid is already
	// taken at the address.
	ErrActorExists = errors.New("actor already exists")

	// ErrUnreachable is returned when the address hosts no actors at all.
	ErrUnreachable = errors.New("address unreachable")

	// ErrActorType is returned by RefAs when the actor does not implement the
	// requested contract.
	ErrActorType = errors.New("actor has unexpected type")
)

// Destroyer is implemented by actors that release resources on removal.
type Destroyer interface {
	Destroy(ctx context.Context) error
}

// Options configures a Pool.
type Options struct {
	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger
}

// Pool is a concurrency safe registry of actors grouped by address.
type Pool struct {
	mu     sync.RWMutex
	actors map[string]map[string]any // address -> uid -> actor
	logger logging.Logger
}

// NewPool constructs an empty pool.
func NewPool(optFns ...func(o *Options)) *Pool {
	opts := Options{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Pool{actors: make(map[string]map[string]any), logger: opts.Logger}
}

var (
	defaultPool     *Pool
	defaultPoolOnce sync.Once
)

// Default returns the process-wide pool.
func Default() *Pool {
	defaultPoolOnce.Do(func() { defaultPool = NewPool() })
	return defaultPool
}

// Create registers an actor under uid at address.
func (p *Pool) Create(ctx context.Context, address, uid string, a any) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if a == nil {
		return fmt.Errorf("create actor %s at %s: nil actor", uid, address)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	byUID, ok := p.actors[address]
	if !ok {
		byUID = make(map[string]any)
		p.actors[address] = byUID
	}
	if _, exists := byUID[uid]; exists {
		return fmt.Errorf("%w: %s at %s", ErrActorExists, uid, address)
	}
	byUID[uid] = a
	p.logger.Debug("actor created", "uid", uid, "address", address)
	return nil
}

// Ref returns the actor registered under uid at address.
func (p *Pool) Ref(ctx context.Context, uid, address string) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p.mu.RLock()
	defer p.mu.RUnlock()
	byUID, ok := p.actors[address]
	if !ok || len(byUID) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrUnreachable, address)
	}
	a, ok := byUID[uid]
	if !ok {
		return nil, fmt.Errorf("%w: %s at %s", ErrActorNotFound, uid, address)
	}
	return a, nil
}

// Has reports whether uid is registered at address.
func (p *Pool) Has(uid, address string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.actors[address][uid]
	return ok
}

// Destroy removes an actor, calling its Destroy hook when present.
func (p *Pool) Destroy(ctx context.Context, uid, address string) error {
	p.mu.Lock()
	a, ok := p.actors[address][uid]
	if ok {
		delete(p.actors[address], uid)
		if len(p.actors[address]) == 0 {
			delete(p.actors, address)
		}
	}
	p.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s at %s", ErrActorNotFound, uid, address)
	}
	p.logger.Debug("actor destroyed", "uid", uid, "address", address)
	if d, ok := a.(Destroyer); ok {
		return d.Destroy(ctx)
	}
	return nil
}

// Addresses returns a snapshot of every address hosting at least one actor.
func (p *Pool) Addresses() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	addrs := make([]string, 0, len(p.actors))
	for addr := range p.actors {
		addrs = append(addrs, addr)
	}
	return addrs
}

// RefAs resolves an actor and asserts it implements T.
func RefAs[T any](ctx context.Context, p *Pool, uid, address string) (T, error) {
	var zero T
	a, err := p.Ref(ctx, uid, address)
	if err != nil {
		return zero, err
	}
	typed, ok := a.(T)
	if !ok {
		return zero, fmt.Errorf("%w: %s at %s is %T", ErrActorType, uid, address, a)
	}
	return typed, nil
}
