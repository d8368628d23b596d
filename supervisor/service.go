package supervisor

import (
	"context"
	"errors"
	"fmt"

	"github.com/hupe1980/schedmesh/actor"
	"github.com/hupe1980/schedmesh/core"
	"github.com/hupe1980/schedmesh/logging"
)

// CreateGlobalResourceManager registers the supervisor-wide resource manager at address.
func CreateGlobalResourceManager(ctx context.Context, pool *actor.Pool, address string) (*GlobalResourceManager, error) {
	g := NewGlobalResourceManager()
	if err := pool.Create(ctx, address, core.DefaultUID(core.KindGlobalResourceManager), g); err != nil {
		return nil, err
	}
	return g, nil
}

// CreateAutoscaler registers the supervisor-wide autoscaler at address.
func CreateAutoscaler(ctx context.Context, pool *actor.Pool, address string, cfg AutoscalerConfig, logger logging.Logger) (*Autoscaler, error) {
	a := NewAutoscaler(cfg, logger)
	if err := pool.Create(ctx, address, core.DefaultUID(core.KindAutoscaler), a); err != nil {
		return nil, err
	}
	return a, nil
}

// ServiceOptions configures a Service.
type ServiceOptions struct {
	// UIDFunc addresses per-session actors. Defaults to core.GenUID.
	UIDFunc core.UIDFunc
	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger
}

// Service is the scheduling supervisor service. It creates the per-session
// manager and queueing actors on top of an existing topology.
type Service struct {
	pool    *actor.Pool
	address string
	uid     core.UIDFunc
	logger  logging.Logger
}

// NewService creates a service for the supervisor at address.
func NewService(pool *actor.Pool, address string, optFns ...func(o *ServiceOptions)) *Service {
	opts := ServiceOptions{UIDFunc: core.GenUID, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.UIDFunc == nil {
		opts.UIDFunc = core.GenUID
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return &Service{pool: pool, address: address, uid: opts.UIDFunc, logger: opts.Logger}
}

// CreateSession creates the session's queueing and manager actors. The
// resource manager, autoscaler and worker actors must already exist.
func (s *Service) CreateSession(ctx context.Context, sessionID string) error {
	resources, err := actor.RefAs[*GlobalResourceManager](ctx, s.pool, core.DefaultUID(core.KindGlobalResourceManager), s.address)
	if err != nil {
		return fmt.Errorf("create session %s: %w", sessionID, err)
	}
	if _, err := actor.RefAs[core.Autoscaler](ctx, s.pool, core.DefaultUID(core.KindAutoscaler), s.address); err != nil {
		return fmt.Errorf("create session %s: %w", sessionID, err)
	}
	executor, err := actor.RefAs[Executor](ctx, s.pool, core.DefaultUID(core.KindSubtaskExecution), s.address)
	if err != nil {
		return fmt.Errorf("create session %s: %w", sessionID, err)
	}
	for _, kind := range []core.ComponentKind{core.KindWorkerSlotManager, core.KindWorkerQuotaManager} {
		if _, err := s.pool.Ref(ctx, core.DefaultUID(kind), s.address); err != nil {
			return fmt.Errorf("create session %s: %w", sessionID, err)
		}
	}

	queue := NewQueueing(sessionID)
	if err := s.pool.Create(ctx, s.address, s.uid(core.KindSubtaskQueueing, sessionID), queue); err != nil {
		if errors.Is(err, actor.ErrActorExists) {
			return fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
		}
		return err
	}
	manager := NewManager(sessionID, queue, resources, executor, s.logger)
	if err := s.pool.Create(ctx, s.address, s.uid(core.KindSubtaskManager, sessionID), manager); err != nil {
		_ = s.pool.Destroy(ctx, s.uid(core.KindSubtaskQueueing, sessionID), s.address)
		if errors.Is(err, actor.ErrActorExists) {
			return fmt.Errorf("%w: %s", ErrSessionExists, sessionID)
		}
		return err
	}
	s.logger.Info("scheduling session created", "session_id", sessionID, "address", s.address)
	return nil
}

// DestroySession removes the session's manager and queueing actors.
func (s *Service) DestroySession(ctx context.Context, sessionID string) error {
	errManager := s.pool.Destroy(ctx, s.uid(core.KindSubtaskManager, sessionID), s.address)
	errQueue := s.pool.Destroy(ctx, s.uid(core.KindSubtaskQueueing, sessionID), s.address)
	return errors.Join(errManager, errQueue)
}
