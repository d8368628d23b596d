package scheduling

import (
	"context"
	"fmt"

	"github.com/hupe1980/schedmesh/actor"
	"github.com/hupe1980/schedmesh/core"
	"github.com/hupe1980/schedmesh/logging"
	"github.com/hupe1980/schedmesh/supervisor"
	"github.com/hupe1980/schedmesh/worker"
)

// MockOptions configures BootstrapMockTopology.
type MockOptions struct {
	// Slots of the single worker band. Zero uses the number of CPUs.
	Slots int
	// QuotaSize of the worker in bytes. Zero uses the host's total memory.
	QuotaSize uint64
	// Autoscaler configures the supervisor autoscaler.
	Autoscaler supervisor.AutoscalerConfig
	// UIDFunc addresses per-session actors. Defaults to core.GenUID.
	UIDFunc core.UIDFunc
	// Logger defaults to NoOp logger if nil.
	Logger logging.Logger
}

// BootstrapMockTopology brings up a single-node supervisor and worker at
// address and creates the scheduling session sessionID on it. Supervisor and
// worker actors that already exist are reused, so several sessions can share
// one topology.
func BootstrapMockTopology(ctx context.Context, pool *actor.Pool, address, sessionID string, optFns ...func(o *MockOptions)) error {
	opts := MockOptions{UIDFunc: core.GenUID, Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	has := func(kind core.ComponentKind) bool { return pool.Has(core.DefaultUID(kind), address) }

	if !has(core.KindGlobalResourceManager) {
		if _, err := supervisor.CreateGlobalResourceManager(ctx, pool, address); err != nil {
			return fmt.Errorf("bootstrap resource manager: %w", err)
		}
	}
	if !has(core.KindAutoscaler) {
		if _, err := supervisor.CreateAutoscaler(ctx, pool, address, opts.Autoscaler, opts.Logger); err != nil {
			return fmt.Errorf("bootstrap autoscaler: %w", err)
		}
	}
	if !has(core.KindSubtaskExecution) {
		if _, err := worker.CreateSubtaskExecution(ctx, pool, address, 0); err != nil {
			return fmt.Errorf("bootstrap subtask execution: %w", err)
		}
	}
	if !has(core.KindWorkerSlotManager) {
		if _, err := worker.CreateSlotManager(ctx, pool, address, opts.Slots); err != nil {
			return fmt.Errorf("bootstrap slot manager: %w", err)
		}
	}
	if !has(core.KindWorkerQuotaManager) {
		quota := opts.QuotaSize
		if quota == 0 {
			total, err := worker.HostMemoryTotal(ctx)
			if err != nil {
				return fmt.Errorf("bootstrap quota manager: %w", err)
			}
			quota = total
		}
		if _, err := worker.CreateQuotaManager(ctx, pool, address, quota); err != nil {
			return fmt.Errorf("bootstrap quota manager: %w", err)
		}
	}

	svc := supervisor.NewService(pool, address, func(o *supervisor.ServiceOptions) {
		o.UIDFunc = opts.UIDFunc
		o.Logger = opts.Logger
	})
	if err := svc.CreateSession(ctx, sessionID); err != nil {
		return fmt.Errorf("bootstrap session: %w", err)
	}
	opts.Logger.Info("mock scheduling topology ready", "session_id", sessionID, "address", address)
	return nil
}

// CreateMock bootstraps a local topology for sessionID at address in the
// cache's pool and returns the session's API.
func (c *Cache) CreateMock(ctx context.Context, sessionID, address string, optFns ...func(o *MockOptions)) (*API, error) {
	fns := append([]func(o *MockOptions){func(o *MockOptions) {
		o.UIDFunc = c.opts.UIDFunc
		o.Logger = c.opts.Logger
	}}, optFns...)
	if err := BootstrapMockTopology(ctx, c.pool, address, sessionID, fns...); err != nil {
		return nil, err
	}
	return c.Get(ctx, sessionID, address)
}
