package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/mem"

	"github.com/hupe1980/schedmesh/actor"
	"github.com/hupe1980/schedmesh/core"
)

// DefaultBandResource names the band every slot manager registers.
const DefaultBandResource = "numa-0"

// ErrQuotaExceeded is returned when a quota request does not fit.
var ErrQuotaExceeded = errors.New("quota exceeded")

// BandRegistrar receives slot capacity announcements.
type BandRegistrar interface {
	AddBand(band core.Band, slots int)
}

func requireSupervisor(ctx context.Context, pool *actor.Pool, address string) error {
	for _, kind := range []core.ComponentKind{core.KindGlobalResourceManager, core.KindAutoscaler} {
		if _, err := pool.Ref(ctx, core.DefaultUID(kind), address); err != nil {
			return err
		}
	}
	return nil
}

// HostMemoryTotal returns the total addressable memory of the host.
func HostMemoryTotal(ctx context.Context) (uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, fmt.Errorf("read host memory: %w", err)
	}
	return vm.Total, nil
}

// SubtaskExecution records subtasks placed on this worker.
type SubtaskExecution struct {
	maxRetries int

	mu        sync.Mutex
	running   map[string]core.Band
	submitted []string
	killed    map[string]time.Duration
}

// CreateSubtaskExecution registers an execution actor at address.
func CreateSubtaskExecution(ctx context.Context, pool *actor.Pool, address string, maxRetries int) (*SubtaskExecution, error) {
	if err := requireSupervisor(ctx, pool, address); err != nil {
		return nil, fmt.Errorf("create subtask execution: %w", err)
	}
	e := &SubtaskExecution{maxRetries: maxRetries, running: make(map[string]core.Band), killed: make(map[string]time.Duration)}
	if err := pool.Create(ctx, address, core.DefaultUID(core.KindSubtaskExecution), e); err != nil {
		return nil, err
	}
	return e, nil
}

// SubmitSubtask starts a subtask on band.
func (e *SubtaskExecution) SubmitSubtask(ctx context.Context, subtask *core.Subtask, band core.Band) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.running[subtask.ID] = band
	e.submitted = append(e.submitted, subtask.ID)
	return nil
}

// CancelSubtask stops a running subtask. Unknown ids are already stopped.
func (e *SubtaskExecution) CancelSubtask(ctx context.Context, subtaskID string, killTimeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	if _, ok := e.running[subtaskID]; !ok {
		return nil
	}
	delete(e.running, subtaskID)
	e.killed[subtaskID] = killTimeout
	return nil
}

// Running returns the sorted ids of running subtasks.
func (e *SubtaskExecution) Running() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	out := make([]string, 0, len(e.running))
	for id := range e.running {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Submitted returns every id ever submitted, in submission order.
func (e *SubtaskExecution) Submitted() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]string(nil), e.submitted...)
}

// KillTimeout returns the timeout a cancelled subtask was stopped with.
func (e *SubtaskExecution) KillTimeout(subtaskID string) (time.Duration, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	d, ok := e.killed[subtaskID]
	return d, ok
}

// MaxRetries returns the configured retry budget per subtask.
func (e *SubtaskExecution) MaxRetries() int { return e.maxRetries }

// SlotManager announces the worker's slots to the resource manager.
type SlotManager struct {
	band  core.Band
	slots int
}

// CreateSlotManager registers a slot manager at address and announces its
// band. slots <= 0 uses the number of CPUs.
func CreateSlotManager(ctx context.Context, pool *actor.Pool, address string, slots int) (*SlotManager, error) {
	if err := requireSupervisor(ctx, pool, address); err != nil {
		return nil, fmt.Errorf("create slot manager: %w", err)
	}
	registrar, err := actor.RefAs[BandRegistrar](ctx, pool, core.DefaultUID(core.KindGlobalResourceManager), address)
	if err != nil {
		return nil, fmt.Errorf("create slot manager: %w", err)
	}
	if slots <= 0 {
		slots = runtime.NumCPU()
	}
	sm := &SlotManager{band: core.Band{Address: address, Resource: DefaultBandResource}, slots: slots}
	if err := pool.Create(ctx, address, core.DefaultUID(core.KindWorkerSlotManager), sm); err != nil {
		return nil, err
	}
	registrar.AddBand(sm.band, slots)
	return sm, nil
}

// Band returns the managed band.
func (s *SlotManager) Band() core.Band { return s.band }

// Slots returns the slot count.
func (s *SlotManager) Slots() int { return s.slots }

// QuotaManager bounds the memory reserved by running subtasks.
type QuotaManager struct {
	quotaSize uint64

	mu          sync.Mutex
	used        uint64
	allocations map[string]uint64
}

// CreateQuotaManager registers a quota manager at address with quotaSize bytes.
func CreateQuotaManager(ctx context.Context, pool *actor.Pool, address string, quotaSize uint64) (*QuotaManager, error) {
	if err := requireSupervisor(ctx, pool, address); err != nil {
		return nil, fmt.Errorf("create quota manager: %w", err)
	}
	q := &QuotaManager{quotaSize: quotaSize, allocations: make(map[string]uint64)}
	if err := pool.Create(ctx, address, core.DefaultUID(core.KindWorkerQuotaManager), q); err != nil {
		return nil, err
	}
	return q, nil
}

// RequestQuota reserves size bytes under key, replacing an earlier reservation.
func (q *QuotaManager) RequestQuota(ctx context.Context, key string, size uint64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	q.mu.Lock()
	defer q.mu.Unlock()
	used := q.used - q.allocations[key]
	if used+size > q.quotaSize {
		return fmt.Errorf("%w: %s requests %d bytes, %d of %d free", ErrQuotaExceeded, key, size, q.quotaSize-used, q.quotaSize)
	}
	q.used = used + size
	q.allocations[key] = size
	return nil
}

// ReleaseQuota frees the reservation under key.
func (q *QuotaManager) ReleaseQuota(key string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.used -= q.allocations[key]
	delete(q.allocations, key)
}

// QuotaSize returns the quota ceiling in bytes.
func (q *QuotaManager) QuotaSize() uint64 { return q.quotaSize }

// Used returns the reserved bytes.
func (q *QuotaManager) Used() uint64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.used
}
