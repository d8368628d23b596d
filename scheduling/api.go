package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/schedmesh/batch"
	"github.com/hupe1980/schedmesh/core"
	"github.com/hupe1980/schedmesh/logging"
)

// Operation names used in logs and metrics.
const (
	OpGetSubtaskScheduleSummaries = "get_subtask_schedule_summaries"
	OpAddSubtasks                 = "add_subtasks"
	OpUpdateSubtaskPriority       = "update_subtask_priority"
	OpCancelSubtasks              = "cancel_subtasks"
	OpFinishSubtasks              = "finish_subtasks"
	OpDisableAutoscaleIn          = "disable_autoscale_in"
	OpTryEnableAutoscaleIn        = "try_enable_autoscale_in"
)

// API is the scheduling facade of one session at one cluster address. It
// holds no scheduling state of its own; every method forwards to the
// session's subtask manager, its subtask queueing or the autoscaler.
//
// An API is safe for concurrent use. Instances are normally obtained from a
// Cache so that each (session, address) pair shares one API.
type API struct {
	sessionID string
	address   string

	manager    core.SubtaskManager
	queueing   core.SubtaskQueueing
	autoscaler core.Autoscaler

	priorityUpdates *batch.Coalescer[core.PriorityUpdate, bool]

	logger  logging.Logger
	metrics *Metrics
}

// NewAPI creates a facade over already resolved collaborators.
func NewAPI(sessionID, address string, refs Refs, optFns ...func(o *Options)) *API {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	opts.normalize()
	return newAPI(sessionID, address, refs, opts)
}

func newAPI(sessionID, address string, refs Refs, opts Options) *API {
	a := &API{
		sessionID:  sessionID,
		address:    address,
		manager:    refs.Manager,
		queueing:   refs.Queueing,
		autoscaler: refs.Autoscaler,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
	}
	if sl, ok := opts.Logger.(*logging.SchedLogger); ok {
		a.logger = sl.WithComponent("scheduling").WithSession(sessionID, address)
	}
	// Single updates have no direct path; they are only accepted in batches.
	a.priorityUpdates = batch.New[core.PriorityUpdate, bool](a.updatePriorities, nil, func(o *batch.Options) {
		o.Name = OpUpdateSubtaskPriority
		o.Window = opts.BatchWindow
		o.MaxBatchSize = opts.MaxBatchSize
		o.Disabled = opts.DisableBatching
		o.Logger = opts.Logger
		o.Observer = func(size int, _ time.Duration, _ error) { a.metrics.observeBatch(size) }
		if sl, ok := a.logger.(*logging.SchedLogger); ok {
			o.Logger = logging.NoOpLogger{}
			o.Observer = func(size int, dur time.Duration, err error) {
				a.metrics.observeBatch(size)
				sl.LogBatch(OpUpdateSubtaskPriority, size, dur, err)
			}
		}
	})
	return a
}

// SessionID returns the session the facade is bound to.
func (a *API) SessionID() string { return a.sessionID }

// Address returns the cluster address the facade is bound to.
func (a *API) Address() string { return a.address }

// GetSubtaskScheduleSummaries returns the schedule summaries of the
// session's subtasks, restricted to taskID when it is non-empty.
func (a *API) GetSubtaskScheduleSummaries(ctx context.Context, taskID string) ([]core.ScheduleSummary, error) {
	start := time.Now()
	sums, err := a.manager.GetScheduleSummaries(ctx, taskID)
	a.observe(OpGetSubtaskScheduleSummaries, start, err, "task_id", taskID)
	return sums, err
}

// AddSubtasks submits subtasks for scheduling. When priorities is nil each
// subtask's own priority is used, or the empty priority if it has none. A
// non-nil priorities slice must have one entry per subtask.
func (a *API) AddSubtasks(ctx context.Context, subtasks []*core.Subtask, priorities []core.Priority) error {
	if priorities == nil {
		priorities = make([]core.Priority, len(subtasks))
		for i, st := range subtasks {
			priorities[i] = st.Priority.Clone()
		}
	}
	if len(priorities) != len(subtasks) {
		return fmt.Errorf("add subtasks: %w: %d subtasks, %d priorities", core.ErrArgumentMismatch, len(subtasks), len(priorities))
	}
	start := time.Now()
	err := a.manager.AddSubtasks(ctx, subtasks, priorities)
	a.observe(OpAddSubtasks, start, err, "count", len(subtasks))
	return err
}

// UpdateSubtaskPriority changes the priority of one queued subtask. Updates
// issued within the batch window share a single queueing call. The result
// reports whether the queue held the subtask.
func (a *API) UpdateSubtaskPriority(ctx context.Context, subtaskID string, priority core.Priority) (bool, error) {
	return a.priorityUpdates.Call(ctx, core.PriorityUpdate{SubtaskID: subtaskID, Priority: priority.Clone()})
}

// UpdateSubtaskPriorities sends several priority updates in one queueing
// call. Results are in update order.
func (a *API) UpdateSubtaskPriorities(ctx context.Context, updates ...core.PriorityUpdate) ([]bool, error) {
	return a.priorityUpdates.Batch(ctx, updates...)
}

// CancelSubtasks cancels subtasks. A zero killTimeout leaves the kill
// deadline to the manager.
func (a *API) CancelSubtasks(ctx context.Context, subtaskIDs []string, killTimeout time.Duration) error {
	start := time.Now()
	err := a.manager.CancelSubtasks(ctx, subtaskIDs, killTimeout)
	a.observe(OpCancelSubtasks, start, err, "count", len(subtaskIDs), "kill_timeout", killTimeout)
	return err
}

// FinishSubtasks marks subtasks finished on the given bands. With
// scheduleNext the manager immediately dispatches queued work to the freed
// capacity.
func (a *API) FinishSubtasks(ctx context.Context, subtaskIDs []string, bands []core.Band, scheduleNext bool) error {
	start := time.Now()
	err := a.manager.FinishSubtasks(ctx, subtaskIDs, bands, scheduleNext)
	a.observe(OpFinishSubtasks, start, err, "count", len(subtaskIDs), "schedule_next", scheduleNext)
	return err
}

// DisableAutoscaleIn suppresses autoscale-in. Each call must be balanced by
// a TryEnableAutoscaleIn.
func (a *API) DisableAutoscaleIn(ctx context.Context) error {
	start := time.Now()
	err := a.autoscaler.DisableAutoscaleIn(ctx)
	a.observe(OpDisableAutoscaleIn, start, err)
	return err
}

// TryEnableAutoscaleIn releases one DisableAutoscaleIn. Scale-in resumes once
// none remain.
func (a *API) TryEnableAutoscaleIn(ctx context.Context) error {
	start := time.Now()
	err := a.autoscaler.TryEnableAutoscaleIn(ctx)
	a.observe(OpTryEnableAutoscaleIn, start, err)
	return err
}

// Close stops priority update coalescing. Pending updates fail with
// batch.ErrClosed; every other method keeps working.
func (a *API) Close() {
	a.priorityUpdates.Close()
}

func (a *API) updatePriorities(ctx context.Context, updates []core.PriorityUpdate) ([]bool, error) {
	start := time.Now()
	res, err := a.queueing.UpdateSubtaskPriority(ctx, updates)
	a.observe(OpUpdateSubtaskPriority, start, err, "count", len(updates))
	return res, err
}

func (a *API) observe(op string, start time.Time, err error, kv ...any) {
	dur := time.Since(start)
	a.metrics.observeCall(op, dur, err)
	if sl, ok := a.logger.(*logging.SchedLogger); ok {
		sl.LogRemoteCall(string(opTarget(op)), op, dur, err)
		return
	}
	args := append([]any{"operation", op, "session_id", a.sessionID, "address", a.address, "duration", dur}, kv...)
	if err != nil {
		a.logger.Warn("scheduling call failed", append(args, "error", err)...)
		return
	}
	a.logger.Debug("scheduling call completed", args...)
}

// opTarget names the collaborator an operation is forwarded to.
func opTarget(op string) core.ComponentKind {
	switch op {
	case OpUpdateSubtaskPriority:
		return core.KindSubtaskQueueing
	case OpDisableAutoscaleIn, OpTryEnableAutoscaleIn:
		return core.KindAutoscaler
	default:
		return core.KindSubtaskManager
	}
}
