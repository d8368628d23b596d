package supervisor

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/hupe1980/schedmesh/core"
	"github.com/hupe1980/schedmesh/logging"
)

// Executor runs subtasks on a band. worker.SubtaskExecution implements it.
type Executor interface {
	SubmitSubtask(ctx context.Context, subtask *core.Subtask, band core.Band) error
	CancelSubtask(ctx context.Context, subtaskID string, killTimeout time.Duration) error
}

type subtaskRecord struct {
	subtask  *core.Subtask
	priority core.Priority
	summary  core.ScheduleSummary
	band     *core.Band
}

type assignment struct {
	subtask  *core.Subtask
	priority core.Priority
	band     core.Band
}

// Manager owns the lifecycle of one session's subtasks: it queues submitted
// subtasks, places them first-fit on free band slots and tracks their
// schedule summaries.
type Manager struct {
	sessionID string
	queue     *Queueing
	resources *GlobalResourceManager
	executor  Executor
	logger    logging.Logger

	mu      sync.Mutex
	records map[string]*subtaskRecord
	order   []string
}

// NewManager creates a manager. executor may be nil, in which case placed
// subtasks are only recorded.
func NewManager(sessionID string, queue *Queueing, resources *GlobalResourceManager, executor Executor, logger logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NoOpLogger{}
	}
	return &Manager{
		sessionID: sessionID,
		queue:     queue,
		resources: resources,
		executor:  executor,
		logger:    logger,
		records:   make(map[string]*subtaskRecord),
	}
}

// GetScheduleSummaries returns summaries in submission order, restricted to
// taskID when it is non-empty.
func (m *Manager) GetScheduleSummaries(ctx context.Context, taskID string) ([]core.ScheduleSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]core.ScheduleSummary, 0, len(m.order))
	for _, id := range m.order {
		rec := m.records[id]
		if taskID != "" && rec.summary.TaskID != taskID {
			continue
		}
		s := rec.summary
		s.Bands = append([]core.Band(nil), rec.summary.Bands...)
		out = append(out, s)
	}
	return out, nil
}

// AddSubtasks queues subtasks and schedules as many as free slots allow.
func (m *Manager) AddSubtasks(ctx context.Context, subtasks []*core.Subtask, priorities []core.Priority) error {
	if len(subtasks) != len(priorities) {
		return fmt.Errorf("%w: %d subtasks, %d priorities", core.ErrArgumentMismatch, len(subtasks), len(priorities))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	ids := make([]string, len(subtasks))
	m.mu.Lock()
	for i, st := range subtasks {
		if _, exists := m.records[st.ID]; exists {
			m.mu.Unlock()
			return fmt.Errorf("%w: %s", ErrDuplicateSubtask, st.ID)
		}
		ids[i] = st.ID
	}
	for i, st := range subtasks {
		m.records[st.ID] = &subtaskRecord{
			subtask:  st,
			priority: priorities[i].Clone(),
			summary:  core.ScheduleSummary{TaskID: st.TaskID, SubtaskID: st.ID},
		}
		m.order = append(m.order, st.ID)
	}
	m.mu.Unlock()

	m.queue.AddSubtasks(ids, priorities)
	m.logger.Debug("subtasks added", "session_id", m.sessionID, "count", len(ids))
	return m.scheduleNext(ctx)
}

// CancelSubtasks removes queued subtasks and asks the executor to stop running
// ones within killTimeout.
func (m *Manager) CancelSubtasks(ctx context.Context, subtaskIDs []string, killTimeout time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.checkKnown(subtaskIDs); err != nil {
		return err
	}
	m.queue.Remove(subtaskIDs)

	var running []assignment
	m.mu.Lock()
	for _, id := range subtaskIDs {
		rec := m.records[id]
		if rec.summary.IsFinished {
			continue
		}
		rec.summary.IsCancelled = true
		rec.summary.IsFinished = true
		if rec.band != nil {
			running = append(running, assignment{subtask: rec.subtask, band: *rec.band})
			rec.band = nil
		}
	}
	m.mu.Unlock()

	for _, a := range running {
		if m.executor != nil {
			if err := m.executor.CancelSubtask(ctx, a.subtask.ID, killTimeout); err != nil {
				return err
			}
		}
		m.resources.Release(a.band)
	}
	m.logger.Debug("subtasks cancelled", "session_id", m.sessionID, "count", len(subtaskIDs), "kill_timeout", killTimeout)
	return m.scheduleNext(ctx)
}

// FinishSubtasks marks subtasks finished and releases their slots. bands,
// when given, must parallel subtaskIDs and name the slots to release.
func (m *Manager) FinishSubtasks(ctx context.Context, subtaskIDs []string, bands []core.Band, scheduleNext bool) error {
	if bands != nil && len(bands) != len(subtaskIDs) {
		return fmt.Errorf("%w: %d subtask ids, %d bands", core.ErrArgumentMismatch, len(subtaskIDs), len(bands))
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := m.checkKnown(subtaskIDs); err != nil {
		return err
	}

	var release []core.Band
	m.mu.Lock()
	for i, id := range subtaskIDs {
		rec := m.records[id]
		if rec.summary.IsFinished {
			continue
		}
		rec.summary.IsFinished = true
		switch {
		case bands != nil:
			release = append(release, bands[i])
		case rec.band != nil:
			release = append(release, *rec.band)
		}
		rec.band = nil
	}
	m.mu.Unlock()

	for _, b := range release {
		m.resources.Release(b)
	}
	if !scheduleNext {
		return nil
	}
	return m.scheduleNext(ctx)
}

func (m *Manager) checkKnown(ids []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, id := range ids {
		if _, ok := m.records[id]; !ok {
			return fmt.Errorf("%w: %s", ErrSubtaskNotFound, id)
		}
	}
	return nil
}

// scheduleNext places queued subtasks on free slots and submits them. A
// failed submission is requeued at its current priority without stopping the
// remaining submissions; the failures are returned joined.
func (m *Manager) scheduleNext(ctx context.Context) error {
	var assigned []assignment
	m.mu.Lock()
	for {
		band, ok := m.resources.Allocate()
		if !ok {
			break
		}
		entries := m.queue.PopEntries(1)
		if len(entries) == 0 {
			m.resources.Release(band)
			break
		}
		rec, ok := m.records[entries[0].SubtaskID]
		if !ok || rec.summary.IsFinished {
			m.resources.Release(band)
			continue
		}
		rec.priority = entries[0].Priority
		b := band
		rec.band = &b
		rec.summary.Bands = append(rec.summary.Bands, band)
		assigned = append(assigned, assignment{subtask: rec.subtask, priority: entries[0].Priority, band: band})
	}
	m.mu.Unlock()

	if m.executor == nil {
		return nil
	}
	var errs []error
	for _, a := range assigned {
		if err := m.executor.SubmitSubtask(ctx, a.subtask, a.band); err != nil {
			m.requeue(a)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// requeue returns a subtask whose submission failed to the queue and frees
// its slot. The failed placement is dropped from its summary.
func (m *Manager) requeue(a assignment) {
	m.mu.Lock()
	rec := m.records[a.subtask.ID]
	if rec.summary.IsFinished {
		// Cancelled or finished meanwhile; its slot was released there.
		m.mu.Unlock()
		return
	}
	rec.band = nil
	rec.priority = a.priority
	if n := len(rec.summary.Bands); n > 0 {
		rec.summary.Bands = rec.summary.Bands[:n-1]
	}
	rec.summary.NumReschedules++
	m.mu.Unlock()
	m.resources.Release(a.band)
	m.queue.AddSubtasks([]string{a.subtask.ID}, []core.Priority{a.priority})
	m.logger.Warn("subtask submission failed, requeued", "session_id", m.sessionID, "subtask_id", a.subtask.ID)
}

var _ core.SubtaskManager = (*Manager)(nil)
