package core

import (
	"context"
	"time"
)

// SubtaskManager is the per-session component owning subtask lifecycle.
type SubtaskManager interface {
	// GetScheduleSummaries returns summaries for every subtask of the session,
	// or only those of taskID when it is non-empty.
	GetScheduleSummaries(ctx context.Context, taskID string) ([]ScheduleSummary, error)
	// AddSubtasks submits subtasks with a parallel list of priorities.
	AddSubtasks(ctx context.Context, subtasks []*Subtask, priorities []Priority) error
	// CancelSubtasks cancels pending and running subtasks. A non-zero
	// killTimeout bounds graceful termination before a forced kill.
	CancelSubtasks(ctx context.Context, subtaskIDs []string, killTimeout time.Duration) error
	// FinishSubtasks marks subtasks finished, optionally advancing the queue.
	FinishSubtasks(ctx context.Context, subtaskIDs []string, bands []Band, scheduleNext bool) error
}

// SubtaskQueueing is the per-session priority queue. Priority updates are
// only accepted in batches; the result slice has one entry per update, in the
// same order, reporting whether the subtask was found and updated.
type SubtaskQueueing interface {
	UpdateSubtaskPriority(ctx context.Context, updates []PriorityUpdate) ([]bool, error)
}

// Autoscaler is the supervisor-wide autoscaler. Scale-in suppression is
// reference counted: scale-in resumes once every DisableAutoscaleIn has a
// matching TryEnableAutoscaleIn.
type Autoscaler interface {
	DisableAutoscaleIn(ctx context.Context) error
	TryEnableAutoscaleIn(ctx context.Context) error
}
