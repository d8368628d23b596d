// Package supervisor houses local reference implementations of the
// supervisor-side scheduling collaborators:
//
//   - Manager: per-session subtask manager (core.SubtaskManager)
//   - Queueing: per-session priority queue (core.SubtaskQueueing)
//   - Autoscaler: supervisor-wide, reference counted scale-in gate (core.Autoscaler)
//   - GlobalResourceManager: band slot accounting
//   - Service: creates the per-session actors once the topology exists
//
// They keep all state in memory and exist so the scheduling facade can be
// exercised against a live local backend. Placement is first-fit and the
// autoscaler makes no scaling decisions of its own.
package supervisor
