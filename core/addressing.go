package core

// ComponentKind names a kind of remote collaborator.
type ComponentKind string

const (
	// KindSubtaskManager is the per-session subtask manager.
	KindSubtaskManager ComponentKind = "SubtaskManagerActor"
	// KindSubtaskQueueing is the per-session priority queue.
	KindSubtaskQueueing ComponentKind = "SubtaskQueueingActor"
	// KindAutoscaler is the supervisor-wide autoscaler singleton.
	KindAutoscaler ComponentKind = "AutoscalerActor"
	// KindGlobalResourceManager is the supervisor-wide band/slot accountant.
	KindGlobalResourceManager ComponentKind = "GlobalResourceManagerActor"
	// KindSubtaskExecution runs subtasks on a worker.
	KindSubtaskExecution ComponentKind = "SubtaskExecutionActor"
	// KindWorkerSlotManager tracks worker slots.
	KindWorkerSlotManager ComponentKind = "WorkerSlotManagerActor"
	// KindWorkerQuotaManager tracks worker memory quota.
	KindWorkerQuotaManager ComponentKind = "WorkerQuotaManagerActor"
)

// UIDFunc maps a component kind and session id to a component uid. It must be
// a pure function: the same inputs always address the same component.
type UIDFunc func(kind ComponentKind, sessionID string) string

// GenUID addresses a session-scoped component. It is the default UIDFunc.
func GenUID(kind ComponentKind, sessionID string) string {
	return string(kind) + "_" + sessionID
}

// DefaultUID addresses a process- or supervisor-wide singleton.
func DefaultUID(kind ComponentKind) string {
	return string(kind)
}

var _ UIDFunc = GenUID
