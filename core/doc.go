// Package core provides the foundational domain types and collaborator
// contracts used by schedmesh. It defines:
//
//   - Subtasks, priorities, bands and schedule summaries (the data model)
//   - The remote collaborator contracts (subtask manager, queueing, autoscaler)
//   - Deterministic addressing of per-session and supervisor-wide components
//   - The error taxonomy surfaced by the scheduling facade
//
// The package intentionally keeps implementation concerns (actor runtime,
// reference collaborators, the facade itself) out of scope, exposing small
// interfaces so alternative backends can be plugged in.
package core
