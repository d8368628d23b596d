// Package scheduling is the session-scoped client facade of the scheduling
// subsystem.
//
// A Cache hands out one *API per (session id, cluster address) pair,
// resolving the session's subtask manager, subtask queueing and the
// supervisor-wide autoscaler exactly once per key through a Resolver. The API
// forwards every operation to one of those collaborators; priority updates go
// through a batch.Coalescer so concurrent updates share one round trip.
//
// CreateMock bootstraps a complete local topology in an actor.Pool before
// resolving, which lets tests run the facade against live collaborators.
package scheduling
