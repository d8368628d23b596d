// Package worker houses local reference implementations of the worker-side
// collaborators a scheduling supervisor depends on: subtask execution, slot
// management and memory quota management. Each Create* helper registers its
// actor in the pool and refuses to run before the supervisor-wide resource
// manager and autoscaler exist at the same address.
package worker
