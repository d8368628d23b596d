package testutil

import (
	"github.com/hupe1980/schedmesh/core"
)

// SubtaskBuilder provides a fluent helper for constructing subtasks in tests.
// Example:
//
//	st := NewSubtaskBuilder("sess-1").Task("t1").Priority(2, 1).NotRetryable().Build()
//
// Chain only the parts you need; an id is generated unless overridden.
type SubtaskBuilder struct {
	sessionID string
	taskID    string
	id        string
	priority  core.Priority
	retryable bool
	bands     []core.Band
}

// NewSubtaskBuilder creates a builder for a subtask of sessionID.
func NewSubtaskBuilder(sessionID string) *SubtaskBuilder {
	return &SubtaskBuilder{sessionID: sessionID, retryable: true}
}

// Task sets the owning task id (chainable).
func (b *SubtaskBuilder) Task(id string) *SubtaskBuilder { b.taskID = id; return b }

// ID overrides the generated subtask id (chainable). Use where determinism matters.
func (b *SubtaskBuilder) ID(id string) *SubtaskBuilder { b.id = id; return b }

// Priority sets the subtask's own priority (chainable).
func (b *SubtaskBuilder) Priority(p ...int) *SubtaskBuilder {
	b.priority = core.Priority(p)
	return b
}

// NotRetryable marks the subtask as not retryable (chainable).
func (b *SubtaskBuilder) NotRetryable() *SubtaskBuilder { b.retryable = false; return b }

// ExpectedBand appends a preferred band (chainable).
func (b *SubtaskBuilder) ExpectedBand(address, resource string) *SubtaskBuilder {
	b.bands = append(b.bands, core.Band{Address: address, Resource: resource})
	return b
}

// Build returns the constructed subtask.
func (b *SubtaskBuilder) Build() *core.Subtask {
	st := core.NewSubtask(b.sessionID, b.taskID)
	if b.id != "" {
		st.ID = b.id
	}
	st.Priority = b.priority
	st.Retryable = b.retryable
	st.ExpectedBands = append([]core.Band(nil), b.bands...)
	return st
}

// NewSubtask is a shortcut for a subtask of taskID with priority p, which may be nil.
func NewSubtask(sessionID, taskID string, p core.Priority) *core.Subtask {
	st := core.NewSubtask(sessionID, taskID)
	st.Priority = p
	return st
}

// Subtasks builds n subtasks of the same task without priorities.
func Subtasks(sessionID, taskID string, n int) []*core.Subtask {
	out := make([]*core.Subtask, n)
	for i := range out {
		out[i] = NewSubtask(sessionID, taskID, nil)
	}
	return out
}
