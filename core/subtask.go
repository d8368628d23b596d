package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Priority is an ordered tuple used for queue ordering and tie-breaking.
// A higher tuple is scheduled sooner. The empty priority is the lowest.
type Priority []int

// Less reports whether p sorts strictly below other. Tuples are compared
// lexicographically; a strict prefix sorts below the longer tuple.
func (p Priority) Less(other Priority) bool {
	for i := 0; i < len(p) && i < len(other); i++ {
		if p[i] != other[i] {
			return p[i] < other[i]
		}
	}
	return len(p) < len(other)
}

// Equal reports whether both tuples hold the same values.
func (p Priority) Equal(other Priority) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if p[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy safe for independent mutation. A nil priority clones
// to an empty, non-nil one.
func (p Priority) Clone() Priority {
	cp := make(Priority, len(p))
	copy(cp, p)
	return cp
}

func (p Priority) String() string {
	parts := make([]string, len(p))
	for i, v := range p {
		parts[i] = fmt.Sprint(v)
	}
	return "(" + strings.Join(parts, ",") + ")"
}

// Band is a placement descriptor pairing a worker address with a resource
// kind (e.g. "numa-0", "gpu-1").
type Band struct {
	Address  string `json:"address"`
	Resource string `json:"resource"`
}

func (b Band) String() string { return b.Address + "/" + b.Resource }

// Subtask is the smallest schedulable unit of work within a task.
//
// Priority is optional; a nil Priority means "unset" and the facade derives
// the lowest priority for it on submission.
type Subtask struct {
	ID            string   `json:"id"`
	TaskID        string   `json:"task_id"`
	SessionID     string   `json:"session_id"`
	Priority      Priority `json:"priority,omitempty"`
	Retryable     bool     `json:"retryable"`
	ExpectedBands []Band   `json:"expected_bands,omitempty"`
}

// NewSubtask creates a subtask with a freshly generated id.
func NewSubtask(sessionID, taskID string) *Subtask {
	return &Subtask{ID: NewSubtaskID(), TaskID: taskID, SessionID: sessionID, Retryable: true}
}

// NewSubtaskID returns a random subtask identifier.
func NewSubtaskID() string {
	return uuid.NewString()
}

// ScheduleSummary reports the scheduling state of a single subtask.
type ScheduleSummary struct {
	TaskID         string `json:"task_id"`
	SubtaskID      string `json:"subtask_id"`
	Bands          []Band `json:"bands,omitempty"`
	NumReschedules int    `json:"num_reschedules"`
	IsFinished     bool   `json:"is_finished"`
	IsCancelled    bool   `json:"is_cancelled"`
}

// PriorityUpdate pairs a subtask id with its new priority.
type PriorityUpdate struct {
	SubtaskID string
	Priority  Priority
}
