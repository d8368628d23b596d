package supervisor

import "errors"

var (
	// ErrSubtaskNotFound is returned when an operation names a subtask the
	// manager has never seen.
	ErrSubtaskNotFound = errors.New("subtask not found")

	// ErrDuplicateSubtask is returned when a subtask id is submitted twice.
	ErrDuplicateSubtask = errors.New("subtask already submitted")

	// ErrSessionExists is returned when a session is created twice.
	ErrSessionExists = errors.New("session already exists")
)
