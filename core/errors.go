package core

import (
	"errors"
	"fmt"
)

var (
	// ErrResolution marks a failure to discover or reach a collaborator while
	// constructing a facade. Concrete failures are *ResolutionError values.
	ErrResolution = errors.New("collaborator resolution failed")

	// ErrArgumentMismatch is returned when caller supplied parallel lists have
	// different lengths. It is detected before any remote call.
	ErrArgumentMismatch = errors.New("argument length mismatch")

	// ErrNotImplemented is returned when the unbatched priority update is
	// invoked outside the batching protocol.
	ErrNotImplemented = errors.New("not implemented outside batch")
)

// ResolutionError describes which collaborator could not be resolved for a
// session/address pair.
type ResolutionError struct {
	SessionID string
	Address   string
	Component ComponentKind
	Err       error
}

// Error implements the error interface.
func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %s for session %q at %q: %v", e.Component, e.SessionID, e.Address, e.Err)
}

// Unwrap exposes both ErrResolution and the underlying cause to errors.Is/As.
func (e *ResolutionError) Unwrap() []error {
	return []error{ErrResolution, e.Err}
}

// IsResolutionError reports whether err stems from facade resolution.
func IsResolutionError(err error) bool {
	return errors.Is(err, ErrResolution)
}
