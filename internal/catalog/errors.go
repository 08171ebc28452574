package catalog

import (
	"errors"
	"fmt"
)

// Sentinel outcomes the pipeline branches on.
var (
	// ErrNotFound means both match attempts missed. A normal business
	// outcome: the listing is logged and dropped, the run continues.
	ErrNotFound = errors.New("no catalog entry matched")

	// ErrUnauthorized means the backend rejected the bearer token mid-run.
	// Fatal: every subsequent request would fail identically.
	ErrUnauthorized = errors.New("backend rejected authentication")

	// ErrNotSubmittable means the backend answered 404 for a submission:
	// the item cannot be accepted right now. Per-item skip.
	ErrNotSubmittable = errors.New("item not currently submittable")
)

// FatalError wraps a condition that invalidates the remainder of a run
// (authentication failure, identity-resolution failure). The orchestrator
// aborts instead of skipping.
type FatalError struct {
	Op  string
	Err error
}

func (e *FatalError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *FatalError) Unwrap() error { return e.Err }

// IsFatal reports whether err should abort the run.
func IsFatal(err error) bool {
	var fe *FatalError
	return errors.As(err, &fe) || errors.Is(err, ErrUnauthorized)
}
