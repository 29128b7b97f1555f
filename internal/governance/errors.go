package governance

import (
	"fmt"

	"github.com/alfredjeanlab/quorum/internal/model"
)

// NotFoundError reports that an entity ID does not exist. Safe to surface
// directly to callers.
type NotFoundError struct {
	Kind string // "proposal", "variance record", "milestone"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// InvalidStateError reports a transition attempted from a state that does
// not permit it. It names the attempted transition for diagnosability.
type InvalidStateError struct {
	ProposalID string
	From       model.Status
	To         model.Status
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("proposal %s: illegal transition %s -> %s", e.ProposalID, e.From, e.To)
}

// DuplicateError reports an attempt to create a second variance record for
// a proposal that already has one.
type DuplicateError struct {
	ProposalID string
}

func (e *DuplicateError) Error() string {
	return fmt.Sprintf("variance record already exists for proposal %s", e.ProposalID)
}

// PersistenceError wraps a store failure. The engine does not retry; it
// guarantees the enclosing transaction rolled back, so no partial state
// was persisted.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// domainError reports whether err is one of the engine's typed errors (or
// a validation error), as opposed to a raw store failure.
func domainError(err error) bool {
	switch err.(type) {
	case *NotFoundError, *InvalidStateError, *DuplicateError, *model.ValidationError, *PersistenceError:
		return true
	}
	return false
}

// wrapStoreErr passes domain errors through untouched and wraps anything
// else as a PersistenceError for the given operation.
func wrapStoreErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if domainError(err) {
		return err
	}
	return &PersistenceError{Op: op, Err: err}
}
