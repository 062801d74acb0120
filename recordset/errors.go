package recordset

import (
	"errors"
	"fmt"

	"github.com/JourneyJu/dsg-sub010/types"
)

var (
	// ErrModeConflict is returned when an operation is illegal in the current mode
	ErrModeConflict = errors.New("operation not allowed in current mode")

	// ErrSuperseded is returned by a load whose response arrived after a newer load started
	ErrSuperseded = errors.New("load superseded by a newer load")

	// ErrNotLoaded is returned by submit before any record set was loaded
	ErrNotLoaded = errors.New("no record set loaded")

	// ErrDuplicateID is wrapped in a LoadError when fetched records repeat an id
	ErrDuplicateID = errors.New("duplicate record id")

	// ErrIndexOutOfRange is returned by reorder for positions outside the collection
	ErrIndexOutOfRange = errors.New("index out of range")

	// ErrNotBatchField is returned by a batch edit of a field that is not batch-coupled
	ErrNotBatchField = errors.New("field cannot be configured in batch")

	// ErrUnknownEvent is returned when dispatching an event type the controller does not handle
	ErrUnknownEvent = errors.New("unknown event type")
)

// ModeConflictError names the rejected operation and the mode that rejected it
type ModeConflictError struct {
	Op   string
	Mode types.ModeKind
}

func (e *ModeConflictError) Error() string {
	return fmt.Sprintf("%s not allowed in %s mode", e.Op, e.Mode)
}

func (e *ModeConflictError) Unwrap() error {
	return ErrModeConflict
}

// LoadError reports a failed fetch of the initial record set.
// The controller is left empty.
type LoadError struct {
	SourceID string
	Err      error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load records for %s: %v", e.SourceID, e.Err)
}

func (e *LoadError) Unwrap() error {
	return e.Err
}

// SubmitError reports a failed submission.
// The canonical collection is left untouched so the caller can retry.
type SubmitError struct {
	SourceID string
	Err      error
}

func (e *SubmitError) Error() string {
	return fmt.Sprintf("failed to submit records for %s: %v", e.SourceID, e.Err)
}

func (e *SubmitError) Unwrap() error {
	return e.Err
}

// ValidationFailedError blocks a submission whose records carry errors
type ValidationFailedError struct {
	ErrorCount int
}

func (e *ValidationFailedError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s)", e.ErrorCount)
}
