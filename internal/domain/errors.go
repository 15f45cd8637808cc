package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Common domain errors that can occur while preparing or running a rating
// session.
var (
	// ErrInvalidPair indicates a raw pair that compares a subject with itself.
	ErrInvalidPair = errors.New("invalid pair")

	// ErrUnknownSubject indicates a pair references a subject id that is not
	// present in the catalog.
	ErrUnknownSubject = errors.New("unknown subject")

	// ErrEmptyPairSet indicates no valid pairs remain after self-pairs are
	// removed.
	ErrEmptyPairSet = errors.New("empty pair set")

	// ErrInvalidChoice indicates a submission named a side other than left
	// or right.
	ErrInvalidChoice = errors.New("invalid choice")

	// ErrInvalidConfidence indicates a submission confidence outside 1..5.
	ErrInvalidConfidence = errors.New("invalid confidence")

	// ErrOutOfRange indicates the cursor has moved past the last pair.
	ErrOutOfRange = errors.New("cursor out of range")

	// ErrMalformedSnapshotEntry indicates a single snapshot result could not
	// be parsed.
	ErrMalformedSnapshotEntry = errors.New("malformed snapshot entry")

	// ErrNotFound indicates a requested subject does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidTransition indicates an operation was attempted in a stage
	// that does not permit it.
	ErrInvalidTransition = errors.New("invalid stage transition")

	// ErrInvalidConfiguration indicates that configuration is invalid or incomplete.
	ErrInvalidConfiguration = errors.New("invalid configuration")
)

// DefaultMissingIDDisplayLimit caps how many missing ids are rendered in
// user-facing messages.
const DefaultMissingIDDisplayLimit = 20

// InvalidPairError reports a self-pair found in the raw input. It is not
// fatal: the pair is dropped from the prepared sequence.
type InvalidPairError struct {
	// Position is the index of the pair in the raw input.
	Position int

	// Pair is the offending raw pair.
	Pair RawPair
}

// Error implements the error interface for InvalidPairError.
func (e *InvalidPairError) Error() string {
	return fmt.Sprintf("invalid pair at position %d: (%d, %d) compares a subject with itself",
		e.Position, e.Pair.A, e.Pair.B)
}

// Unwrap returns ErrInvalidPair.
func (e *InvalidPairError) Unwrap() error { return ErrInvalidPair }

// UnknownSubjectError lists every subject id referenced by the pair list
// but missing from the catalog.
type UnknownSubjectError struct {
	// IDs holds the missing ids, sorted ascending and de-duplicated.
	IDs []int
}

// Error implements the error interface for UnknownSubjectError.
func (e *UnknownSubjectError) Error() string {
	return fmt.Sprintf("unknown subject: %d id(s) missing from catalog: %s",
		len(e.IDs), e.Display(DefaultMissingIDDisplayLimit))
}

// Display renders at most limit ids, followed by an ellipsis when the list
// was truncated. A non-positive limit renders every id.
func (e *UnknownSubjectError) Display(limit int) string {
	ids := e.IDs
	truncated := false
	if limit > 0 && len(ids) > limit {
		ids = ids[:limit]
		truncated = true
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = strconv.Itoa(id)
	}
	out := "[" + strings.Join(parts, ", ") + "]"
	if truncated {
		out += "..."
	}
	return out
}

// Unwrap returns ErrUnknownSubject.
func (e *UnknownSubjectError) Unwrap() error { return ErrUnknownSubject }

// MalformedSnapshotEntryError describes one snapshot result that was skipped
// during reconciliation.
type MalformedSnapshotEntryError struct {
	// Index is the position of the entry in the snapshot results list.
	Index int

	// Reason explains what was wrong with the entry.
	Reason string
}

// Error implements the error interface for MalformedSnapshotEntryError.
func (e *MalformedSnapshotEntryError) Error() string {
	return fmt.Sprintf("malformed snapshot entry %d: %s", e.Index, e.Reason)
}

// Unwrap returns ErrMalformedSnapshotEntry.
func (e *MalformedSnapshotEntryError) Unwrap() error { return ErrMalformedSnapshotEntry }

// StageError represents an operation attempted in a stage that does not
// allow it.
type StageError struct {
	// Operation is the name of the rejected operation.
	Operation string

	// Stage is the stage the session was in.
	Stage Stage

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StageError.
func (e *StageError) Error() string {
	return fmt.Sprintf("stage error: operation=%s, stage=%s, err=%v", e.Operation, e.Stage, e.Err)
}

// Unwrap returns the underlying error.
func (e *StageError) Unwrap() error { return e.Err }

// NewStageError creates a StageError wrapping ErrInvalidTransition.
func NewStageError(operation string, stage Stage) *StageError {
	return &StageError{
		Operation: operation,
		Stage:     stage,
		Err:       ErrInvalidTransition,
	}
}

// ValidationError represents an error that occurred during validation.
// It can contain multiple validation failures.
type ValidationError struct {
	// Entity is the name of the entity that failed validation.
	Entity string

	// Errors contains the list of validation error messages.
	Errors []string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("validation error for %s: %s", e.Entity, e.Errors[0])
	}
	return fmt.Sprintf("validation errors for %s: %v", e.Entity, e.Errors)
}

// AddError adds a new error message to the validation error.
func (e *ValidationError) AddError(msg string) { e.Errors = append(e.Errors, msg) }

// HasErrors returns true if there are any validation errors.
func (e *ValidationError) HasErrors() bool { return len(e.Errors) > 0 }

// NewValidationError creates a new ValidationError for the given entity.
func NewValidationError(entity string) *ValidationError {
	return &ValidationError{
		Entity: entity,
		Errors: make([]string, 0),
	}
}
