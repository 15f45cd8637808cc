package ports

import (
	"errors"
	"fmt"
)

// Common infrastructure errors that can occur while reading inputs or
// persisting snapshots.
var (
	// ErrStoreUnavailable indicates the snapshot store cannot be used.
	ErrStoreUnavailable = errors.New("store unavailable")

	// ErrMissingColumn indicates a required input column is absent.
	ErrMissingColumn = errors.New("missing column")

	// ErrInvalidCell indicates an input cell could not be coerced.
	ErrInvalidCell = errors.New("invalid cell")

	// ErrInvalidPairEntry indicates a pair list entry is not a 2-tuple of
	// integers.
	ErrInvalidPairEntry = errors.New("invalid pair entry")

	// ErrConfigNotFound indicates that required configuration is missing.
	ErrConfigNotFound = errors.New("configuration not found")
)

// StoreError represents an error from snapshot store operations.
type StoreError struct {
	// RaterID is the rater whose snapshot was involved.
	RaterID string

	// Operation is the name of the store operation that failed.
	Operation string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for StoreError.
func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: operation=%s, rater=%s, err=%v", e.Operation, e.RaterID, e.Err)
}

// Unwrap returns the underlying error.
func (e *StoreError) Unwrap() error { return e.Err }

// NewStoreError creates a new StoreError with the given details.
func NewStoreError(raterID, operation string, err error) *StoreError {
	return &StoreError{
		RaterID:   raterID,
		Operation: operation,
		Err:       err,
	}
}

// IngestError represents a problem in an input file, located by row and
// column where known.
type IngestError struct {
	// Source names the input (e.g. "subjects", "pairs").
	Source string

	// Row is the 1-based data row, or 0 when not row-specific.
	Row int

	// Column is the column name, empty when not column-specific.
	Column string

	// Hint is an optional suggestion shown to the operator.
	Hint string

	// Err is the underlying error.
	Err error
}

// Error implements the error interface for IngestError.
func (e *IngestError) Error() string {
	msg := fmt.Sprintf("ingest error: source=%s", e.Source)
	if e.Row > 0 {
		msg += fmt.Sprintf(", row=%d", e.Row)
	}
	if e.Column != "" {
		msg += fmt.Sprintf(", column=%s", e.Column)
	}
	msg += fmt.Sprintf(", err=%v", e.Err)
	if e.Hint != "" {
		msg += fmt.Sprintf(" (%s)", e.Hint)
	}
	return msg
}

// Unwrap returns the underlying error.
func (e *IngestError) Unwrap() error { return e.Err }

// NewIngestError creates a new IngestError with the given details.
func NewIngestError(source string, row int, column string, err error) *IngestError {
	return &IngestError{
		Source: source,
		Row:    row,
		Column: column,
		Err:    err,
	}
}

// ConfigError represents an error from configuration operations.
type ConfigError struct {
	// ConfigKey is the configuration key that was involved in the failed
	// operation.
	ConfigKey string

	// Err is the underlying error that caused the configuration operation
	// to fail.
	Err error
}

// Error implements the error interface for ConfigError.
func (e *ConfigError) Error() string {
	return fmt.Sprintf("config error: key=%s, err=%v", e.ConfigKey, e.Err)
}

// Unwrap returns the underlying error.
func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError creates a new ConfigError with the given details.
func NewConfigError(key string, err error) *ConfigError {
	return &ConfigError{
		ConfigKey: key,
		Err:       err,
	}
}
