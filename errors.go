package relmap

import (
	"errors"
	"fmt"
)

// Standard sentinel errors for common operations.
var (
	// ErrNotFound is returned when an operation required an existing row
	// but none matched.
	ErrNotFound = errors.New("relmap: entity not found")

	// ErrBadConfig is returned when a mapping descriptor is missing or
	// malformed. It signals a programming defect and is never retryable.
	ErrBadConfig = errors.New("relmap: invalid mapping")

	// ErrExecution is returned when the underlying connection rejected a
	// statement.
	ErrExecution = errors.New("relmap: statement execution failed")

	// ErrMapping is returned when a value could not be coerced between a
	// stored column and its declared field type.
	ErrMapping = errors.New("relmap: value mapping failed")
)

// NotFoundError reports that a required row does not exist.
type NotFoundError struct {
	label string
	id    any // Optional: the key that was looked up
}

// Error returns the error string.
func (e *NotFoundError) Error() string {
	if e.id != nil {
		return fmt.Sprintf("relmap: %s not found (id=%v)", e.label, e.id)
	}
	return fmt.Sprintf("relmap: %s not found", e.label)
}

// Is reports whether the target error matches NotFoundError.
// This allows errors.Is(notFoundErr, ErrNotFound) to return true.
func (e *NotFoundError) Is(err error) bool {
	return err == ErrNotFound
}

// Label returns the entity label.
func (e *NotFoundError) Label() string {
	return e.label
}

// ID returns the key that was looked up, if available.
func (e *NotFoundError) ID() any {
	return e.id
}

// NewNotFoundError returns a new NotFoundError for the given entity label.
func NewNotFoundError(label string) *NotFoundError {
	return &NotFoundError{label: label}
}

// NewNotFoundErrorWithID returns a new NotFoundError with the key that was
// looked up.
func NewNotFoundErrorWithID(label string, id any) *NotFoundError {
	return &NotFoundError{label: label, id: id}
}

// IsNotFound returns true if the error is a NotFoundError.
func IsNotFound(err error) bool {
	if err == nil {
		return false
	}
	var e *NotFoundError
	return errors.As(err, &e) || errors.Is(err, ErrNotFound)
}

// ConfigurationError reports a missing or malformed mapping descriptor.
type ConfigurationError struct {
	label string
	err   error
}

// Error returns the error string.
func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("relmap: invalid mapping for %s: %v", e.label, e.err)
}

// Is reports whether the target error matches ConfigurationError.
func (e *ConfigurationError) Is(err error) bool {
	return err == ErrBadConfig
}

// Unwrap returns the underlying error.
func (e *ConfigurationError) Unwrap() error {
	return e.err
}

// Label returns the entity label.
func (e *ConfigurationError) Label() string {
	return e.label
}

// NewConfigurationError returns a new ConfigurationError for the given
// entity label.
func NewConfigurationError(label string, err error) *ConfigurationError {
	return &ConfigurationError{label: label, err: err}
}

// IsConfiguration returns true if the error is a ConfigurationError.
func IsConfiguration(err error) bool {
	if err == nil {
		return false
	}
	var e *ConfigurationError
	return errors.As(err, &e) || errors.Is(err, ErrBadConfig)
}

// ExecutionError reports that the connection rejected a statement. The
// driver error is wrapped unchanged; the mapper performs no interpretation
// of dialect-specific error codes and no retries.
type ExecutionError struct {
	label string
	op    string // Operation (e.g., "insert", "update", "select")
	err   error
}

// Error returns the error string.
func (e *ExecutionError) Error() string {
	return fmt.Sprintf("relmap: %s %s: %v", e.op, e.label, e.err)
}

// Is reports whether the target error matches ExecutionError.
func (e *ExecutionError) Is(err error) bool {
	return err == ErrExecution
}

// Unwrap returns the underlying driver error.
func (e *ExecutionError) Unwrap() error {
	return e.err
}

// Label returns the entity label.
func (e *ExecutionError) Label() string {
	return e.label
}

// Op returns the operation that failed.
func (e *ExecutionError) Op() string {
	return e.op
}

// NewExecutionError returns a new ExecutionError.
func NewExecutionError(label, op string, err error) *ExecutionError {
	return &ExecutionError{label: label, op: op, err: err}
}

// IsExecution returns true if the error is an ExecutionError.
func IsExecution(err error) bool {
	if err == nil {
		return false
	}
	var e *ExecutionError
	return errors.As(err, &e) || errors.Is(err, ErrExecution)
}

// MappingError reports a failed coercion between a stored column and its
// declared field type.
type MappingError struct {
	label  string
	column string
	err    error
}

// Error returns the error string.
func (e *MappingError) Error() string {
	if e.column != "" {
		return fmt.Sprintf("relmap: mapping %s.%s: %v", e.label, e.column, e.err)
	}
	return fmt.Sprintf("relmap: mapping %s: %v", e.label, e.err)
}

// Is reports whether the target error matches MappingError.
func (e *MappingError) Is(err error) bool {
	return err == ErrMapping
}

// Unwrap returns the underlying error.
func (e *MappingError) Unwrap() error {
	return e.err
}

// Label returns the entity label.
func (e *MappingError) Label() string {
	return e.label
}

// Column returns the stored column name the coercion failed on.
func (e *MappingError) Column() string {
	return e.column
}

// NewMappingError returns a new MappingError for the given column.
func NewMappingError(label, column string, err error) *MappingError {
	return &MappingError{label: label, column: column, err: err}
}

// IsMapping returns true if the error is a MappingError.
func IsMapping(err error) bool {
	if err == nil {
		return false
	}
	var e *MappingError
	return errors.As(err, &e) || errors.Is(err, ErrMapping)
}
