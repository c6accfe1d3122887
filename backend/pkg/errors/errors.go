package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeNotFound means a subject or target user is absent
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeInvalidState means the relation state forbids the operation
	ErrorTypeInvalidState ErrorType = "invalid_state"
	// ErrorTypeSearchUnsupported means a search phrase could not be embedded
	ErrorTypeSearchUnsupported ErrorType = "search_unsupported"
	// ErrorTypeValidation represents rejected input values
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConflict represents uniqueness violations
	ErrorTypeConflict ErrorType = "conflict"
	// ErrorTypeStore represents graph store transport or query failures
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeEmbedding represents failures of a remote embedding provider
	ErrorTypeEmbedding ErrorType = "embedding"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// Precondition errors

// ErrNotFound carries the request fields whose users are absent
type ErrNotFound struct {
	*BaseError
	Fields map[string]string
}

func NewNotFound(fields map[string]string) *ErrNotFound {
	return &ErrNotFound{
		BaseError: NewBaseError(ErrorTypeNotFound, "user not found", nil),
		Fields:    fields,
	}
}

// ErrInvalidState carries the request fields whose relation state forbids the operation
type ErrInvalidState struct {
	*BaseError
	Fields map[string]string
}

func NewInvalidState(fields map[string]string) *ErrInvalidState {
	return &ErrInvalidState{
		BaseError: NewBaseError(ErrorTypeInvalidState, "relation state forbids operation", nil),
		Fields:    fields,
	}
}

// ErrSearchUnsupported is returned when a search phrase has no embedding
var ErrSearchUnsupported = NewBaseError(ErrorTypeSearchUnsupported, "search phrase could not be embedded", nil)

// ErrValidation carries per-field validation messages
type ErrValidation struct {
	*BaseError
	Fields map[string]string
}

func NewValidation(fields map[string]string) *ErrValidation {
	return &ErrValidation{
		BaseError: NewBaseError(ErrorTypeValidation, "validation failed", nil),
		Fields:    fields,
	}
}

// ErrConflict is returned when a unique account already exists
type ErrConflict struct {
	*BaseError
	Field string
}

func NewConflict(field string) *ErrConflict {
	return &ErrConflict{
		BaseError: NewBaseError(ErrorTypeConflict, fmt.Sprintf("%s already exists", field), nil),
		Field:     field,
	}
}

// Store errors

// ErrStoreFailure wraps a graph store failure for a named operation
type ErrStoreFailure struct {
	*BaseError
	Operation string
}

func NewStoreFailure(operation string, err error) *ErrStoreFailure {
	return &ErrStoreFailure{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("store operation failed: %s", operation), err),
		Operation: operation,
	}
}

// ErrStoreConnectionFailed is returned when the graph store cannot be reached
type ErrStoreConnectionFailed struct {
	*BaseError
	URI string
}

func NewStoreConnectionFailed(uri string, err error) *ErrStoreConnectionFailed {
	return &ErrStoreConnectionFailed{
		BaseError: NewBaseError(ErrorTypeStore, fmt.Sprintf("failed to connect to graph store: %s", uri), err),
		URI:       uri,
	}
}

// Embedding errors

// ErrEmbeddingFailed is returned when a remote embedding request fails
type ErrEmbeddingFailed struct {
	*BaseError
	Model string
}

func NewEmbeddingFailed(model string, err error) *ErrEmbeddingFailed {
	return &ErrEmbeddingFailed{
		BaseError: NewBaseError(ErrorTypeEmbedding, fmt.Sprintf("embedding request failed for model %s", model), err),
		Model:     model,
	}
}

// Config Errors

// ErrConfigMissingRequired is returned when a required config value is missing
type ErrConfigMissingRequired struct {
	*BaseError
	Field string
}

func NewConfigMissingRequired(field string) *ErrConfigMissingRequired {
	return &ErrConfigMissingRequired{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", field), nil),
		Field:     field,
	}
}

// ErrConfigValidationFailed is returned when a config value is out of range
type ErrConfigValidationFailed struct {
	*BaseError
	Field  string
	Reason string
}

func NewConfigValidationFailed(field, reason string) *ErrConfigValidationFailed {
	return &ErrConfigValidationFailed{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("config validation failed: %s - %s", field, reason), nil),
		Field:     field,
		Reason:    reason,
	}
}

// Helper functions

type typed interface {
	errorType() ErrorType
}

func (e *BaseError) errorType() ErrorType {
	return e.Type
}

// TypeOf returns the category of the first BaseError in the chain, or "" when there is none
func TypeOf(err error) ErrorType {
	for err != nil {
		if t, ok := err.(typed); ok {
			return t.errorType()
		}
		err = errors.Unwrap(err)
	}
	return ""
}

// IsErrorType checks if an error is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	return TypeOf(err) == errType
}

// FieldsOf returns the per-field messages carried by precondition and validation errors
func FieldsOf(err error) map[string]string {
	var nf *ErrNotFound
	if errors.As(err, &nf) {
		return nf.Fields
	}
	var is *ErrInvalidState
	if errors.As(err, &is) {
		return is.Fields
	}
	var v *ErrValidation
	if errors.As(err, &v) {
		return v.Fields
	}
	var c *ErrConflict
	if errors.As(err, &c) {
		return map[string]string{c.Field: "already exists"}
	}
	return nil
}
