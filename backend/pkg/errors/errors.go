package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeRecord represents malformed or incomplete person records
	ErrorTypeRecord ErrorType = "record"
	// ErrorTypeMerge represents field conflicts that could not be resolved
	ErrorTypeMerge ErrorType = "merge"
	// ErrorTypeRender represents GEDCOM rendering faults
	ErrorTypeRender ErrorType = "render"
	// ErrorTypeStore represents persisted store literal errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeFetch represents failures of the remote relative service
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeGraph represents graph database errors
	ErrorTypeGraph ErrorType = "graph"
	// ErrorTypeConfig represents configuration errors
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeArgument represents invalid caller input
	ErrorTypeArgument ErrorType = "argument"
	// ErrorTypeContext represents context cancellation/timeout errors
	ErrorTypeContext ErrorType = "context"
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

// Kind returns the error category
func (e *BaseError) Kind() ErrorType {
	return e.Type
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

// Record Errors

// ErrInvalidRecord is returned when a record lacks its identity or is otherwise unusable
type ErrInvalidRecord struct {
	*BaseError
	Reason string
}

func NewInvalidRecord(reason string) *ErrInvalidRecord {
	return &ErrInvalidRecord{
		BaseError: NewBaseError(ErrorTypeRecord, fmt.Sprintf("invalid record: %s", reason), nil),
		Reason:    reason,
	}
}

// Merge Errors

// ErrConflictUnresolved is returned when a field conflict has no decision
type ErrConflictUnresolved struct {
	*BaseError
	PersonID string
	Field    string
}

func NewConflictUnresolved(personID, field string, err error) *ErrConflictUnresolved {
	return &ErrConflictUnresolved{
		BaseError: NewBaseError(ErrorTypeMerge, fmt.Sprintf("unresolved conflict on %s.%s", personID, field), err),
		PersonID:  personID,
		Field:     field,
	}
}

// Render Errors

// ErrDateFormatFault is returned when a date cannot be rendered
type ErrDateFormatFault struct {
	*BaseError
	Value string
}

func NewDateFormatFault(value string) *ErrDateFormatFault {
	return &ErrDateFormatFault{
		BaseError: NewBaseError(ErrorTypeRender, fmt.Sprintf("malformed date: %q", value), nil),
		Value:     value,
	}
}

// Store Errors

// ErrMalformedStoreLiteral is returned when a persisted store cannot be reloaded
type ErrMalformedStoreLiteral struct {
	*BaseError
	Entry int // -1 when the document itself is unreadable
}

func NewMalformedStoreLiteral(entry int, reason string, err error) *ErrMalformedStoreLiteral {
	msg := fmt.Sprintf("malformed store literal: %s", reason)
	if entry >= 0 {
		msg = fmt.Sprintf("malformed store literal at entry %d: %s", entry, reason)
	}
	return &ErrMalformedStoreLiteral{
		BaseError: NewBaseError(ErrorTypeStore, msg, err),
		Entry:     entry,
	}
}

// Fetch Errors

// ErrFetchFailed is returned when the remote relative service call fails
type ErrFetchFailed struct {
	*BaseError
	Operation string
	IDs       []string
}

func NewFetchFailed(operation string, ids []string, err error) *ErrFetchFailed {
	return &ErrFetchFailed{
		BaseError: NewBaseError(ErrorTypeFetch, fmt.Sprintf("%s failed for %d id(s)", operation, len(ids)), err),
		Operation: operation,
		IDs:       ids,
	}
}

// Argument Errors

// ErrInvalidArgument is returned when an operation is called with unusable input
type ErrInvalidArgument struct {
	*BaseError
	Argument string
}

func NewInvalidArgument(argument, reason string) *ErrInvalidArgument {
	return &ErrInvalidArgument{
		BaseError: NewBaseError(ErrorTypeArgument, fmt.Sprintf("invalid %s: %s", argument, reason), nil),
		Argument:  argument,
	}
}

// Graph Errors

// ErrGraphConnectionFailed is returned when Neo4j connection fails
type ErrGraphConnectionFailed struct {
	*BaseError
	URI string
}

func NewGraphConnectionFailed(uri string, err error) *ErrGraphConnectionFailed {
	return &ErrGraphConnectionFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("failed to connect to Neo4j: %s", uri), err),
		URI:       uri,
	}
}

// ErrGraphQueryFailed is returned when a graph query fails
type ErrGraphQueryFailed struct {
	*BaseError
	Operation string
}

func NewGraphQueryFailed(operation string, err error) *ErrGraphQueryFailed {
	return &ErrGraphQueryFailed{
		BaseError: NewBaseError(ErrorTypeGraph, fmt.Sprintf("query failed: %s", operation), err),
		Operation: operation,
	}
}

// Context Errors

// ErrContextCancelled is returned when context is cancelled
type ErrContextCancelled struct {
	*BaseError
	Operation string
}

func NewContextCancelled(operation string, err error) *ErrContextCancelled {
	return &ErrContextCancelled{
		BaseError: NewBaseError(ErrorTypeContext, fmt.Sprintf("context cancelled: %s", operation), err),
		Operation: operation,
	}
}

// Config Errors

// ErrConfigValidationFailed is returned when configuration validation fails
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

// Helper functions

type kinded interface {
	Kind() ErrorType
}

// IsErrorType checks if an error, or anything it wraps, is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if k, ok := err.(kinded); ok && k.Kind() == errType {
			return true
		}
		err = stderrors.Unwrap(err)
	}
	return false
}

// IsRetryable checks if an error is retryable
func IsRetryable(err error) bool {
	// Context errors are not retryable
	if IsErrorType(err, ErrorTypeContext) {
		return false
	}
	// Remote and graph failures are usually transient
	return IsErrorType(err, ErrorTypeFetch) || IsErrorType(err, ErrorTypeGraph)
}
