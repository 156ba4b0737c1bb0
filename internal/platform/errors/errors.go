// Package errors provides structured errors with a category, a user-facing
// message and log context. The control API never maps them onto HTTP status
// codes; they are rendered as {success:false, message} envelopes.
package errors

import (
	"errors"
	"fmt"
)

// ErrorType is the category of an error, used for logging and metrics.
type ErrorType string

const (
	// TypeValidation indicates a missing or empty request field
	TypeValidation ErrorType = "validation"
	// TypeMalformed indicates a request body that could not be decoded
	TypeMalformed ErrorType = "malformed"
	// TypeNotFound indicates an unknown package or missing launch target
	TypeNotFound ErrorType = "not_found"
	// TypeDispatch indicates the platform refused or failed an activity start
	TypeDispatch ErrorType = "dispatch"
	// TypeIO indicates a staged file could not be written, copied or deleted
	TypeIO ErrorType = "io"
	// TypeInternal indicates anything else
	TypeInternal ErrorType = "internal"
)

// Error represents a structured error with type, message, and context.
type Error struct {
	Type    ErrorType
	Message string
	Cause   error
	Context map[string]any
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// UserMessage is the text shown to control-panel users. Validation and
// not-found messages are shown verbatim; everything else is prefixed.
func (e *Error) UserMessage() string {
	switch e.Type {
	case TypeValidation, TypeNotFound:
		return e.Message
	default:
		return "Error: " + e.Message
	}
}

func newError(t ErrorType, message string, cause error) *Error {
	return &Error{
		Type:    t,
		Message: message,
		Cause:   cause,
		Context: make(map[string]any),
	}
}

func ValidationError(message string) *Error {
	return newError(TypeValidation, message, nil)
}

func MalformedError(message string, cause error) *Error {
	return newError(TypeMalformed, message, cause)
}

func NotFoundError(message string) *Error {
	return newError(TypeNotFound, message, nil)
}

func DispatchError(message string, cause error) *Error {
	return newError(TypeDispatch, message, cause)
}

func IOError(message string, cause error) *Error {
	return newError(TypeIO, message, cause)
}

func InternalError(message string, cause error) *Error {
	return newError(TypeInternal, message, cause)
}

// WithField adds a context field to the error (chainable).
func (e *Error) WithField(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// LogAttrs flattens the error into slog key/value pairs.
func (e *Error) LogAttrs() []any {
	attrs := []any{"error_type", e.Type, "message", e.Message}
	for k, v := range e.Context {
		attrs = append(attrs, k, v)
	}
	if e.Cause != nil {
		attrs = append(attrs, "cause", e.Cause)
	}
	return attrs
}

// AsStructuredError converts any error into a structured Error.
// If err is already an *Error, returns it unchanged.
// Otherwise wraps it as an internal error carrying the original text.
func AsStructuredError(err error) *Error {
	if err == nil {
		return nil
	}

	var structuredErr *Error
	if errors.As(err, &structuredErr) {
		return structuredErr
	}

	return InternalError(err.Error(), err)
}
