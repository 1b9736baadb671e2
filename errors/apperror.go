package errors

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Code classifies a failure surfaced to callers of the SPARQL core.
type Code string

const (
	CodeQueryError      Code = "QUERY_ERROR"
	CodeAuthRequired    Code = "AUTH_REQUIRED"
	CodeAuthFailed      Code = "AUTH_FAILED"
	CodeNotFound        Code = "NOT_FOUND"
	CodeTimeout         Code = "TIMEOUT"
	CodeServerError     Code = "SERVER_ERROR"
	CodeCORSBlocked     Code = "CORS_BLOCKED"
	CodeNetworkError    Code = "NETWORK_ERROR"
	CodeInvalidResponse Code = "INVALID_RESPONSE"
	CodeUnknown         Code = "UNKNOWN"
)

// Class groups codes by who is at fault.
type Class string

const (
	// ClassClient means the endpoint refused the request as sent (credentials, syntax, path).
	ClassClient Class = "client"
	// ClassEnvironment means the network or the store misbehaved; another attempt may succeed.
	ClassEnvironment Class = "environment"
	// ClassStructural means the request cannot reach the endpoint from here (e.g. CORS).
	ClassStructural Class = "structural"
	ClassUnknown    Class = "unknown"
)

// Class returns the failure class of the code.
func (c Code) Class() Class {
	switch c {
	case CodeAuthRequired, CodeAuthFailed, CodeQueryError, CodeNotFound:
		return ClassClient
	case CodeTimeout, CodeNetworkError, CodeServerError, CodeInvalidResponse:
		return ClassEnvironment
	case CodeCORSBlocked:
		return ClassStructural
	default:
		return ClassUnknown
	}
}

// Retryable reports whether another attempt with the same request is allowed.
// Retrying with the same bad credentials cannot succeed.
func (c Code) Retryable() bool {
	return c != CodeAuthRequired && c != CodeAuthFailed
}

// now is swapped in tests.
var now = time.Now

// AppError is the value-typed failure handed across the core boundary.
type AppError struct {
	Code      Code      `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Hint      string    `json:"hint,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	cause error
}

// NewAppError creates an AppError stamped with the current time.
func NewAppError(code Code, message string) *AppError {
	return &AppError{Code: code, Message: message, Timestamp: now()}
}

// NewAppErrorf creates an AppError with a formatted message.
func NewAppErrorf(code Code, format string, args ...interface{}) *AppError {
	return NewAppError(code, fmt.Sprintf(format, args...))
}

func (e *AppError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s (%s)", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is / errors.As.
func (e *AppError) Unwrap() error {
	return e.cause
}

// WithDetails sets technical details. Intended for use while building the error.
func (e *AppError) WithDetails(details string) *AppError {
	e.Details = details
	return e
}

// WithHint sets a user-actionable remediation hint.
func (e *AppError) WithHint(hint string) *AppError {
	e.Hint = hint
	return e
}

// WithCause records the error that triggered this one.
func (e *AppError) WithCause(err error) *AppError {
	e.cause = err
	return e
}

// Retryable reports whether the code permits another attempt.
func (e *AppError) Retryable() bool {
	return e.Code.Retryable()
}

// AsAppError finds the first AppError in err's chain.
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if err != nil && As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// CodeOf returns the classified code of err, or CodeUnknown.
func CodeOf(err error) Code {
	if appErr, ok := AsAppError(err); ok {
		return appErr.Code
	}
	return CodeUnknown
}

// ToAppError converts any error into an AppError for callers that render it.
// Hints attached with WithHint anywhere in the chain are preserved.
func ToAppError(err error) *AppError {
	if err == nil {
		return nil
	}
	if appErr, ok := AsAppError(err); ok {
		return appErr
	}

	var appErr *AppError
	switch {
	case Is(err, context.DeadlineExceeded):
		appErr = NewAppError(CodeTimeout, "Request timed out")
	case Is(err, context.Canceled):
		appErr = NewAppError(CodeUnknown, "Request was cancelled")
	default:
		appErr = NewAppError(CodeUnknown, "An unexpected error occurred")
	}
	appErr.Details = err.Error()
	if hints := GetAllHints(err); len(hints) > 0 {
		appErr.Hint = strings.Join(hints, "\n")
	}
	return appErr.WithCause(err)
}
