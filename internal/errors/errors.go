// Package errors provides the error taxonomy shared by the auth and chat
// services and the HTTP transport adapter. Semantic failures in those
// services are returned as *AppError; unexpected storage errors pass
// through unwrapped and the transport's ErrorHandler renders them as
// Internal.
package errors

import (
	"fmt"
	"net/http"
	"time"
)

// Kind is a standardized error code understood by the transport adapter.
type Kind string

const (
	// Session lifecycle
	KindBadCredentials Kind = "BAD_CREDENTIALS"
	KindInterrupted    Kind = "INTERRUPTED"
	KindExpired        Kind = "EXPIRED"
	KindTokenNotFound  Kind = "TOKEN_NOT_FOUND"
	KindTokenExpired   Kind = "TOKEN_EXPIRED"
	KindBadToken       Kind = "BAD_TOKEN"

	// Validation sub-kinds
	KindInvalidInput            Kind = "INVALID_INPUT"
	KindLimitExceeded           Kind = "LIMIT_EXCEEDED"
	KindInsufficientPermissions Kind = "INSUFFICIENT_PERMISSIONS"
	KindAlreadyExists           Kind = "ALREADY_EXISTS"
	KindNotFound                Kind = "NOT_FOUND"

	// Catch-all
	KindInternal Kind = "INTERNAL"
)

// StatusCodes maps each Kind to the HTTP status the transport adapter
// should answer with (§7 of SPEC_FULL.md).
var StatusCodes = map[Kind]int{
	KindBadCredentials: http.StatusUnauthorized,
	KindInterrupted:    http.StatusConflict,
	KindExpired:        http.StatusUnauthorized,
	KindTokenNotFound:  http.StatusUnauthorized,
	KindTokenExpired:   http.StatusUnauthorized,
	KindBadToken:       http.StatusBadRequest,

	KindInvalidInput:            http.StatusBadRequest,
	KindLimitExceeded:           http.StatusBadRequest,
	KindInsufficientPermissions: http.StatusBadRequest,
	KindAlreadyExists:           http.StatusBadRequest,
	KindNotFound:                http.StatusBadRequest,

	KindInternal: http.StatusInternalServerError,
}

// AppError is a structured application error carrying enough context for
// the transport adapter to render a consistent JSON body.
type AppError struct {
	Kind      Kind        `json:"kind"`
	Message   string      `json:"error"`
	Details   interface{} `json:"details,omitempty"`
	RequestID string      `json:"request_id,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

func (e *AppError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// StatusCode returns the HTTP status the transport adapter should use.
func (e *AppError) StatusCode() int {
	if code, ok := StatusCodes[e.Kind]; ok {
		return code
	}
	return http.StatusInternalServerError
}

func (e *AppError) WithRequestID(id string) *AppError {
	e.RequestID = id
	return e
}

// New creates an AppError with no extra details.
func New(kind Kind, message string) *AppError {
	return &AppError{Kind: kind, Message: message, Timestamp: time.Now()}
}

// NewWithDetails creates an AppError carrying structured context, used for
// validation failures.
func NewWithDetails(kind Kind, message string, details interface{}) *AppError {
	return &AppError{Kind: kind, Message: message, Details: details, Timestamp: time.Now()}
}

// Wrap converts a generic error into an AppError, passing AppErrors through
// unchanged so error kinds are never accidentally demoted to Internal.
func Wrap(err error, kind Kind) *AppError {
	if appErr, ok := err.(*AppError); ok {
		return appErr
	}
	return New(kind, err.Error())
}

// IsAppError reports whether err is an *AppError.
func IsAppError(err error) (*AppError, bool) {
	appErr, ok := err.(*AppError)
	return appErr, ok
}

// InvalidInput builds the Validation(InvalidInput) error described in
// SPEC_FULL.md §4.6. Callers pass redactedValue == "<password>" for secret
// fields instead of the real value.
func InvalidInput(redactedValue, reason string) *AppError {
	return NewWithDetails(KindInvalidInput, fmt.Sprintf("invalid value for input, reason: %s", reason), map[string]string{
		"value":  redactedValue,
		"reason": reason,
	})
}

// LimitExceeded builds the Validation(LimitExceeded) error.
func LimitExceeded(subject, unit string, attempted, limit int) *AppError {
	return NewWithDetails(KindLimitExceeded, fmt.Sprintf("limit exceeded for %s", subject), map[string]interface{}{
		"subject":   subject,
		"unit":      unit,
		"attempted": attempted,
		"limit":     limit,
	})
}

// InsufficientPermissions builds the Validation(InsufficientPermissions) error.
func InsufficientPermissions(current, required string) *AppError {
	return NewWithDetails(KindInsufficientPermissions, "insufficient permissions for action", map[string]string{
		"current":  current,
		"required": required,
	})
}

// AlreadyExists builds the Validation(AlreadyExists) error.
func AlreadyExists(message string) *AppError {
	return New(KindAlreadyExists, message)
}

// NotFound builds the deliberately ambiguous Validation(NotFound) error.
func NotFound(message string) *AppError {
	return New(KindNotFound, message)
}
