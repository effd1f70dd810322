// Package errors defines AppError, the single error type handed from the
// auth service to the HTTP layer. Every AppError knows its wire code, its
// HTTP status and whether the client may retry.
package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
)

// Messages shown to API callers. They are part of the public contract.
const (
	MsgUserExists         = "User already exists"
	MsgBadCredentials     = "Incorrect username or password"
	MsgSignatureExpired   = "Signature has expired"
	MsgInvalidCredentials = "Invalid authentication credentials"
	MsgTokenRevoked       = "Token has been revoked"
	MsgInternal           = "Internal server error"
)

// AppError is the unified application error type.
type AppError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	Retryable  bool           `json:"retryable"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	// Cause is logged but never serialized.
	Cause error `json:"-"`
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (cause: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause of the error.
func (e *AppError) Unwrap() error { return e.Cause }

// WithCause sets the underlying cause and returns the receiver.
func (e *AppError) WithCause(cause error) *AppError {
	e.Cause = cause
	return e
}

// WithDetail sets a single detail key-value pair and returns the receiver.
func (e *AppError) WithDetail(key string, value any) *AppError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// New creates an AppError, deriving Retryable from the code.
func New(code ErrorCode, message string, httpStatus int) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: httpStatus,
		Retryable:  IsRetryableCode(code),
	}
}

// AlreadyExists reports a uniqueness violation on registration. The wire
// contract for a duplicate user is 400, not 409.
func AlreadyExists(resource string) *AppError {
	return &AppError{
		Code: ErrCodeAlreadyExists, Message: MsgUserExists,
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"resource": resource},
	}
}

// NotFound creates an AppError for a missing resource.
func NotFound(resource, id string) *AppError {
	details := map[string]any{"resource": resource}
	if id != "" {
		details["id"] = id
	}
	return &AppError{
		Code: ErrCodeNotFound, Message: fmt.Sprintf("The requested %s was not found.", resource),
		HTTPStatus: http.StatusNotFound, Details: details,
	}
}

// Validation creates an AppError for a request that failed input validation.
func Validation(message string) *AppError {
	return &AppError{
		Code: ErrCodeInvalidInput, Message: message,
		HTTPStatus: http.StatusBadRequest,
	}
}

// MissingField creates an AppError for an absent required field.
func MissingField(field string) *AppError {
	return &AppError{
		Code: ErrCodeMissingField, Message: fmt.Sprintf("Missing required field: %s", field),
		HTTPStatus: http.StatusBadRequest,
		Details:    map[string]any{"field": field},
	}
}

// Unauthorized creates an AppError for failed authentication.
func Unauthorized(reason string) *AppError {
	if reason == "" {
		reason = "Not authenticated"
	}
	return &AppError{
		Code: ErrCodeUnauthorized, Message: reason,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenExpired is returned when a token's exp claim is in the past.
func TokenExpired() *AppError {
	return &AppError{
		Code: ErrCodeTokenExpired, Message: MsgSignatureExpired,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// InvalidToken covers bad signatures, wrong algorithms and missing claims.
func InvalidToken() *AppError {
	return &AppError{
		Code: ErrCodeInvalidToken, Message: MsgInvalidCredentials,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// TokenRevoked is returned when a well-formed token is no longer in the cache.
func TokenRevoked() *AppError {
	return &AppError{
		Code: ErrCodeTokenRevoked, Message: MsgTokenRevoked,
		HTTPStatus: http.StatusUnauthorized,
	}
}

// Internal creates an AppError for an unexpected failure. The message is generic.
func Internal(cause error) *AppError {
	return &AppError{
		Code: ErrCodeInternal, Message: MsgInternal,
		HTTPStatus: http.StatusInternalServerError, Cause: cause,
	}
}

// ServiceUnavailable reports a dependency that is down or saturated.
func ServiceUnavailable(service string) *AppError {
	return &AppError{
		Code: ErrCodeServiceUnavailable, Message: fmt.Sprintf("The %s is temporarily unavailable. Please try again.", service),
		HTTPStatus: http.StatusServiceUnavailable, Retryable: true,
		Details: map[string]any{"service": service},
	}
}

// StatusClientClosedRequest is the de facto status for a request whose
// client disconnected before a response was written.
const StatusClientClosedRequest = 499

// Canceled reports a request abandoned by its caller.
func Canceled(cause error) *AppError {
	return &AppError{
		Code: ErrCodeCanceled, Message: "Request canceled",
		HTTPStatus: StatusClientClosedRequest, Cause: cause,
	}
}

// IsCode reports whether err is an AppError carrying code.
func IsCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return stderrors.As(err, &appErr) && appErr.Code == code
}
