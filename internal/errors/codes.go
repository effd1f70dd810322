package errors

// ErrorCode is a machine-readable error code carried in every error body.
type ErrorCode string

// Availability errors.
const (
	ErrCodeServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
)

// Resource errors.
const (
	ErrCodeNotFound      ErrorCode = "NOT_FOUND"
	ErrCodeAlreadyExists ErrorCode = "ALREADY_EXISTS"
)

// Validation errors.
const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeMissingField ErrorCode = "MISSING_FIELD"
)

// Authentication errors. All of them are reported as HTTP 401.
const (
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeTokenExpired ErrorCode = "TOKEN_EXPIRED"
	ErrCodeInvalidToken ErrorCode = "INVALID_TOKEN"
	ErrCodeTokenRevoked ErrorCode = "TOKEN_REVOKED"
)

// Internal errors.
const (
	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
	ErrCodeCanceled ErrorCode = "CANCELED"
)

var retryableCodes = map[ErrorCode]bool{
	ErrCodeServiceUnavailable: true,
}

// IsRetryableCode reports whether a client may retry a request that failed with code.
func IsRetryableCode(code ErrorCode) bool {
	return retryableCodes[code]
}
