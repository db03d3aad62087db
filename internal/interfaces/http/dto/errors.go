package dto

import "net/http"

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	// ErrCodeUnknown is used when the error type is unknown
	ErrCodeUnknown = "ERR_UNKNOWN"
	// ErrCodeInternal is used for internal server errors
	ErrCodeInternal = "ERR_INTERNAL"
	// ErrCodeStorage is used when the backing store fails
	ErrCodeStorage = "ERR_STORAGE"
)

// Validation error codes
const (
	// ErrCodeValidation is the base code for request validation errors
	ErrCodeValidation = "ERR_VALIDATION"
	// ErrCodeInvalidFormat is used when a monetary amount is malformed
	ErrCodeInvalidFormat = "ERR_INVALID_FORMAT"
)

// Resource error codes
const (
	// ErrCodeNotFound is used when a resource is not found
	ErrCodeNotFound = "ERR_NOT_FOUND"
	// ErrCodeLockTimeout is used when a sale is held by another batch too long
	ErrCodeLockTimeout = "ERR_LOCK_TIMEOUT"
)

// Arithmetic error codes
const (
	// ErrCodeOverflow is used when a monetary result leaves the representable range
	ErrCodeOverflow = "ERR_OVERFLOW"
	// ErrCodeDivisionByZero is used when an amount is divided by zero
	ErrCodeDivisionByZero = "ERR_DIVISION_BY_ZERO"
)

// Input error codes
const (
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
	// ErrCodeInvalidInput is used for invalid input data
	ErrCodeInvalidInput = "ERR_INVALID_INPUT"
	// ErrCodeRequestTooLarge is used when the body exceeds the configured limit
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
	// ErrCodeRateLimited is used when a client exceeds its request quota
	ErrCodeRateLimited = "ERR_RATE_LIMITED"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,
	ErrCodeStorage:  http.StatusInternalServerError,

	ErrCodeValidation:    http.StatusBadRequest,
	ErrCodeInvalidFormat: http.StatusBadRequest,

	ErrCodeNotFound:    http.StatusNotFound,
	ErrCodeLockTimeout: http.StatusConflict,

	// Arithmetic errors -> 422 Unprocessable Entity
	ErrCodeOverflow:       http.StatusUnprocessableEntity,
	ErrCodeDivisionByZero: http.StatusUnprocessableEntity,

	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidInput:    http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRateLimited:     http.StatusTooManyRequests,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCodeMapping maps domain error codes to API error codes
var DomainErrorCodeMapping = map[string]string{
	"NOT_FOUND":        ErrCodeNotFound,
	"INVALID_INPUT":    ErrCodeInvalidInput,
	"INVALID_FORMAT":   ErrCodeInvalidFormat,
	"OVERFLOW":         ErrCodeOverflow,
	"DIVISION_BY_ZERO": ErrCodeDivisionByZero,
	"LOCK_TIMEOUT":     ErrCodeLockTimeout,
}

// NormalizeErrorCode converts a domain error code to the API format.
// Unknown codes are returned as-is.
func NormalizeErrorCode(code string) string {
	if apiCode, ok := DomainErrorCodeMapping[code]; ok {
		return apiCode
	}
	return code
}
