package shared

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrNotFound       = NewDomainError("NOT_FOUND", "Resource not found")
	ErrInvalidInput   = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrInvalidFormat  = NewDomainError("INVALID_FORMAT", "Malformed monetary amount")
	ErrOverflow       = NewDomainError("OVERFLOW", "Monetary amount out of range")
	ErrDivisionByZero = NewDomainError("DIVISION_BY_ZERO", "Division by zero")
	ErrLockTimeout    = NewDomainError("LOCK_TIMEOUT", "Resource is locked by another operation")
)

// StorageError wraps a failure reported by the backing store
// (connectivity, constraint violation, etc.).
type StorageError struct {
	Op  string
	Err error
}

// Error implements the error interface
func (e *StorageError) Error() string {
	return fmt.Sprintf("storage %s: %v", e.Op, e.Err)
}

// Unwrap returns the underlying store error
func (e *StorageError) Unwrap() error {
	return e.Err
}

// NewStorageError wraps err as a StorageError for the given operation.
// Returns nil when err is nil.
func NewStorageError(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// IsStorageError reports whether err is or wraps a StorageError
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}
