package shared

import "fmt"

// DomainError represents a business-level error with a stable machine code.
// The wrapped cause is kept for diagnostics only and is never rendered to callers.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	cause   error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// Unwrap exposes the underlying cause for errors.Is/errors.As
func (e *DomainError) Unwrap() error {
	return e.cause
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes for the business error taxonomy
const (
	CodeNotFound           = "NOT_FOUND"
	CodeConflict           = "CONFLICT"
	CodePreconditionFailed = "PRECONDITION_FAILED"
	CodeBadRequest         = "BAD_REQUEST"
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInternal           = "INTERNAL"
)

// Common domain errors
var (
	ErrNotFound       = NewDomainError(CodeNotFound, "Resource not found")
	ErrAlreadyExists  = NewDomainError(CodeConflict, "Resource already exists")
	ErrInvalidInput   = NewDomainError(CodeBadRequest, "Invalid input provided")
	ErrTenantRequired = NewDomainError(CodeBadRequest, "Tenant identity is required")
)

// NewNotFound creates a Not Found error with a specific message
func NewNotFound(message string) *DomainError {
	return NewDomainError(CodeNotFound, message)
}

// NewConflict creates a Conflict error with a specific message
func NewConflict(message string) *DomainError {
	return NewDomainError(CodeConflict, message)
}

// NewPreconditionFailed creates a Precondition Failed error with a specific message
func NewPreconditionFailed(message string) *DomainError {
	return NewDomainError(CodePreconditionFailed, message)
}

// NewBadRequest creates a Bad Request error with a specific message
func NewBadRequest(message string) *DomainError {
	return NewDomainError(CodeBadRequest, message)
}

// NewUnauthorized creates an Unauthorized error with a specific message
func NewUnauthorized(message string) *DomainError {
	return NewDomainError(CodeUnauthorized, message)
}

// NewInternal wraps an unexpected failure. The cause is retained for logging
// but the message rendered to callers stays generic.
func NewInternal(message string, cause error) *DomainError {
	return &DomainError{
		Code:    CodeInternal,
		Message: message,
		cause:   cause,
	}
}

// IsCode reports whether err is a DomainError with the given code
func IsCode(err error, code string) bool {
	de, ok := err.(*DomainError)
	return ok && de.Code == code
}

// WrapInternal re-wraps unexpected errors as Internal while letting known
// business errors pass through unchanged.
func WrapInternal(err error, message string) error {
	if err == nil {
		return nil
	}
	if _, ok := err.(*DomainError); ok {
		return err
	}
	return NewInternal(fmt.Sprintf("%s", message), err)
}
