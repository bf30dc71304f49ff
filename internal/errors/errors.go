package errors

import "fmt"

// ErrorCode represents a tabsave error code.
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "INVALID_REQUEST"  // 400
	ErrNotFound        ErrorCode = "NOT_FOUND"        // 404
	ErrConflict        ErrorCode = "CONFLICT"         // 409
	ErrCaptureFailed   ErrorCode = "CAPTURE_FAILED"   // 502
	ErrTransportFailed ErrorCode = "TRANSPORT_FAILED" // 502
	ErrInternal        ErrorCode = "INTERNAL"         // 500
)

// SaveError represents a structured error with code, status, and details.
type SaveError struct {
	Code    ErrorCode
	Status  int
	Message string
	Details map[string]any
}

// Error implements the error interface.
func (e *SaveError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewInvalidRequest creates a 400 error for invalid request parameters.
func NewInvalidRequest(msg string) *SaveError {
	return &SaveError{
		Code:    ErrInvalidRequest,
		Status:  400,
		Message: msg,
	}
}

// NewNotFound creates a 404 error for a missing rule, profile, or tab.
func NewNotFound(kind, identifier string) *SaveError {
	return &SaveError{
		Code:    ErrNotFound,
		Status:  404,
		Message: fmt.Sprintf("%s not found: %s", kind, identifier),
		Details: map[string]any{"kind": kind, "identifier": identifier},
	}
}

// NewConflict creates a 409 error for general conflicts.
func NewConflict(msg string) *SaveError {
	return &SaveError{
		Code:    ErrConflict,
		Status:  409,
		Message: msg,
	}
}

// NewCaptureFailed creates a 502 error for a failed page-capture stage.
func NewCaptureFailed(url string, err error) *SaveError {
	msg := "page capture failed"
	if err != nil {
		msg = err.Error()
	}
	return &SaveError{
		Code:    ErrCaptureFailed,
		Status:  502,
		Message: msg,
		Details: map[string]any{"url": url},
	}
}

// NewTransportFailed creates a 502 error for a failed fetch, upload, or delivery.
func NewTransportFailed(stage string, err error) *SaveError {
	msg := "transport failed"
	if err != nil {
		msg = err.Error()
	}
	return &SaveError{
		Code:    ErrTransportFailed,
		Status:  502,
		Message: msg,
		Details: map[string]any{"stage": stage},
	}
}

// NewInternal creates a 500 error for unexpected internal errors.
func NewInternal(err error) *SaveError {
	msg := "internal error"
	if err != nil {
		msg = err.Error()
	}
	return &SaveError{
		Code:    ErrInternal,
		Status:  500,
		Message: msg,
	}
}

// Is checks if an error is a SaveError with the given code.
func Is(err error, code ErrorCode) bool {
	if sErr, ok := err.(*SaveError); ok {
		return sErr.Code == code
	}
	return false
}
