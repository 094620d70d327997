package common

import (
	"errors"
	"fmt"
)

// AppError carries a stable code alongside the wrapped cause.
type AppError struct {
	Code    string
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// WrapError wraps err with a code and message.
func WrapError(code, message string, err error) error {
	return &AppError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// NewError creates an AppError without a cause.
func NewError(code, message string) error {
	return &AppError{
		Code:    code,
		Message: message,
	}
}

// CodeOf returns the code of the outermost AppError in the chain, or
// ErrCodeInternal when there is none.
func CodeOf(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}

// HasCode reports whether any AppError in the chain carries code.
func HasCode(err error, code string) bool {
	for err != nil {
		var appErr *AppError
		if !errors.As(err, &appErr) {
			return false
		}
		if appErr.Code == code {
			return true
		}
		err = appErr.Err
	}
	return false
}

// ErrEmptyResponse is returned by generators when the model produced no text.
var ErrEmptyResponse = NewError(ErrCodeUpstreamEmpty, "model returned no text")

// Error codes. The upstream and schema codes mirror the AI failure kinds.
const (
	ErrCodeGitHubAPI         = "GITHUB_API_ERROR"
	ErrCodeDatabase          = "DATABASE_ERROR"
	ErrCodeConfiguration     = "CONFIGURATION_ERROR"
	ErrCodeUpstreamEmpty     = "UPSTREAM_EMPTY"
	ErrCodeUpstreamMalformed = "UPSTREAM_MALFORMED"
	ErrCodeSchemaViolation   = "SCHEMA_VIOLATION"
	ErrCodeUpstreamTransport = "UPSTREAM_TRANSPORT"
	ErrCodeInvalidInput      = "INVALID_INPUT"
	ErrCodeNotFound          = "NOT_FOUND"
	ErrCodeInternal          = "INTERNAL_ERROR"
)
