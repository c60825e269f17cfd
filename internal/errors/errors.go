// internal/errors/errors.go

// Package errors provides the error kinds shared by the planner's components.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ErrorCode identifies an error kind independent of its message.
type ErrorCode string

const (
	ErrCodeInvalidInput       ErrorCode = "INVALID_INPUT"
	ErrCodeProviderFailed     ErrorCode = "PROVIDER_FAILED"
	ErrCodeProviderTimeout    ErrorCode = "PROVIDER_TIMEOUT"
	ErrCodeStorageInitFailed  ErrorCode = "STORAGE_INIT_FAILED"
	ErrCodeStorageWriteFailed ErrorCode = "STORAGE_WRITE_FAILED"
	ErrCodeStorageReadFailed  ErrorCode = "STORAGE_READ_FAILED"
	ErrCodeConfigMissing      ErrorCode = "CONFIG_MISSING"
)

// Sentinels for errors.Is. A StandardError matches the sentinel with the same code.
var (
	ErrInvalidInput    = &StandardError{Code: ErrCodeInvalidInput}
	ErrProvider        = &StandardError{Code: ErrCodeProviderFailed}
	ErrProviderTimeout = &StandardError{Code: ErrCodeProviderTimeout}
	ErrStorageInit     = &StandardError{Code: ErrCodeStorageInitFailed}
	ErrStorageWrite    = &StandardError{Code: ErrCodeStorageWriteFailed}
	ErrStorageRead     = &StandardError{Code: ErrCodeStorageReadFailed}
	ErrConfigMissing   = &StandardError{Code: ErrCodeConfigMissing}
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode `json:"code"`
	Message   string    `json:"message"`
	Details   string    `json:"details,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
	cause     error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("%s: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is reports whether target is a StandardError carrying the same code.
func (e *StandardError) Is(target error) bool {
	var t *StandardError
	if !stderrors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

func newError(code ErrorCode, message string, cause error, retryable bool) *StandardError {
	e := &StandardError{
		Code:      code,
		Message:   message,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
	if cause != nil {
		e.Details = cause.Error()
	}
	return e
}

// NewInvalidInputError reports user input that cannot be used.
func NewInvalidInputError(details string) *StandardError {
	e := newError(ErrCodeInvalidInput, "Invalid input", nil, false)
	e.Details = details
	return e
}

// NewInvalidInputErrorFrom wraps a read failure on the input stream.
func NewInvalidInputErrorFrom(err error) *StandardError {
	return newError(ErrCodeInvalidInput, "Input unavailable", err, false)
}

// NewProviderError wraps a transport or authentication failure of the provider.
func NewProviderError(provider string, err error) *StandardError {
	return newError(ErrCodeProviderFailed, fmt.Sprintf("Provider %s request failed", provider), err, true)
}

// NewProviderTimeoutError reports a provider call that exceeded its deadline.
func NewProviderTimeoutError(provider string, timeout time.Duration) *StandardError {
	e := newError(ErrCodeProviderTimeout, fmt.Sprintf("Provider %s timed out", provider), nil, true)
	e.Details = fmt.Sprintf("timeout: %s", timeout)
	return e
}

// NewStorageInitError reports a backing store that could not be opened or migrated.
func NewStorageInitError(err error) *StandardError {
	return newError(ErrCodeStorageInitFailed, "Storage initialization failed", err, false)
}

// NewStorageWriteError reports a failed insert; what identifies the entity kind.
func NewStorageWriteError(what string, err error) *StandardError {
	return newError(ErrCodeStorageWriteFailed, fmt.Sprintf("Failed to write %s", what), err, false)
}

// NewStorageReadError reports a failed query.
func NewStorageReadError(what string, err error) *StandardError {
	return newError(ErrCodeStorageReadFailed, fmt.Sprintf("Failed to read %s", what), err, false)
}

// NewConfigMissingError reports a required configuration key with no value.
func NewConfigMissingError(key string) *StandardError {
	e := newError(ErrCodeConfigMissing, "Required configuration is missing", nil, false)
	e.Details = key
	return e
}

// CodeOf returns the code of the first StandardError in err's chain, or "".
func CodeOf(err error) ErrorCode {
	var se *StandardError
	if stderrors.As(err, &se) {
		return se.Code
	}
	return ""
}
