package errors

import (
	"errors"
	"fmt"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeFetch represents retrieval-channel errors
	ErrorTypeFetch ErrorType = "fetch"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeParsing represents HTML parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeStore represents store-related errors
	ErrorTypeStore ErrorType = "store"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// WorkerError represents a worker-specific error
type WorkerError struct {
	Type      ErrorType
	Component string
	Message   string
	Err       error
	Time      time.Time
}

// Error implements the error interface
func (e *WorkerError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *WorkerError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is retryable
func (e *WorkerError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeFetch:
		return true
	case ErrorTypeRateLimit:
		return false
	default:
		return false
	}
}

// New creates a new WorkerError
func New(errType ErrorType, component, message string, err error) *WorkerError {
	return &WorkerError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *WorkerError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(component string, duration time.Duration) *WorkerError {
	message := fmt.Sprintf("rate limited for %v", duration)
	return New(ErrorTypeRateLimit, component, message, nil)
}

// NewStore creates a new store error
func NewStore(component, message string, err error) *WorkerError {
	return New(ErrorTypeStore, component, message, err)
}

// NewValidation creates a new validation error
func NewValidation(component, message string) *WorkerError {
	return New(ErrorTypeValidation, component, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *WorkerError {
	return New(ErrorTypeConfiguration, "", message, err)
}

// FetchError is returned once the retrieval channel has exhausted all retry
// attempts. Status is the last HTTP status observed, or 0 when the failure
// never produced a response.
type FetchError struct {
	Status   int
	Attempts int
	Err      error
}

// Error implements the error interface
func (e *FetchError) Error() string {
	if e.Status > 0 {
		return fmt.Sprintf("fetch failed after %d attempts (last status: %d): %v", e.Attempts, e.Status, e.Err)
	}
	return fmt.Sprintf("fetch failed after %d attempts: %v", e.Attempts, e.Err)
}

// Unwrap returns the underlying error
func (e *FetchError) Unwrap() error {
	return e.Err
}

// NewFetchExhausted creates a FetchError for an exhausted retry sequence
func NewFetchExhausted(status, attempts int, err error) *FetchError {
	return &FetchError{Status: status, Attempts: attempts, Err: err}
}

// IsFetchExhausted reports whether err is (or wraps) a FetchError
func IsFetchExhausted(err error) bool {
	var fe *FetchError
	return errors.As(err, &fe)
}
