package errors

import (
	stderrors "errors"
	"fmt"
)

// IgnrError is the structured error type surfaced to users.
type IgnrError struct {
	// Code is the unique error code (e.g., "ERR_201_ROOT_UNREADABLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *IgnrError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *IgnrError) Unwrap() error {
	return e.Cause
}

// Is matches another IgnrError by code.
func (e *IgnrError) Is(target error) bool {
	if t, ok := target.(*IgnrError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
func (e *IgnrError) WithDetail(key, value string) *IgnrError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
func (e *IgnrError) WithSuggestion(suggestion string) *IgnrError {
	e.Suggestion = suggestion
	return e
}

// New creates an IgnrError. Category, severity, and the retryable flag
// are derived from the code.
func New(code string, message string, cause error) *IgnrError {
	return &IgnrError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates an IgnrError whose message is err's message.
func Wrap(code string, err error) *IgnrError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *IgnrError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *IgnrError {
	return New(ErrCodeInvalidInput, message, cause)
}

// As finds the first IgnrError in err's chain.
func As(err error) (*IgnrError, bool) {
	var ie *IgnrError
	if stderrors.As(err, &ie) {
		return ie, true
	}
	return nil, false
}

// IsRetryable reports whether err carries a retryable IgnrError.
func IsRetryable(err error) bool {
	if ie, ok := As(err); ok {
		return ie.Retryable
	}
	return false
}

// GetCode extracts the error code, or "" when err carries no IgnrError.
func GetCode(err error) string {
	if ie, ok := As(err); ok {
		return ie.Code
	}
	return ""
}
