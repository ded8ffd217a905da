package shared

import (
	"errors"
	"fmt"
)

// ErrorKind classifies failures from external providers and internal policy
// decisions into the small taxonomy the rest of the engine dispatches on.
// Callers never inspect raw HTTP status codes; adapters map them here.
type ErrorKind string

const (
	ErrConfigMissing ErrorKind = "config_missing"
	ErrAuth          ErrorKind = "auth"
	ErrRateLimit     ErrorKind = "rate_limit"
	ErrNotFound      ErrorKind = "not_found"
	ErrNetwork       ErrorKind = "network"
	ErrServer        ErrorKind = "server"
	ErrValidation    ErrorKind = "validation"
	ErrConflict      ErrorKind = "conflict"
	ErrPolicyReject  ErrorKind = "policy_reject"
)

// ProviderError is the typed error produced at adapter boundaries.
type ProviderError struct {
	Kind      ErrorKind
	Retryable bool
	Status    int
	Body      string
	Err       error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	if e.Body != "" {
		return fmt.Sprintf("%s (status %d): %s", e.Kind, e.Status, e.Body)
	}
	return string(e.Kind)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderError creates a ProviderError with retryability derived from kind.
func NewProviderError(kind ErrorKind, err error) *ProviderError {
	return &ProviderError{
		Kind:      kind,
		Retryable: kind == ErrRateLimit || kind == ErrNetwork || kind == ErrServer,
		Err:       err,
	}
}

// FromHTTPStatus maps an HTTP status code to the error taxonomy.
// 2xx never reaches here; not_found is non-fatal to callers.
func FromHTTPStatus(status int, body string) *ProviderError {
	var kind ErrorKind
	switch {
	case status == 401 || status == 403:
		kind = ErrAuth
	case status == 429:
		kind = ErrRateLimit
	case status == 404:
		kind = ErrNotFound
	case status >= 500:
		kind = ErrServer
	default:
		kind = ErrValidation
	}
	return &ProviderError{
		Kind:      kind,
		Retryable: kind == ErrRateLimit || kind == ErrServer,
		Status:    status,
		Body:      body,
	}
}

// KindOf extracts the ErrorKind from an error chain, or "" if none.
func KindOf(err error) ErrorKind {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return ""
}

// IsNotFound reports whether err is a not_found provider error.
func IsNotFound(err error) bool {
	return KindOf(err) == ErrNotFound
}

// IsRetryable reports whether err should re-enter a retry loop.
func IsRetryable(err error) bool {
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return false
}
