package services

import (
	"errors"
	"fmt"
)

// Error kinds surfaced by the relay. Match with errors.Is.
var (
	// ErrUpstreamUnavailable covers DNS failures, timeouts and connection resets
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrUpstreamRejected is a non-2xx answer from a provider
	ErrUpstreamRejected = errors.New("upstream rejected request")
	// ErrMalformedUpstreamResponse means an expected field was absent
	ErrMalformedUpstreamResponse = errors.New("malformed upstream response")
	// ErrInvalidRequestBody means the inbound JSON is missing a required field
	ErrInvalidRequestBody = errors.New("invalid request body")
)

// UpstreamError describes a failed call to an external provider
type UpstreamError struct {
	Kind      error
	Operation string
	Provider  string
	Status    int
	Body      string
	Err       error
}

func (e *UpstreamError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Operation, e.Kind.Error())
	if e.Provider != "" {
		msg = fmt.Sprintf("%s (%s)", msg, e.Provider)
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s: HTTP %d", msg, e.Status)
	}
	if e.Body != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Body)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

// Unwrap exposes the underlying transport or decode error
func (e *UpstreamError) Unwrap() error {
	return e.Err
}

// Is reports whether target is the error kind of e
func (e *UpstreamError) Is(target error) bool {
	return target == e.Kind
}

// NewUpstreamError creates an UpstreamError of the given kind
func NewUpstreamError(kind error, operation, provider string, err error) *UpstreamError {
	return &UpstreamError{
		Kind:      kind,
		Operation: operation,
		Provider:  provider,
		Err:       err,
	}
}

// RejectedError builds an ErrUpstreamRejected error for a non-2xx status
func RejectedError(operation, provider string, status int, body []byte) error {
	e := NewUpstreamError(ErrUpstreamRejected, operation, provider, nil)
	e.Status = status
	e.Body = truncate(string(body), 512)
	return e
}

// MalformedError builds an ErrMalformedUpstreamResponse error
func MalformedError(operation, provider string, reason string) error {
	return NewUpstreamError(ErrMalformedUpstreamResponse, operation, provider, errors.New(reason))
}

// InvalidRequestError wraps a validation failure of an inbound body
func InvalidRequestError(reason string) error {
	return fmt.Errorf("%w: %s", ErrInvalidRequestBody, reason)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
