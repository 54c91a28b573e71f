package domain

import "fmt"

// Error types for consistent error handling across the service.

// ErrNotFound indicates a resource was not found.
type ErrNotFound struct {
	Resource string
	ID       string
}

func (e *ErrNotFound) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// ErrUnauthorized indicates the upstream rejected the credential. Any
// component receiving it must treat the session's credential as invalid.
type ErrUnauthorized struct {
	Message string
}

func (e *ErrUnauthorized) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return "unauthorized"
}

// ErrRejected is a non-auth 4xx from the upstream carrying a human-readable
// reason extracted from its validation payload.
type ErrRejected struct {
	Message string
}

func (e *ErrRejected) Error() string {
	return e.Message
}

// ErrValidation indicates locally rejected input (bad request).
type ErrValidation struct {
	Field   string
	Message string
}

func (e *ErrValidation) Error() string {
	return fmt.Sprintf("validation error on '%s': %s", e.Field, e.Message)
}

// ErrUpstream indicates a transport failure, timeout or 5xx from the store API.
type ErrUpstream struct {
	Endpoint string
	Err      error
}

func (e *ErrUpstream) Error() string {
	return fmt.Sprintf("store api error [%s]: %v", e.Endpoint, e.Err)
}

func (e *ErrUpstream) Unwrap() error {
	return e.Err
}

// ErrCircuitOpen indicates the circuit breaker refused the call.
type ErrCircuitOpen struct {
	Service string
}

func (e *ErrCircuitOpen) Error() string {
	return fmt.Sprintf("circuit breaker open for service: %s", e.Service)
}

// ErrSessionExpired indicates an unknown or expired session token.
type ErrSessionExpired struct{}

func (e *ErrSessionExpired) Error() string {
	return "session expired"
}
