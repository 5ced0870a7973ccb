// Package domain defines the core domain models for ScuttleKit.
package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a business domain error with a structured error code.
//
// Codes follow the format SK-<AREA>-<NNNN>. The last four digits mirror the
// HTTP status family the error maps to (4010 -> 401, 4090 -> 409, ...).
type DomainError struct {
	Code    string // Error code (e.g., "SK-TOKN-4090")
	Message string // Human-readable message
	Details string // Optional additional details
	Cause   error  // Underlying error (if any)
}

// Error implements the error interface.
func (e *DomainError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error for errors.Unwrap() support.
func (e *DomainError) Unwrap() error {
	return e.Cause
}

// Is implements errors.Is() support for error comparison.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// Kind returns the wire name of the error kind (e.g., "UnauthorizedError").
func (e *DomainError) Kind() string {
	if k, ok := kinds[e.Code]; ok {
		return k
	}
	return "InternalError"
}

// NewDomainError creates a new DomainError with the given code and message.
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// WithDetails returns a copy of the error with additional details.
func (e *DomainError) WithDetails(details string) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: details,
		Cause:   e.Cause,
	}
}

// WithCause returns a copy of the error wrapping the given cause.
func (e *DomainError) WithCause(cause error) *DomainError {
	return &DomainError{
		Code:    e.Code,
		Message: e.Message,
		Details: e.Details,
		Cause:   cause,
	}
}

// Wrap wraps an error with this domain error as the cause.
func (e *DomainError) Wrap(cause error) *DomainError {
	return e.WithCause(cause)
}

// IsDomainError checks if an error is a DomainError with the given code.
// If code is empty, it only checks if the error is a DomainError.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		if code == "" {
			return true
		}
		return de.Code == code
	}
	return false
}

// GetErrorCode extracts the error code from an error if it's a DomainError.
func GetErrorCode(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code
	}
	return ""
}

// AsDomainError returns err as a *DomainError. Errors that are not domain
// errors are wrapped in ErrInternal so raw storage or parse failures never
// leak to a client.
func AsDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var de *DomainError
	if errors.As(err, &de) {
		return de
	}
	return ErrInternal.WithCause(err)
}

// ============================================================================
// Bootstrap and storage errors (BOOT, STORE)
// ============================================================================

var (
	// ErrBootstrap indicates the extension could not be initialized.
	// The host must not start the gateway.
	ErrBootstrap = NewDomainError("SK-BOOT-5000", "bootstrap failed")

	// ErrStoreCorrupt indicates tokens.json exists but is not a well-formed token sequence.
	ErrStoreCorrupt = NewDomainError("SK-STORE-5001", "token store corrupt")

	// ErrStoreNotInitialized indicates tokens.json does not exist.
	ErrStoreNotInitialized = NewDomainError("SK-STORE-5002", "token store not initialized")
)

// ============================================================================
// Token errors (TOKN)
// ============================================================================

var (
	// ErrDuplicateToken indicates the token is already present in the store.
	ErrDuplicateToken = NewDomainError("SK-TOKN-4090", "duplicate token")

	// ErrTokenNotFound indicates the token is not present in the store.
	ErrTokenNotFound = NewDomainError("SK-TOKN-4040", "token not found")
)

// ============================================================================
// Protocol and authorization errors (AUTH, SVC, PROTO, ARG)
// ============================================================================

var (
	// ErrUnauthorized indicates a missing token, an unknown token, or a token
	// whose settings do not grant the required access.
	ErrUnauthorized = NewDomainError("SK-AUTH-4010", "unauthorized")

	// ErrServiceNotFound indicates the requested service is not registered.
	ErrServiceNotFound = NewDomainError("SK-SVC-4040", "service not found")

	// ErrProtocol indicates a malformed frame.
	ErrProtocol = NewDomainError("SK-PROTO-4000", "protocol error")

	// ErrInvalidRegistration indicates registration parameters failed validation.
	ErrInvalidRegistration = NewDomainError("SK-ARG-4001", "invalid registration")
)

// ============================================================================
// System errors (SYS)
// ============================================================================

var (
	// ErrTimeout indicates an operation did not complete within its deadline.
	ErrTimeout = NewDomainError("SK-SYS-5040", "timeout")

	// ErrInternal indicates an unexpected failure.
	ErrInternal = NewDomainError("SK-SYS-5000", "internal error")
)

var kinds = map[string]string{
	ErrBootstrap.Code:           "BootstrapError",
	ErrStoreCorrupt.Code:        "StoreCorruptError",
	ErrStoreNotInitialized.Code: "StoreNotInitializedError",
	ErrDuplicateToken.Code:      "DuplicateTokenError",
	ErrTokenNotFound.Code:       "NotFound",
	ErrUnauthorized.Code:        "UnauthorizedError",
	ErrServiceNotFound.Code:     "ServiceNotFoundError",
	ErrProtocol.Code:            "ProtocolError",
	ErrInvalidRegistration.Code: "InvalidRegistrationError",
	ErrTimeout.Code:             "Timeout",
	ErrInternal.Code:            "InternalError",
}
