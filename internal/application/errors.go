package application

import (
	"errors"
	"sort"
	"strings"
)

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a resource with the same identity exists.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when an email and password pair does not match.
	ErrInvalidCredentials = errors.New("application: invalid credentials")
	// ErrSessionExpired is returned when a session is past its expiry.
	ErrSessionExpired = errors.New("application: session expired")
	// ErrSessionRevoked is returned when a session was logged out.
	ErrSessionRevoked = errors.New("application: session revoked")
	// ErrAlreadyCancelled is returned when a booking has already been cancelled.
	ErrAlreadyCancelled = errors.New("application: booking already cancelled")
	// ErrPolicyViolation is returned when the cancellation window has closed.
	ErrPolicyViolation = errors.New("application: cancellation window closed")
	// ErrIncompleteBookingData is returned when a booking lacks its date or slot start.
	ErrIncompleteBookingData = errors.New("application: incomplete booking data")
	// ErrSlotUnavailable is returned when the requested slot is taken or not offered.
	ErrSlotUnavailable = errors.New("application: slot unavailable")
	// ErrGatewayUnavailable is returned when the payment provider cannot be reached.
	ErrGatewayUnavailable = errors.New("application: payment gateway unavailable")
	// ErrDuplicateIdentifier is returned when generated booking identifiers keep colliding.
	ErrDuplicateIdentifier = errors.New("application: duplicate booking identifier")
	// ErrConflict is returned when storage kept changing during an update.
	ErrConflict = errors.New("application: concurrent modification")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	if len(v.FieldErrors) == 0 {
		return "validation failed"
	}
	fields := make([]string, 0, len(v.FieldErrors))
	for field := range v.FieldErrors {
		fields = append(fields, field)
	}
	sort.Strings(fields)
	return "validation failed: " + strings.Join(fields, ", ")
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error. The first message for a field wins.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	if _, exists := v.FieldErrors[field]; exists {
		return
	}
	v.FieldErrors[field] = message
}

// merge copies entries from another validation error into the receiver.
func (v *ValidationError) merge(other *ValidationError) {
	if other == nil || len(other.FieldErrors) == 0 {
		return
	}
	for field, msg := range other.FieldErrors {
		v.add(field, msg)
	}
}

func newValidationError(field, message string) *ValidationError {
	v := &ValidationError{}
	v.add(field, message)
	return v
}
