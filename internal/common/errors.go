// Package common defines shared constants and sentinel errors used across
// client and server layers of braindock. Callers should use errors.Is to
// match these values.
package common

import (
	"errors"
	"fmt"
)

var (
	// Repository-level errors.
	ErrNotFound = errors.New("not found")
	ErrStorage  = errors.New("storage error")

	// Capture input rejected before any durable write.
	ErrValidation = errors.New("validation error")

	// ErrConflict is reserved: LWW merges always resolve and never raise it.
	ErrConflict = errors.New("conflict")

	// Sync state machine errors.
	ErrInvalidTransition = errors.New("invalid sync status transition")
	ErrDelivery          = errors.New("delivery error")
	ErrRemoteUnavailable = errors.New("remote unavailable")

	// Transport auth errors.
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
)

// ValidationError describes one rejected capture field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return "validation error: " + e.Reason
	}
	return fmt.Sprintf("validation error: %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrValidation) hold for every *ValidationError.
func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// Invalid is a shorthand constructor for *ValidationError.
func Invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

// DeliveryError wraps a failure reported by (or while reaching) a remote
// authority. Temporary marks transport-level failures worth retrying.
type DeliveryError struct {
	Err       error
	Temporary bool
}

func (e *DeliveryError) Error() string {
	return "delivery error: " + e.Err.Error()
}

func (e *DeliveryError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrDelivery) hold for every *DeliveryError.
func (e *DeliveryError) Is(target error) bool {
	return target == ErrDelivery
}

// Storage wraps a local durable-write failure so callers can match it with
// errors.Is(err, ErrStorage) while keeping the driver error in the chain.
func Storage(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
