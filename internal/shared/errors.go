// Package shared holds cross-domain primitives: error kinds, actor
// identity and role definitions.
package shared

import "errors"

// Error kinds surfaced by the core services. Every kind reflects a caller
// precondition, not a transient fault; callers must not retry them blindly.
// Raw store failures propagate separately and stay opaque.
var (
	// ErrValidation indicates malformed or missing input.
	ErrValidation = errors.New("validation failed")
	// ErrNotFound indicates an unknown package, record or zone.
	ErrNotFound = errors.New("not found")
	// ErrIllegalTransition indicates a package state machine violation.
	ErrIllegalTransition = errors.New("illegal status transition")
	// ErrInvalidScan indicates a scan type inconsistent with package status.
	ErrInvalidScan = errors.New("invalid scan for current status")
	// ErrConflict indicates a lost assignment race or duplicate submission.
	ErrConflict = errors.New("conflict")
	// ErrOutsideGeofence indicates a location outside every active zone.
	ErrOutsideGeofence = errors.New("outside geofence")
	// ErrForbidden indicates the actor may not perform the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrNotPending indicates a review of an already-terminal record.
	ErrNotPending = errors.New("record not pending")
	// ErrDuplicateCheckIn indicates a second check-in on the same date.
	ErrDuplicateCheckIn = errors.New("already checked in today")
	// ErrDuplicateCheckOut indicates a second check-out on the same date.
	ErrDuplicateCheckOut = errors.New("already checked out today")
	// ErrNoCheckIn indicates a check-out without a prior check-in.
	ErrNoCheckIn = errors.New("no check-in recorded today")
	// ErrInvalidCredentials indicates login failure.
	ErrInvalidCredentials = errors.New("invalid credentials")
)
