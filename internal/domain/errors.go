package domain

import (
	"errors"
	"fmt"
)

// ErrorClass groups booking errors by how callers should react to them.
type ErrorClass string

const (
	ClassValidation ErrorClass = "validation"
	ClassConflict   ErrorClass = "conflict"
	ClassState      ErrorClass = "state"
	ClassForbidden  ErrorClass = "forbidden"
	ClassNotFound   ErrorClass = "not_found"
	ClassExternal   ErrorClass = "external"
	ClassSecurity   ErrorClass = "security"
	ClassIntegrity  ErrorClass = "integrity"
	ClassInternal   ErrorClass = "internal"
)

// Validation errors: no side effects, safe to retry after correction.
var (
	ErrMissingField        = errors.New("missing required field")
	ErrInvalidTime         = errors.New("invalid time value")
	ErrInvalidTimeRange    = errors.New("end time must be after effective start time")
	ErrInvalidIdentifier   = errors.New("malformed identifier")
	ErrUserNotAllowed      = errors.New("user is blocked or deleted")
	ErrLocationNotBookable = errors.New("location is inactive or deleted")
	ErrCategoryNotAccepted = errors.New("vehicle category not accepted at location")
	ErrInvalidAmount       = errors.New("amount must not be negative")
)

// Conflict errors: rejected with no partial state left behind.
var (
	ErrVehicleDoubleBooked = errors.New("vehicle already has an overlapping reservation")
	ErrCapacityExhausted   = errors.New("no free spots at location")
	ErrConcurrentUpdate    = errors.New("order was modified concurrently")
)

// State errors.
var (
	ErrInvalidTransition = errors.New("transition not allowed from current state")
	ErrAlreadyPaid       = errors.New("order payment already completed")
	ErrIntentLost        = errors.New("capacity intent is no longer reserved")
)

var (
	ErrForbidden = errors.New("actor is not allowed to perform this action")
	ErrNotFound  = errors.New("not found")
)

// External-dependency errors.
var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrPaymentNotCaptured = errors.New("payment not captured by gateway")
	ErrInvalidSignature   = errors.New("payment signature verification failed")
)

// ErrReleaseFailed marks a compensating capacity release that did not complete.
// The intent sweep retries it; until then it is a data-integrity incident.
var ErrReleaseFailed = errors.New("capacity release failed")

// StateError reports a rejected event together with the Order's current state.
type StateError struct {
	Current OrderStatus
	Event   OrderEvent
	Err     error
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%v: event %s in state %s", e.Err, e.Event, e.Current)
}

func (e *StateError) Unwrap() error { return e.Err }

// Classify maps an error onto its class. Unknown errors are internal.
func Classify(err error) ErrorClass {
	var stateErr *StateError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &stateErr),
		errors.Is(err, ErrInvalidTransition),
		errors.Is(err, ErrAlreadyPaid),
		errors.Is(err, ErrIntentLost):
		return ClassState
	case errors.Is(err, ErrInvalidSignature):
		return ClassSecurity
	case errors.Is(err, ErrReleaseFailed):
		return ClassIntegrity
	case errors.Is(err, ErrMissingField),
		errors.Is(err, ErrInvalidTime),
		errors.Is(err, ErrInvalidTimeRange),
		errors.Is(err, ErrInvalidIdentifier),
		errors.Is(err, ErrUserNotAllowed),
		errors.Is(err, ErrLocationNotBookable),
		errors.Is(err, ErrCategoryNotAccepted),
		errors.Is(err, ErrInvalidAmount):
		return ClassValidation
	case errors.Is(err, ErrVehicleDoubleBooked),
		errors.Is(err, ErrCapacityExhausted),
		errors.Is(err, ErrConcurrentUpdate):
		return ClassConflict
	case errors.Is(err, ErrForbidden):
		return ClassForbidden
	case errors.Is(err, ErrNotFound):
		return ClassNotFound
	case errors.Is(err, ErrGatewayUnavailable), errors.Is(err, ErrPaymentNotCaptured):
		return ClassExternal
	}
	return ClassInternal
}
