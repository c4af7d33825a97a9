package service

import (
	"errors"
	"fmt"

	"locomotion/internal/domain"
)

var (
	// ErrInvalidInput is the base error for malformed or missing
	// request fields, caught before any state mutation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidTransition is the base error every TransitionError
	// matches via errors.Is.
	ErrInvalidTransition = errors.New("invalid ride transition")

	// ErrUnknownAction is returned for an action outside the table.
	ErrUnknownAction = errors.New("unknown ride action")

	// ErrOtpMismatch is returned when the code supplied on start_trip
	// does not match the stored ride OTP. Distinct from
	// ErrInvalidTransition so clients can prompt for re-entry.
	ErrOtpMismatch = errors.New("ride otp mismatch")

	// ErrUnauthorized is returned when the actor is not the ride's
	// assigned driver or rider.
	ErrUnauthorized = errors.New("actor not authorized for this ride")

	// ErrAlreadyRated is returned when a completed ride has already
	// been rated.
	ErrAlreadyRated = errors.New("ride already rated")

	// ErrNotRatable is returned when rating a ride that is not
	// completed.
	ErrNotRatable = errors.New("ride is not ratable")

	// ErrDriverInactive is returned when the acting driver is not
	// active per the onboarding collaborator.
	ErrDriverInactive = errors.New("driver is not active")

	// ErrRideNotCompleted is returned when creating a payment order
	// for a ride that has not completed.
	ErrRideNotCompleted = errors.New("ride is not completed yet")

	// ErrRideAlreadyPaid is returned when creating a payment order for
	// a ride that is already paid.
	ErrRideAlreadyPaid = errors.New("ride is already paid")

	// ErrOrderPending is returned when creating a payment order for a
	// ride that already has an open gateway order.
	ErrOrderPending = errors.New("a payment order is already open for this ride")
)

// Field-level validation errors, all matching ErrInvalidInput.
var (
	ErrMissingRiderID   = fmt.Errorf("%w: missing rider id", ErrInvalidInput)
	ErrMissingDriverID  = fmt.Errorf("%w: missing driver id", ErrInvalidInput)
	ErrMissingRideID    = fmt.Errorf("%w: missing ride id", ErrInvalidInput)
	ErrMissingName      = fmt.Errorf("%w: missing name", ErrInvalidInput)
	ErrMissingOrderID   = fmt.Errorf("%w: missing order id", ErrInvalidInput)
	ErrMissingLocation  = fmt.Errorf("%w: missing pickup or drop-off location", ErrInvalidInput)
	ErrMissingFare      = fmt.Errorf("%w: calculate the fare before confirming", ErrInvalidInput)
	ErrPhoneRequired    = fmt.Errorf("%w: a valid mobile number is required to book a ride", ErrInvalidInput)
	ErrInvalidRating    = fmt.Errorf("%w: rating must be between 1 and 5", ErrInvalidInput)
	ErrInvalidAmount    = fmt.Errorf("%w: amount must be positive", ErrInvalidInput)
	ErrNegativeDistance = fmt.Errorf("%w: distance must not be negative", ErrInvalidInput)
	ErrNegativeDuration = fmt.Errorf("%w: duration must not be negative", ErrInvalidInput)
	ErrMissingVehicle   = fmt.Errorf("%w: missing vehicle class", ErrInvalidInput)
)

// TransitionError reports an action attempted from a status the table
// does not allow. It is never silently corrected.
type TransitionError struct {
	Action domain.RideAction
	Status domain.RideStatus
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("action %q not allowed while ride is %q", e.Action, e.Status)
}

// Is lets errors.Is(err, ErrInvalidTransition) match any TransitionError.
func (e *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
