package domain

import "time"

// RideStatus represents the current status of a ride request.
type RideStatus string

const (
	RideStatusPending    RideStatus = "pending"
	RideStatusAccepted   RideStatus = "accepted"
	RideStatusArrived    RideStatus = "arrived"
	RideStatusInProgress RideStatus = "in_progress"
	RideStatusCompleted  RideStatus = "completed"
	RideStatusCancelled  RideStatus = "cancelled"
	RideStatusRejected   RideStatus = "rejected"
)

// IsTerminal reports whether no further transition is possible from s.
func (s RideStatus) IsTerminal() bool {
	switch s {
	case RideStatusCompleted, RideStatusCancelled, RideStatusRejected:
		return true
	}
	return false
}

// PaymentStatus represents whether the rider has paid for a ride.
type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "pending"
	PaymentStatusCompleted PaymentStatus = "completed"
)

// PayoutStatus represents whether a ride has been reconciled for payout.
type PayoutStatus string

const (
	PayoutStatusPending PayoutStatus = "pending"
	PayoutStatusSettled PayoutStatus = "settled"
)

// RideAction is a driver-initiated action on a ride request.
type RideAction string

const (
	RideActionAccept    RideAction = "accept"
	RideActionReject    RideAction = "reject"
	RideActionArrive    RideAction = "arrive"
	RideActionStartTrip RideAction = "start_trip"
	RideActionComplete  RideAction = "complete"
	RideActionCancel    RideAction = "cancel"
)

// RideRequest represents one booking from creation to a terminal status.
// Geo and commercial fields are fixed at creation and never recomputed.
type RideRequest struct {
	ID       string
	RiderID  string
	DriverID string // pre-selected driver; immutable after creation

	SourceLocation      string
	SourceLat           float64
	SourceLng           float64
	DestinationLocation string
	DestinationLat      float64
	DestinationLng      float64

	VehicleDetails string

	DistanceKm    float64
	EstimatedFare float64
	ServiceCharge float64

	Status RideStatus

	// RideOTP is the single-use 4-digit code the rider shows the driver
	// to authorize trip start. Set once at creation, never reused.
	RideOTP string

	PaymentStatus  PaymentStatus
	IsPaid         bool
	GatewayOrderID string

	PayoutStatus PayoutStatus

	// Rating is 1-5 when set; 0 means not yet rated.
	Rating   int
	Feedback string

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Rated reports whether the rider has already rated this ride.
func (r *RideRequest) Rated() bool {
	return r.Rating != 0
}

// Settleable reports whether the ride qualifies for the settlement batch.
func (r *RideRequest) Settleable() bool {
	return r.Status == RideStatusCompleted &&
		r.PaymentStatus == PaymentStatusCompleted &&
		r.IsPaid &&
		r.PayoutStatus == PayoutStatusPending
}
