package repository

import (
	"context"
	"time"

	"locomotion/internal/domain"
)

// RideRepository defines the persistence operations for ride requests.
type RideRepository interface {
	// Create persists a new ride request.
	Create(ctx context.Context, ride *domain.RideRequest) error

	// GetByID retrieves a ride request by ID.
	GetByID(ctx context.Context, id string) (*domain.RideRequest, error)

	// ListByRider retrieves a rider's ride requests, newest first.
	ListByRider(ctx context.Context, riderID string) ([]*domain.RideRequest, error)

	// ListByDriver retrieves a driver's ride requests, newest first.
	ListByDriver(ctx context.Context, driverID string) ([]*domain.RideRequest, error)

	// UpdateStatus moves a ride from one status to another with a
	// compare-and-set on the current status. Returns false when the
	// ride is no longer in the expected status; concurrent actions on
	// the same ride produce exactly one true result.
	UpdateStatus(ctx context.Context, id string, from, to domain.RideStatus) (bool, error)

	// UpdateStatusIn is UpdateStatus with a set of allowed current
	// statuses, for actions like cancel that apply from several states.
	UpdateStatusIn(ctx context.Context, id string, from []domain.RideStatus, to domain.RideStatus) (bool, error)

	// SetRating stores the rating and feedback, only if the ride is
	// completed and not yet rated. Returns false otherwise.
	SetRating(ctx context.Context, id string, rating int, feedback string) (bool, error)

	// RatingStats returns the mean rating and count over a driver's
	// rated, completed rides.
	RatingStats(ctx context.Context, driverID string) (avg float64, count int, err error)

	// SetGatewayOrder records the gateway order created for a ride,
	// only if no order is recorded yet. Returns false when another
	// order already claimed the ride; concurrent order creation
	// produces exactly one true result.
	SetGatewayOrder(ctx context.Context, id, orderID string) (bool, error)

	// SetPaymentVerified marks the ride as paid. Applied when the
	// payment gateway reports a verified payment.
	SetPaymentVerified(ctx context.Context, id string) error

	// DriversWithSettleable returns the IDs of drivers that have at
	// least one ride eligible for settlement.
	DriversWithSettleable(ctx context.Context) ([]string, error)

	// ListSettleable returns a driver's settleable rides. Inside a
	// transaction the rows are locked so overlapping settlement runs
	// cannot pick up the same rides.
	ListSettleable(ctx context.Context, driverID string) ([]*domain.RideRequest, error)

	// MarkSettled sets payout_status to settled for the given rides.
	MarkSettled(ctx context.Context, ids []string) (int64, error)

	// CancelStalePending cancels every ride still pending that was
	// created at or before the cutoff. Returns the number cancelled.
	CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error)
}
