package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"

	"locomotion/internal/domain"
	"locomotion/internal/repository"
)

// RideRepository is a PostgreSQL implementation of repository.RideRepository.
type RideRepository struct {
	q Querier
}

// NewRideRepository creates a new PostgreSQL ride repository.
func NewRideRepository(db *sql.DB) *RideRepository {
	return &RideRepository{q: db}
}

// NewRideRepositoryWithTx creates a ride repository using a transaction.
func NewRideRepositoryWithTx(tx *sql.Tx) *RideRepository {
	return &RideRepository{q: tx}
}

const rideColumns = `
	id, rider_id, driver_id,
	source_location, source_lat, source_lng,
	destination_location, destination_lat, destination_lng,
	vehicle_details, distance_km, estimated_fare, service_charge,
	status, ride_otp, payment_status, is_paid, gateway_order_id,
	payout_status, rating, feedback, created_at, updated_at
`

// Create persists a new ride request.
func (r *RideRepository) Create(ctx context.Context, ride *domain.RideRequest) error {
	query := `
		INSERT INTO ride_requests (` + rideColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21, $22, $23)
	`

	var rating sql.NullInt64
	if ride.Rating != 0 {
		rating = sql.NullInt64{Int64: int64(ride.Rating), Valid: true}
	}

	var gatewayOrderID sql.NullString
	if ride.GatewayOrderID != "" {
		gatewayOrderID = sql.NullString{String: ride.GatewayOrderID, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		ride.ID,
		ride.RiderID,
		ride.DriverID,
		ride.SourceLocation,
		ride.SourceLat,
		ride.SourceLng,
		ride.DestinationLocation,
		ride.DestinationLat,
		ride.DestinationLng,
		ride.VehicleDetails,
		ride.DistanceKm,
		ride.EstimatedFare,
		ride.ServiceCharge,
		ride.Status,
		ride.RideOTP,
		ride.PaymentStatus,
		ride.IsPaid,
		gatewayOrderID,
		ride.PayoutStatus,
		rating,
		ride.Feedback,
		ride.CreatedAt,
		ride.UpdatedAt,
	)

	return err
}

// scanRide scans one ride row from either *sql.Row or *sql.Rows.
func scanRide(scan func(dest ...any) error) (*domain.RideRequest, error) {
	var ride domain.RideRequest
	var rating sql.NullInt64
	var gatewayOrderID sql.NullString
	var feedback sql.NullString

	err := scan(
		&ride.ID,
		&ride.RiderID,
		&ride.DriverID,
		&ride.SourceLocation,
		&ride.SourceLat,
		&ride.SourceLng,
		&ride.DestinationLocation,
		&ride.DestinationLat,
		&ride.DestinationLng,
		&ride.VehicleDetails,
		&ride.DistanceKm,
		&ride.EstimatedFare,
		&ride.ServiceCharge,
		&ride.Status,
		&ride.RideOTP,
		&ride.PaymentStatus,
		&ride.IsPaid,
		&gatewayOrderID,
		&ride.PayoutStatus,
		&rating,
		&feedback,
		&ride.CreatedAt,
		&ride.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if rating.Valid {
		ride.Rating = int(rating.Int64)
	}
	if gatewayOrderID.Valid {
		ride.GatewayOrderID = gatewayOrderID.String
	}
	if feedback.Valid {
		ride.Feedback = feedback.String
	}

	return &ride, nil
}

// GetByID retrieves a ride request by ID.
func (r *RideRepository) GetByID(ctx context.Context, id string) (*domain.RideRequest, error) {
	query := `SELECT ` + rideColumns + ` FROM ride_requests WHERE id = $1`

	row := r.q.QueryRowContext(ctx, query, id)
	ride, err := scanRide(row.Scan)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	return ride, nil
}

// ListByRider retrieves a rider's ride requests, newest first.
func (r *RideRepository) ListByRider(ctx context.Context, riderID string) ([]*domain.RideRequest, error) {
	query := `SELECT ` + rideColumns + ` FROM ride_requests WHERE rider_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, riderID)
}

// ListByDriver retrieves a driver's ride requests, newest first.
func (r *RideRepository) ListByDriver(ctx context.Context, driverID string) ([]*domain.RideRequest, error) {
	query := `SELECT ` + rideColumns + ` FROM ride_requests WHERE driver_id = $1 ORDER BY created_at DESC`
	return r.list(ctx, query, driverID)
}

func (r *RideRepository) list(ctx context.Context, query string, args ...any) ([]*domain.RideRequest, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var rides []*domain.RideRequest
	for rows.Next() {
		ride, err := scanRide(rows.Scan)
		if err != nil {
			return nil, err
		}
		rides = append(rides, ride)
	}
	return rides, rows.Err()
}

// UpdateStatus moves a ride between statuses with a compare-and-set on
// the current status. The WHERE clause on status makes concurrent
// actions on the same ride resolve to exactly one winner.
func (r *RideRepository) UpdateStatus(ctx context.Context, id string, from, to domain.RideStatus) (bool, error) {
	return r.UpdateStatusIn(ctx, id, []domain.RideStatus{from}, to)
}

// UpdateStatusIn is UpdateStatus with a set of allowed current statuses.
func (r *RideRepository) UpdateStatusIn(ctx context.Context, id string, from []domain.RideStatus, to domain.RideStatus) (bool, error) {
	query := `
		UPDATE ride_requests
		SET status = $1, updated_at = $2
		WHERE id = $3 AND status = ANY($4)
	`

	statuses := make([]string, len(from))
	for i, s := range from {
		statuses[i] = string(s)
	}

	result, err := r.q.ExecContext(ctx, query, to, time.Now(), id, pq.Array(statuses))
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// SetRating stores rating and feedback, only if the ride is completed
// and not yet rated.
func (r *RideRepository) SetRating(ctx context.Context, id string, rating int, feedback string) (bool, error) {
	query := `
		UPDATE ride_requests
		SET rating = $1, feedback = $2, updated_at = $3
		WHERE id = $4 AND status = $5 AND rating IS NULL
	`

	result, err := r.q.ExecContext(ctx, query, rating, feedback, time.Now(), id, domain.RideStatusCompleted)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// RatingStats returns the mean rating and count over a driver's rated,
// completed rides.
func (r *RideRepository) RatingStats(ctx context.Context, driverID string) (float64, int, error) {
	query := `
		SELECT COALESCE(AVG(rating), 0), COUNT(rating)
		FROM ride_requests
		WHERE driver_id = $1 AND status = $2 AND rating IS NOT NULL
	`

	var avg float64
	var count int
	err := r.q.QueryRowContext(ctx, query, driverID, domain.RideStatusCompleted).Scan(&avg, &count)
	if err != nil {
		return 0, 0, err
	}

	return avg, count, nil
}

// SetGatewayOrder records the gateway order created for a ride. The
// WHERE clause on gateway_order_id makes the claim a compare-and-set,
// so two concurrent order creations cannot both attach to the ride.
func (r *RideRepository) SetGatewayOrder(ctx context.Context, id, orderID string) (bool, error) {
	query := `
		UPDATE ride_requests
		SET gateway_order_id = $1, updated_at = $2
		WHERE id = $3 AND gateway_order_id IS NULL
	`

	result, err := r.q.ExecContext(ctx, query, orderID, time.Now(), id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}

// SetPaymentVerified marks the ride as paid.
func (r *RideRepository) SetPaymentVerified(ctx context.Context, id string) error {
	query := `
		UPDATE ride_requests
		SET payment_status = $1, is_paid = TRUE, updated_at = $2
		WHERE id = $3
	`

	result, err := r.q.ExecContext(ctx, query, domain.PaymentStatusCompleted, time.Now(), id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

// DriversWithSettleable returns the IDs of drivers with at least one
// ride eligible for settlement.
func (r *RideRepository) DriversWithSettleable(ctx context.Context) ([]string, error) {
	query := `
		SELECT DISTINCT driver_id
		FROM ride_requests
		WHERE status = $1 AND payment_status = $2 AND is_paid = TRUE AND payout_status = $3
	`

	rows, err := r.q.QueryContext(ctx, query,
		domain.RideStatusCompleted, domain.PaymentStatusCompleted, domain.PayoutStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// ListSettleable returns a driver's settleable rides. The rows are
// locked so two settlement runs cannot pick up the same rides.
func (r *RideRepository) ListSettleable(ctx context.Context, driverID string) ([]*domain.RideRequest, error) {
	query := `SELECT ` + rideColumns + `
		FROM ride_requests
		WHERE driver_id = $1 AND status = $2 AND payment_status = $3 AND is_paid = TRUE AND payout_status = $4
		FOR UPDATE SKIP LOCKED
	`
	return r.list(ctx, query, driverID,
		domain.RideStatusCompleted, domain.PaymentStatusCompleted, domain.PayoutStatusPending)
}

// MarkSettled sets payout_status to settled for the given rides.
func (r *RideRepository) MarkSettled(ctx context.Context, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE ride_requests
		SET payout_status = $1, updated_at = $2
		WHERE id = ANY($3) AND payout_status = $4
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.PayoutStatusSettled, time.Now(), pq.Array(ids), domain.PayoutStatusPending)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}

// CancelStalePending cancels rides still pending past the cutoff.
// Rides in any other status are never touched, so back-to-back runs
// are no-ops after the first.
func (r *RideRepository) CancelStalePending(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		UPDATE ride_requests
		SET status = $1, updated_at = $2
		WHERE status = $3 AND created_at <= $4
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.RideStatusCancelled, time.Now(), domain.RideStatusPending, cutoff)
	if err != nil {
		return 0, err
	}

	return result.RowsAffected()
}
