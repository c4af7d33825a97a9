package postgres

import (
	"context"
	"database/sql"
	"errors"

	"locomotion/internal/domain"
	"locomotion/internal/repository"
)

// PaymentOrderRepository is a PostgreSQL implementation of
// repository.PaymentOrderRepository.
type PaymentOrderRepository struct {
	q Querier
}

// NewPaymentOrderRepository creates a new PostgreSQL payment order repository.
func NewPaymentOrderRepository(db *sql.DB) *PaymentOrderRepository {
	return &PaymentOrderRepository{q: db}
}

// NewPaymentOrderRepositoryWithTx creates a payment order repository
// using a transaction.
func NewPaymentOrderRepositoryWithTx(tx *sql.Tx) *PaymentOrderRepository {
	return &PaymentOrderRepository{q: tx}
}

// Create persists a new payment order.
func (r *PaymentOrderRepository) Create(ctx context.Context, order *domain.PaymentOrder) error {
	query := `
		INSERT INTO payment_orders (id, purpose, ride_id, driver_id, amount, verified, gateway_payment_id, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	var rideID, driverID sql.NullString
	if order.RideID != "" {
		rideID = sql.NullString{String: order.RideID, Valid: true}
	}
	if order.DriverID != "" {
		driverID = sql.NullString{String: order.DriverID, Valid: true}
	}

	_, err := r.q.ExecContext(ctx, query,
		order.ID,
		order.Purpose,
		rideID,
		driverID,
		order.Amount,
		order.Verified,
		order.GatewayPaymentID,
		order.CreatedAt,
	)

	return err
}

// GetByID retrieves a payment order by ID.
func (r *PaymentOrderRepository) GetByID(ctx context.Context, id string) (*domain.PaymentOrder, error) {
	query := `
		SELECT id, purpose, ride_id, driver_id, amount, verified, COALESCE(gateway_payment_id, ''), created_at
		FROM payment_orders WHERE id = $1
	`

	var order domain.PaymentOrder
	var rideID, driverID sql.NullString

	err := r.q.QueryRowContext(ctx, query, id).Scan(
		&order.ID,
		&order.Purpose,
		&rideID,
		&driverID,
		&order.Amount,
		&order.Verified,
		&order.GatewayPaymentID,
		&order.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}

	if rideID.Valid {
		order.RideID = rideID.String
	}
	if driverID.Valid {
		order.DriverID = driverID.String
	}

	return &order, nil
}

// MarkVerified flags an order as verified. The WHERE clause on
// verified makes a replayed gateway event affect zero rows, so the
// caller reacts to each verified payment exactly once.
func (r *PaymentOrderRepository) MarkVerified(ctx context.Context, id, gatewayPaymentID string) (bool, error) {
	query := `
		UPDATE payment_orders
		SET verified = TRUE, gateway_payment_id = $1
		WHERE id = $2 AND verified = FALSE
	`

	result, err := r.q.ExecContext(ctx, query, gatewayPaymentID, id)
	if err != nil {
		return false, err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return affected == 1, nil
}
