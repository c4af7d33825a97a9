package repository

import (
	"context"

	"locomotion/internal/domain"
)

// PaymentOrderRepository defines the persistence operations for
// payment-gateway orders.
type PaymentOrderRepository interface {
	// Create persists a new payment order.
	Create(ctx context.Context, order *domain.PaymentOrder) error

	// GetByID retrieves a payment order by ID.
	GetByID(ctx context.Context, id string) (*domain.PaymentOrder, error)

	// MarkVerified flags an order as verified with the gateway's
	// payment reference. Returns false when the order was already
	// verified, so a replayed gateway event is processed only once.
	MarkVerified(ctx context.Context, id, gatewayPaymentID string) (bool, error)
}
