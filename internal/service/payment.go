package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"locomotion/internal/domain"
	"locomotion/internal/repository"
)

// PaymentGateway creates orders at the external payment provider.
// Payment authenticity is the gateway's responsibility; this core only
// creates orders and reacts to verified-payment events.
type PaymentGateway interface {
	// CreateOrder registers an order for the amount and returns the
	// gateway-side order ID. Receipt is an idempotency hint for the
	// gateway, unique per order on our side.
	CreateOrder(ctx context.Context, amount float64, receipt string) (string, error)
}

// PaymentService owns the gateway order flow for ride fares and wallet
// recharges.
type PaymentService struct {
	txm        repository.Atomic
	orderRepo  repository.PaymentOrderRepository
	rideRepo   repository.RideRepository
	driverRepo repository.DriverRepository
	gateway    PaymentGateway
}

// NewPaymentService creates a new PaymentService.
func NewPaymentService(
	txm repository.Atomic,
	orderRepo repository.PaymentOrderRepository,
	rideRepo repository.RideRepository,
	driverRepo repository.DriverRepository,
	gateway PaymentGateway,
) *PaymentService {
	return &PaymentService{
		txm:        txm,
		orderRepo:  orderRepo,
		rideRepo:   rideRepo,
		driverRepo: driverRepo,
		gateway:    gateway,
	}
}

// CreateRideOrder opens a gateway order collecting the fare of a
// completed, unpaid ride. Only the ride's rider may pay for it.
func (s *PaymentService) CreateRideOrder(ctx context.Context, rideID, riderID string) (*domain.PaymentOrder, error) {
	if rideID == "" {
		return nil, ErrMissingRideID
	}
	if riderID == "" {
		return nil, ErrMissingRiderID
	}

	ride, err := s.rideRepo.GetByID(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if ride.RiderID != riderID {
		return nil, ErrUnauthorized
	}
	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrRideNotCompleted
	}
	if ride.IsPaid {
		return nil, ErrRideAlreadyPaid
	}
	if ride.GatewayOrderID != "" {
		return nil, ErrOrderPending
	}

	receipt := fmt.Sprintf("ride-%s", ride.ID)
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, ride.EstimatedFare, receipt)
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	order := &domain.PaymentOrder{
		ID:        gatewayOrderID,
		Purpose:   domain.PaymentOrderRide,
		RideID:    ride.ID,
		Amount:    ride.EstimatedFare,
		CreatedAt: time.Now(),
	}

	// The compare-and-set on gateway_order_id claims the ride before
	// the order row exists, so two concurrent calls persist exactly one
	// live order. The loser's gateway order is never surfaced and
	// expires unpaid at the gateway.
	err = s.txm.InTx(ctx, func(r repository.Repos) error {
		claimed, err := r.Rides.SetGatewayOrder(ctx, ride.ID, order.ID)
		if err != nil {
			return err
		}
		if !claimed {
			return ErrOrderPending
		}
		return r.Orders.Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	return order, nil
}

// CreateRechargeOrder opens a gateway order topping up a driver's
// commission wallet.
func (s *PaymentService) CreateRechargeOrder(ctx context.Context, driverID string, amount float64) (*domain.PaymentOrder, error) {
	if driverID == "" {
		return nil, ErrMissingDriverID
	}
	if amount <= 0 {
		return nil, ErrInvalidAmount
	}

	if _, err := s.driverRepo.GetByID(ctx, driverID); err != nil {
		return nil, err
	}

	receipt := fmt.Sprintf("recharge-%s-%s", driverID, uuid.New().String()[:8])
	gatewayOrderID, err := s.gateway.CreateOrder(ctx, amount, receipt)
	if err != nil {
		return nil, fmt.Errorf("create gateway order: %w", err)
	}

	order := &domain.PaymentOrder{
		ID:        gatewayOrderID,
		Purpose:   domain.PaymentOrderRecharge,
		DriverID:  driverID,
		Amount:    amount,
		CreatedAt: time.Now(),
	}
	if err := s.orderRepo.Create(ctx, order); err != nil {
		return nil, err
	}

	return order, nil
}

// HandleVerified reacts to the gateway's verified-payment event for an
// order: a ride order marks the ride paid, a recharge order credits the
// driver's wallet. The order flips to verified with a compare-and-set
// in the same transaction as its effect, so a replayed event changes
// nothing.
func (s *PaymentService) HandleVerified(ctx context.Context, orderID, gatewayPaymentID string) error {
	if orderID == "" {
		return ErrMissingOrderID
	}

	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return err
	}

	return s.txm.InTx(ctx, func(r repository.Repos) error {
		applied, err := r.Orders.MarkVerified(ctx, order.ID, gatewayPaymentID)
		if err != nil {
			return err
		}
		if !applied {
			// Duplicate gateway event.
			return nil
		}

		switch order.Purpose {
		case domain.PaymentOrderRide:
			return r.Rides.SetPaymentVerified(ctx, order.RideID)
		case domain.PaymentOrderRecharge:
			_, err := r.Wallets.ApplyEntry(ctx, &domain.WalletEntry{
				ID:        uuid.New().String(),
				DriverID:  order.DriverID,
				Kind:      domain.WalletEntryRechargeCredit,
				Reference: order.ID,
				Amount:    order.Amount,
				CreatedAt: time.Now(),
			})
			return err
		default:
			return fmt.Errorf("payment order %s has unknown purpose %q", order.ID, order.Purpose)
		}
	})
}
