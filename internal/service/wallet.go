package service

import (
	"context"

	"locomotion/internal/domain"
	"locomotion/internal/repository"
)

// WalletService exposes a driver's prepaid commission account.
// Ride-completion debits are applied by RideService inside the
// completion transaction; recharge credits arrive through
// PaymentService on verified gateway events.
type WalletService struct {
	walletRepo repository.WalletRepository
}

// NewWalletService creates a new WalletService.
func NewWalletService(walletRepo repository.WalletRepository) *WalletService {
	return &WalletService{walletRepo: walletRepo}
}

// Balance retrieves a driver's wallet account.
func (s *WalletService) Balance(ctx context.Context, driverID string) (*domain.WalletAccount, error) {
	if driverID == "" {
		return nil, ErrMissingDriverID
	}
	return s.walletRepo.GetByDriverID(ctx, driverID)
}

// Entries retrieves a driver's wallet movements, newest first.
func (s *WalletService) Entries(ctx context.Context, driverID string) ([]*domain.WalletEntry, error) {
	if driverID == "" {
		return nil, ErrMissingDriverID
	}
	return s.walletRepo.ListEntries(ctx, driverID)
}
