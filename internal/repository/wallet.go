package repository

import (
	"context"

	"locomotion/internal/domain"
)

// WalletRepository defines the persistence operations for driver wallets.
type WalletRepository interface {
	// Create persists a new wallet account.
	Create(ctx context.Context, account *domain.WalletAccount) error

	// GetByDriverID retrieves a driver's wallet account.
	GetByDriverID(ctx context.Context, driverID string) (*domain.WalletAccount, error)

	// ApplyEntry records a balance movement and adjusts the balance in
	// one step. Each (kind, reference) pair is applied at most once;
	// a replay returns false and leaves the balance untouched.
	ApplyEntry(ctx context.Context, entry *domain.WalletEntry) (bool, error)

	// ListEntries retrieves a driver's wallet entries, newest first.
	ListEntries(ctx context.Context, driverID string) ([]*domain.WalletEntry, error)
}
