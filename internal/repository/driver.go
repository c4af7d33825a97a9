package repository

import (
	"context"

	"locomotion/internal/domain"
)

// DriverRepository defines the persistence operations for driver profiles.
type DriverRepository interface {
	// Create persists a new driver profile.
	Create(ctx context.Context, driver *domain.Driver) error

	// GetByID retrieves a driver by ID.
	GetByID(ctx context.Context, id string) (*domain.Driver, error)

	// ListVisible retrieves active drivers whose wallet balance is
	// above the given floor. Drivers in commission debt past the floor
	// are hidden from listings, not locked out.
	ListVisible(ctx context.Context, balanceFloor float64) ([]*domain.Driver, error)

	// SetAvailability updates the driver's availability toggle.
	SetAvailability(ctx context.Context, id string, available bool) error

	// UpdateRatingStats stores the recomputed average rating and count.
	UpdateRatingStats(ctx context.Context, id string, avg float64, count int) error
}
