package repository

import (
	"context"

	"locomotion/internal/domain"
)

// RiderRepository defines the persistence operations for riders.
type RiderRepository interface {
	// Create persists a new rider.
	Create(ctx context.Context, rider *domain.Rider) error

	// GetByID retrieves a rider by ID.
	GetByID(ctx context.Context, id string) (*domain.Rider, error)

	// SetPhone persists a phone number supplied inline at booking time
	// for a rider whose identity lacks one.
	SetPhone(ctx context.Context, id, phone string) error
}
