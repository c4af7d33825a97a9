package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"locomotion/internal/domain"
	"locomotion/internal/repository"
)

// RiderService owns rider registration and lookup.
type RiderService struct {
	riderRepo repository.RiderRepository
}

// NewRiderService creates a new RiderService.
func NewRiderService(riderRepo repository.RiderRepository) *RiderService {
	return &RiderService{riderRepo: riderRepo}
}

// RegisterRiderRequest contains the parameters for registering a rider.
type RegisterRiderRequest struct {
	Name string
	// Phone may be empty here; it becomes mandatory at first booking.
	Phone string
}

// Register creates a rider.
func (s *RiderService) Register(ctx context.Context, req RegisterRiderRequest) (*domain.Rider, error) {
	if req.Name == "" {
		return nil, ErrMissingName
	}

	rider := &domain.Rider{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Phone:     req.Phone,
		CreatedAt: time.Now(),
	}

	if err := s.riderRepo.Create(ctx, rider); err != nil {
		return nil, err
	}

	return rider, nil
}

// GetRider retrieves a rider by ID.
func (s *RiderService) GetRider(ctx context.Context, riderID string) (*domain.Rider, error) {
	if riderID == "" {
		return nil, ErrMissingRiderID
	}
	return s.riderRepo.GetByID(ctx, riderID)
}
