package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"locomotion/internal/domain"
	"locomotion/internal/redis"
	"locomotion/internal/repository"
)

// DriverService owns driver provisioning, listing, and availability.
type DriverService struct {
	txm        repository.Atomic
	driverRepo repository.DriverRepository
	cacheStore redis.CacheStoreInterface
	// visibilityFloor is the wallet balance below which a driver stops
	// appearing in rider-facing listings.
	visibilityFloor float64
}

// NewDriverService creates a new DriverService.
func NewDriverService(
	txm repository.Atomic,
	driverRepo repository.DriverRepository,
	cacheStore redis.CacheStoreInterface,
	visibilityFloor float64,
) *DriverService {
	return &DriverService{
		txm:             txm,
		driverRepo:      driverRepo,
		cacheStore:      cacheStore,
		visibilityFloor: visibilityFloor,
	}
}

// ProvisionRequest contains the parameters for onboarding a driver.
type ProvisionRequest struct {
	UserID          string
	Name            string
	Phone           string
	ExperienceYears int
	VehicleDetails  string
}

// Provision creates a driver together with their commission wallet in
// one transaction. A driver without a wallet cannot complete rides, so
// the two rows commit or fail together.
func (s *DriverService) Provision(ctx context.Context, req ProvisionRequest) (*domain.Driver, error) {
	if req.Name == "" {
		return nil, ErrMissingName
	}
	if req.Phone == "" {
		return nil, ErrPhoneRequired
	}
	if req.VehicleDetails == "" {
		return nil, ErrMissingVehicle
	}

	now := time.Now()
	driver := &domain.Driver{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		Name:            req.Name,
		Phone:           req.Phone,
		ExperienceYears: req.ExperienceYears,
		VehicleDetails:  req.VehicleDetails,
		IsActive:        true,
		IsAvailable:     true,
		CreatedAt:       now,
	}

	err := s.txm.InTx(ctx, func(r repository.Repos) error {
		if err := r.Drivers.Create(ctx, driver); err != nil {
			return err
		}
		return r.Wallets.Create(ctx, &domain.WalletAccount{
			ID:        uuid.New().String(),
			DriverID:  driver.ID,
			Balance:   0,
			CreatedAt: now,
			UpdatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateVisibleDrivers(ctx)
	}

	return driver, nil
}

// GetDriver retrieves a driver by ID.
func (s *DriverService) GetDriver(ctx context.Context, driverID string) (*domain.Driver, error) {
	if driverID == "" {
		return nil, ErrMissingDriverID
	}
	return s.driverRepo.GetByID(ctx, driverID)
}

// ListVisible returns drivers a rider may book: active, with a wallet
// balance above the visibility floor, best-rated first. Served from the
// listing cache when fresh.
func (s *DriverService) ListVisible(ctx context.Context) ([]*domain.Driver, error) {
	if s.cacheStore != nil {
		cached, err := s.cacheStore.GetVisibleDrivers(ctx)
		if err == nil && cached != nil {
			drivers := make([]*domain.Driver, len(cached))
			for i, c := range cached {
				drivers[i] = cachedToDriver(c)
			}
			return drivers, nil
		}
	}

	drivers, err := s.driverRepo.ListVisible(ctx, s.visibilityFloor)
	if err != nil {
		return nil, err
	}

	if s.cacheStore != nil {
		cached := make([]redis.CachedDriver, len(drivers))
		for i, d := range drivers {
			cached[i] = redis.CachedDriver{
				ID:              d.ID,
				Name:            d.Name,
				ExperienceYears: d.ExperienceYears,
				VehicleDetails:  d.VehicleDetails,
				AverageRating:   d.AverageRating,
				TotalRatings:    d.TotalRatings,
			}
		}
		_ = s.cacheStore.SetVisibleDrivers(ctx, cached)
	}

	return drivers, nil
}

// cachedToDriver rebuilds the listing projection of a driver. Fields
// outside the projection stay zero; the listing never exposes them.
func cachedToDriver(c redis.CachedDriver) *domain.Driver {
	return &domain.Driver{
		ID:              c.ID,
		Name:            c.Name,
		ExperienceYears: c.ExperienceYears,
		VehicleDetails:  c.VehicleDetails,
		AverageRating:   c.AverageRating,
		TotalRatings:    c.TotalRatings,
		IsActive:        true,
		IsAvailable:     true,
	}
}

// SetAvailability flips a driver's online flag and drops the listing
// cache so the change shows up immediately.
func (s *DriverService) SetAvailability(ctx context.Context, driverID string, available bool) error {
	if driverID == "" {
		return ErrMissingDriverID
	}
	if _, err := s.driverRepo.GetByID(ctx, driverID); err != nil {
		return err
	}
	if err := s.driverRepo.SetAvailability(ctx, driverID, available); err != nil {
		return err
	}

	if s.cacheStore != nil {
		_ = s.cacheStore.InvalidateVisibleDrivers(ctx)
	}

	return nil
}
