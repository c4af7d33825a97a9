package service

import (
	"context"
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"locomotion/internal/domain"
	"locomotion/internal/repository"
)

// errCASConflict signals that a compare-and-set lost to a concurrent
// action; it is translated to a TransitionError before returning.
var errCASConflict = errors.New("ride status changed concurrently")

// transitionRule names the statuses an action may start from and the
// status it produces.
type transitionRule struct {
	from []domain.RideStatus
	to   domain.RideStatus
}

// transitionTable is the full action table. An action is accepted iff
// the ride's current status appears in the rule's from set.
var transitionTable = map[domain.RideAction]transitionRule{
	domain.RideActionAccept: {
		from: []domain.RideStatus{domain.RideStatusPending},
		to:   domain.RideStatusAccepted,
	},
	domain.RideActionReject: {
		from: []domain.RideStatus{domain.RideStatusPending},
		to:   domain.RideStatusRejected,
	},
	domain.RideActionArrive: {
		from: []domain.RideStatus{domain.RideStatusAccepted},
		to:   domain.RideStatusArrived,
	},
	domain.RideActionStartTrip: {
		from: []domain.RideStatus{domain.RideStatusArrived},
		to:   domain.RideStatusInProgress,
	},
	domain.RideActionComplete: {
		from: []domain.RideStatus{domain.RideStatusInProgress},
		to:   domain.RideStatusCompleted,
	},
	domain.RideActionCancel: {
		from: []domain.RideStatus{
			domain.RideStatusPending,
			domain.RideStatusAccepted,
			domain.RideStatusArrived,
			domain.RideStatusInProgress,
		},
		to: domain.RideStatusCancelled,
	},
}

// RideService owns the ride request lifecycle.
type RideService struct {
	txm        repository.Atomic
	rideRepo   repository.RideRepository
	riderRepo  repository.RiderRepository
	driverRepo repository.DriverRepository
}

// NewRideService creates a new RideService.
func NewRideService(
	txm repository.Atomic,
	rideRepo repository.RideRepository,
	riderRepo repository.RiderRepository,
	driverRepo repository.DriverRepository,
) *RideService {
	return &RideService{
		txm:        txm,
		rideRepo:   rideRepo,
		riderRepo:  riderRepo,
		driverRepo: driverRepo,
	}
}

// CreateRideRequest contains the parameters for creating a ride.
// Commercial fields come from a prior fare quote and are fixed here.
type CreateRideRequest struct {
	RiderID  string
	DriverID string

	SourceLocation      string
	SourceLat           float64
	SourceLng           float64
	DestinationLocation string
	DestinationLat      float64
	DestinationLng      float64

	VehicleDetails string

	DistanceKm    float64
	EstimatedFare float64
	ServiceCharge float64

	// RiderPhone is persisted onto the rider when their identity has
	// no phone number yet.
	RiderPhone string
}

// CreateRide validates the request and persists a new pending ride
// with a freshly generated OTP.
func (s *RideService) CreateRide(ctx context.Context, req CreateRideRequest) (*domain.RideRequest, error) {
	if req.RiderID == "" {
		return nil, ErrMissingRiderID
	}
	if req.DriverID == "" {
		return nil, ErrMissingDriverID
	}
	if req.SourceLat == 0 && req.SourceLng == 0 {
		return nil, ErrMissingLocation
	}
	if req.DestinationLat == 0 && req.DestinationLng == 0 {
		return nil, ErrMissingLocation
	}
	if req.DistanceKm <= 0 || req.EstimatedFare <= 0 || req.ServiceCharge <= 0 {
		return nil, ErrMissingFare
	}

	rider, err := s.riderRepo.GetByID(ctx, req.RiderID)
	if err != nil {
		return nil, err
	}

	if rider.Phone == "" && req.RiderPhone == "" {
		return nil, ErrPhoneRequired
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		return nil, err
	}
	if !driver.IsActive {
		return nil, ErrDriverInactive
	}

	// Keep the inline phone number for future bookings.
	if rider.Phone == "" {
		if err := s.riderRepo.SetPhone(ctx, rider.ID, req.RiderPhone); err != nil {
			return nil, err
		}
	}

	now := time.Now()
	ride := &domain.RideRequest{
		ID:                  uuid.New().String(),
		RiderID:             req.RiderID,
		DriverID:            req.DriverID,
		SourceLocation:      req.SourceLocation,
		SourceLat:           req.SourceLat,
		SourceLng:           req.SourceLng,
		DestinationLocation: req.DestinationLocation,
		DestinationLat:      req.DestinationLat,
		DestinationLng:      req.DestinationLng,
		VehicleDetails:      req.VehicleDetails,
		DistanceKm:          req.DistanceKm,
		EstimatedFare:       req.EstimatedFare,
		ServiceCharge:       req.ServiceCharge,
		Status:              domain.RideStatusPending,
		RideOTP:             newRideOTP(),
		PaymentStatus:       domain.PaymentStatusPending,
		PayoutStatus:        domain.PayoutStatusPending,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.rideRepo.Create(ctx, ride); err != nil {
		return nil, err
	}

	return ride, nil
}

// ActionRequest contains the parameters for a driver action on a ride.
type ActionRequest struct {
	RideID   string
	DriverID string
	Action   domain.RideAction
	// OTP is required for start_trip and ignored otherwise.
	OTP string
}

// PerformAction applies one state-machine action. The status write is
// a compare-and-set, so of several concurrent actions on the same ride
// exactly one succeeds and the rest get a TransitionError.
func (s *RideService) PerformAction(ctx context.Context, req ActionRequest) (*domain.RideRequest, error) {
	if req.RideID == "" {
		return nil, ErrMissingRideID
	}
	if req.DriverID == "" {
		return nil, ErrMissingDriverID
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	driver, err := s.driverRepo.GetByID(ctx, req.DriverID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUnauthorized
		}
		return nil, err
	}
	if !driver.IsActive {
		return nil, ErrDriverInactive
	}
	if ride.DriverID != req.DriverID {
		return nil, ErrUnauthorized
	}

	rule, ok := transitionTable[req.Action]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAction, req.Action)
	}

	if !statusIn(ride.Status, rule.from) {
		return nil, &TransitionError{Action: req.Action, Status: ride.Status}
	}

	// OTP gate for trip start. A mismatch changes nothing and may be
	// retried; there is no attempt limit.
	if req.Action == domain.RideActionStartTrip && req.OTP != ride.RideOTP {
		return nil, ErrOtpMismatch
	}

	if req.Action == domain.RideActionComplete {
		err = s.complete(ctx, ride)
	} else {
		err = s.applyStatus(ctx, ride.ID, rule)
	}
	if err != nil {
		if errors.Is(err, errCASConflict) {
			// Lost the race; report the transition against the status
			// that actually won.
			current, gerr := s.rideRepo.GetByID(ctx, req.RideID)
			if gerr != nil {
				return nil, gerr
			}
			return nil, &TransitionError{Action: req.Action, Status: current.Status}
		}
		return nil, err
	}

	return s.rideRepo.GetByID(ctx, req.RideID)
}

// applyStatus performs the plain compare-and-set for actions without
// side effects.
func (s *RideService) applyStatus(ctx context.Context, rideID string, rule transitionRule) error {
	ok, err := s.rideRepo.UpdateStatusIn(ctx, rideID, rule.from, rule.to)
	if err != nil {
		return err
	}
	if !ok {
		return errCASConflict
	}
	return nil
}

// complete moves the ride to completed and debits the driver's wallet
// by the ride's service charge in the same transaction. A completion
// that persists without its debit (or vice versa) is a defect, so both
// writes commit or neither does.
func (s *RideService) complete(ctx context.Context, ride *domain.RideRequest) error {
	return s.txm.InTx(ctx, func(r repository.Repos) error {
		ok, err := r.Rides.UpdateStatus(ctx, ride.ID,
			domain.RideStatusInProgress, domain.RideStatusCompleted)
		if err != nil {
			return err
		}
		if !ok {
			return errCASConflict
		}

		_, err = r.Wallets.ApplyEntry(ctx, &domain.WalletEntry{
			ID:        uuid.New().String(),
			DriverID:  ride.DriverID,
			Kind:      domain.WalletEntryRideDebit,
			Reference: ride.ID,
			Amount:    -ride.ServiceCharge,
			CreatedAt: time.Now(),
		})
		return err
	})
}

// GetRide retrieves a ride by ID.
func (s *RideService) GetRide(ctx context.Context, rideID string) (*domain.RideRequest, error) {
	if rideID == "" {
		return nil, ErrMissingRideID
	}
	return s.rideRepo.GetByID(ctx, rideID)
}

// ListByRider retrieves a rider's rides, newest first.
func (s *RideService) ListByRider(ctx context.Context, riderID string) ([]*domain.RideRequest, error) {
	if riderID == "" {
		return nil, ErrMissingRiderID
	}
	return s.rideRepo.ListByRider(ctx, riderID)
}

// ListByDriver retrieves a driver's rides, newest first.
func (s *RideService) ListByDriver(ctx context.Context, driverID string) ([]*domain.RideRequest, error) {
	if driverID == "" {
		return nil, ErrMissingDriverID
	}
	return s.rideRepo.ListByDriver(ctx, driverID)
}

// RateRequest contains the parameters for rating a completed ride.
type RateRequest struct {
	RideID   string
	RiderID  string
	Rating   int
	Feedback string
}

// RateRide stores a one-time rating on a completed ride and recomputes
// the driver's rating aggregate over all rated, completed rides.
func (s *RideService) RateRide(ctx context.Context, req RateRequest) (*domain.RideRequest, error) {
	if req.RideID == "" {
		return nil, ErrMissingRideID
	}
	if req.RiderID == "" {
		return nil, ErrMissingRiderID
	}
	if req.Rating < 1 || req.Rating > 5 {
		return nil, ErrInvalidRating
	}

	ride, err := s.rideRepo.GetByID(ctx, req.RideID)
	if err != nil {
		return nil, err
	}

	if ride.RiderID != req.RiderID {
		return nil, ErrUnauthorized
	}
	if ride.Status != domain.RideStatusCompleted {
		return nil, ErrNotRatable
	}
	if ride.Rated() {
		return nil, ErrAlreadyRated
	}

	err = s.txm.InTx(ctx, func(r repository.Repos) error {
		ok, err := r.Rides.SetRating(ctx, ride.ID, req.Rating, req.Feedback)
		if err != nil {
			return err
		}
		if !ok {
			// A concurrent rating got there first.
			return ErrAlreadyRated
		}

		avg, count, err := r.Rides.RatingStats(ctx, ride.DriverID)
		if err != nil {
			return err
		}

		return r.Drivers.UpdateRatingStats(ctx, ride.DriverID, round1(avg), count)
	})
	if err != nil {
		return nil, err
	}

	return s.rideRepo.GetByID(ctx, req.RideID)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func statusIn(status domain.RideStatus, set []domain.RideStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

// newRideOTP generates the single-use 4-digit trip-start code.
func newRideOTP() string {
	var b [2]byte
	_, _ = rand.Read(b[:])
	return fmt.Sprintf("%04d", binary.BigEndian.Uint16(b[:])%10000)
}
