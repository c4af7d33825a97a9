package tests

import (
	"context"
	"errors"
	"testing"
	"time"

	"locomotion/internal/domain"
	"locomotion/internal/repository"
	"locomotion/internal/service"
)

// rideFixture bundles the mocks behind a RideService.
type rideFixture struct {
	svc     *service.RideService
	rides   *MockRideRepository
	riders  *MockRiderRepository
	drivers *MockDriverRepository
	wallets *MockWalletRepository
}

func newRideFixture() *rideFixture {
	rides := NewMockRideRepository()
	riders := NewMockRiderRepository()
	drivers := NewMockDriverRepository()
	wallets := NewMockWalletRepository()
	orders := NewMockPaymentOrderRepository()
	txm := NewMockTxManager(rides, drivers, wallets, riders, orders)

	return &rideFixture{
		svc:     service.NewRideService(txm, rides, riders, drivers),
		rides:   rides,
		riders:  riders,
		drivers: drivers,
		wallets: wallets,
	}
}

func (f *rideFixture) seedRider(id, phone string) {
	f.riders.AddRider(&domain.Rider{ID: id, Name: "Asha", Phone: phone, CreatedAt: time.Now()})
}

func (f *rideFixture) seedDriver(id string, active bool) {
	f.drivers.AddDriver(&domain.Driver{
		ID:       id,
		Name:     "Ravi",
		Phone:    "9000000001",
		IsActive: active,
	})
	f.wallets.AddAccount(&domain.WalletAccount{ID: "w-" + id, DriverID: id})
}

func (f *rideFixture) seedRide(id string, status domain.RideStatus) *domain.RideRequest {
	ride := &domain.RideRequest{
		ID:            id,
		RiderID:       "rider-1",
		DriverID:      "driver-1",
		DistanceKm:    8,
		EstimatedFare: 185,
		ServiceCharge: 15,
		Status:        status,
		RideOTP:       "4312",
		PaymentStatus: domain.PaymentStatusPending,
		PayoutStatus:  domain.PayoutStatusPending,
		CreatedAt:     time.Now(),
		UpdatedAt:     time.Now(),
	}
	f.rides.AddRide(ride)
	return ride
}

func validCreateRequest() service.CreateRideRequest {
	return service.CreateRideRequest{
		RiderID:             "rider-1",
		DriverID:            "driver-1",
		SourceLocation:      "MG Road",
		SourceLat:           12.9758,
		SourceLng:           77.6045,
		DestinationLocation: "Airport",
		DestinationLat:      13.1989,
		DestinationLng:      77.7068,
		VehicleDetails:      "sedan",
		DistanceKm:          38.2,
		EstimatedFare:       748.5,
		ServiceCharge:       35,
	}
}

func TestRideCreation_ValidInput_Succeeds(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedRider("rider-1", "9876543210")
	f.seedDriver("driver-1", true)

	ride, err := f.svc.CreateRide(context.Background(), validCreateRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ride.Status != domain.RideStatusPending {
		t.Errorf("expected pending status, got %s", ride.Status)
	}
	if len(ride.RideOTP) != 4 {
		t.Errorf("expected 4-digit OTP, got %q", ride.RideOTP)
	}
	if ride.PayoutStatus != domain.PayoutStatusPending {
		t.Errorf("expected pending payout status, got %s", ride.PayoutStatus)
	}
	if f.rides.GetRide(ride.ID) == nil {
		t.Error("ride was not persisted")
	}
}

func TestRideCreation_MissingFields_Rejected(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		mutate func(*service.CreateRideRequest)
	}{
		{"missing rider id", func(r *service.CreateRideRequest) { r.RiderID = "" }},
		{"missing driver id", func(r *service.CreateRideRequest) { r.DriverID = "" }},
		{"missing source", func(r *service.CreateRideRequest) { r.SourceLat, r.SourceLng = 0, 0 }},
		{"missing destination", func(r *service.CreateRideRequest) { r.DestinationLat, r.DestinationLng = 0, 0 }},
		{"missing fare", func(r *service.CreateRideRequest) { r.EstimatedFare = 0 }},
		{"missing service charge", func(r *service.CreateRideRequest) { r.ServiceCharge = 0 }},
		{"missing distance", func(r *service.CreateRideRequest) { r.DistanceKm = 0 }},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newRideFixture()
			f.seedRider("rider-1", "9876543210")
			f.seedDriver("driver-1", true)

			req := validCreateRequest()
			tc.mutate(&req)

			_, err := f.svc.CreateRide(context.Background(), req)
			if !errors.Is(err, service.ErrInvalidInput) {
				t.Errorf("expected ErrInvalidInput, got %v", err)
			}
		})
	}
}

func TestRideCreation_PhoneRequiredWhenRiderHasNone(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedRider("rider-1", "")
	f.seedDriver("driver-1", true)

	_, err := f.svc.CreateRide(context.Background(), validCreateRequest())
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput without phone, got %v", err)
	}

	// Supplying a phone inline both unblocks the booking and persists
	// the number on the rider.
	req := validCreateRequest()
	req.RiderPhone = "9876543210"
	if _, err := f.svc.CreateRide(context.Background(), req); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := f.riders.GetRider("rider-1").Phone; got != "9876543210" {
		t.Errorf("expected phone persisted on rider, got %q", got)
	}
}

func TestRideCreation_InactiveDriver_Rejected(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedRider("rider-1", "9876543210")
	f.seedDriver("driver-1", false)

	_, err := f.svc.CreateRide(context.Background(), validCreateRequest())
	if !errors.Is(err, service.ErrDriverInactive) {
		t.Errorf("expected ErrDriverInactive, got %v", err)
	}
}

func TestRideCreation_UnknownRider_NotFound(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", true)

	_, err := f.svc.CreateRide(context.Background(), validCreateRequest())
	if !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestRideLifecycle_HappyPath(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", true)
	ride := f.seedRide("ride-1", domain.RideStatusPending)

	steps := []struct {
		action domain.RideAction
		otp    string
		want   domain.RideStatus
	}{
		{domain.RideActionAccept, "", domain.RideStatusAccepted},
		{domain.RideActionArrive, "", domain.RideStatusArrived},
		{domain.RideActionStartTrip, ride.RideOTP, domain.RideStatusInProgress},
		{domain.RideActionComplete, "", domain.RideStatusCompleted},
	}

	for _, step := range steps {
		got, err := f.svc.PerformAction(context.Background(), service.ActionRequest{
			RideID:   "ride-1",
			DriverID: "driver-1",
			Action:   step.action,
			OTP:      step.otp,
		})
		if err != nil {
			t.Fatalf("action %s: unexpected error: %v", step.action, err)
		}
		if got.Status != step.want {
			t.Fatalf("action %s: expected status %s, got %s", step.action, step.want, got.Status)
		}
	}

	// Completion debits the wallet by the service charge.
	if bal := f.wallets.Balance("driver-1"); bal != -15 {
		t.Errorf("expected wallet balance -15 after completion, got %v", bal)
	}
}

func TestRideLifecycle_RejectFromPending(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", true)
	f.seedRide("ride-1", domain.RideStatusPending)

	got, err := f.svc.PerformAction(context.Background(), service.ActionRequest{
		RideID:   "ride-1",
		DriverID: "driver-1",
		Action:   domain.RideActionReject,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.RideStatusRejected {
		t.Errorf("expected rejected, got %s", got.Status)
	}
}

func TestRideLifecycle_InvalidTransitions_Rejected(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name   string
		status domain.RideStatus
		action domain.RideAction
	}{
		{"start before arrive", domain.RideStatusAccepted, domain.RideActionStartTrip},
		{"arrive before accept", domain.RideStatusPending, domain.RideActionArrive},
		{"complete before start", domain.RideStatusArrived, domain.RideActionComplete},
		{"accept twice", domain.RideStatusAccepted, domain.RideActionAccept},
		{"reject after accept", domain.RideStatusAccepted, domain.RideActionReject},
		{"cancel after complete", domain.RideStatusCompleted, domain.RideActionCancel},
		{"accept cancelled ride", domain.RideStatusCancelled, domain.RideActionAccept},
		{"accept rejected ride", domain.RideStatusRejected, domain.RideActionAccept},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			f := newRideFixture()
			f.seedDriver("driver-1", true)
			f.seedRide("ride-1", tc.status)

			_, err := f.svc.PerformAction(context.Background(), service.ActionRequest{
				RideID:   "ride-1",
				DriverID: "driver-1",
				Action:   tc.action,
				OTP:      "4312",
			})
			if !errors.Is(err, service.ErrInvalidTransition) {
				t.Errorf("expected ErrInvalidTransition, got %v", err)
			}

			// The failed action must not have moved the ride.
			if got := f.rides.GetRide("ride-1").Status; got != tc.status {
				t.Errorf("status changed from %s to %s on rejected action", tc.status, got)
			}
		})
	}
}

func TestRideLifecycle_CancelFromEveryActiveStatus(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.RideStatus{
		domain.RideStatusPending,
		domain.RideStatusAccepted,
		domain.RideStatusArrived,
		domain.RideStatusInProgress,
	} {
		status := status
		t.Run(string(status), func(t *testing.T) {
			t.Parallel()

			f := newRideFixture()
			f.seedDriver("driver-1", true)
			f.seedRide("ride-1", status)

			got, err := f.svc.PerformAction(context.Background(), service.ActionRequest{
				RideID:   "ride-1",
				DriverID: "driver-1",
				Action:   domain.RideActionCancel,
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got.Status != domain.RideStatusCancelled {
				t.Errorf("expected cancelled, got %s", got.Status)
			}

			// No debit on cancellation, even mid-trip.
			if bal := f.wallets.Balance("driver-1"); bal != 0 {
				t.Errorf("expected untouched wallet, got %v", bal)
			}
		})
	}
}

func TestRideLifecycle_UnknownAction_Rejected(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", true)
	f.seedRide("ride-1", domain.RideStatusPending)

	_, err := f.svc.PerformAction(context.Background(), service.ActionRequest{
		RideID:   "ride-1",
		DriverID: "driver-1",
		Action:   "teleport",
	})
	if !errors.Is(err, service.ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestRideLifecycle_WrongDriver_Unauthorized(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", true)
	f.seedDriver("driver-2", true)
	f.seedRide("ride-1", domain.RideStatusPending)

	_, err := f.svc.PerformAction(context.Background(), service.ActionRequest{
		RideID:   "ride-1",
		DriverID: "driver-2",
		Action:   domain.RideActionAccept,
	})
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRideLifecycle_UnknownDriver_Unauthorized(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedRide("ride-1", domain.RideStatusPending)

	_, err := f.svc.PerformAction(context.Background(), service.ActionRequest{
		RideID:   "ride-1",
		DriverID: "ghost",
		Action:   domain.RideActionAccept,
	})
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRideLifecycle_OtpMismatch_RetriesAllowed(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", true)
	ride := f.seedRide("ride-1", domain.RideStatusArrived)

	// Wrong codes leave the ride in arrived, any number of times.
	for i := 0; i < 3; i++ {
		_, err := f.svc.PerformAction(context.Background(), service.ActionRequest{
			RideID:   "ride-1",
			DriverID: "driver-1",
			Action:   domain.RideActionStartTrip,
			OTP:      "0000",
		})
		if !errors.Is(err, service.ErrOtpMismatch) {
			t.Fatalf("attempt %d: expected ErrOtpMismatch, got %v", i+1, err)
		}
		if got := f.rides.GetRide("ride-1").Status; got != domain.RideStatusArrived {
			t.Fatalf("attempt %d: status moved to %s on OTP mismatch", i+1, got)
		}
	}

	// The correct code still works afterwards.
	got, err := f.svc.PerformAction(context.Background(), service.ActionRequest{
		RideID:   "ride-1",
		DriverID: "driver-1",
		Action:   domain.RideActionStartTrip,
		OTP:      ride.RideOTP,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Status != domain.RideStatusInProgress {
		t.Errorf("expected in_progress, got %s", got.Status)
	}
}

func TestRideLifecycle_InactiveDriverBlocked(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", false)
	f.seedRide("ride-1", domain.RideStatusPending)

	_, err := f.svc.PerformAction(context.Background(), service.ActionRequest{
		RideID:   "ride-1",
		DriverID: "driver-1",
		Action:   domain.RideActionAccept,
	})
	if !errors.Is(err, service.ErrDriverInactive) {
		t.Errorf("expected ErrDriverInactive, got %v", err)
	}
}

func TestRideReaper_CancelsOnlyStalePending(t *testing.T) {
	t.Parallel()

	rides := NewMockRideRepository()
	now := time.Now()

	stale := &domain.RideRequest{ID: "stale", Status: domain.RideStatusPending, CreatedAt: now.Add(-10 * time.Minute)}
	fresh := &domain.RideRequest{ID: "fresh", Status: domain.RideStatusPending, CreatedAt: now.Add(-1 * time.Minute)}
	accepted := &domain.RideRequest{ID: "accepted", Status: domain.RideStatusAccepted, CreatedAt: now.Add(-10 * time.Minute)}
	rides.AddRide(stale)
	rides.AddRide(fresh)
	rides.AddRide(accepted)

	reaper := service.NewReaperService(rides, 5*time.Minute)

	cancelled, err := reaper.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled != 1 {
		t.Errorf("expected 1 cancellation, got %d", cancelled)
	}

	if got := rides.GetRide("stale").Status; got != domain.RideStatusCancelled {
		t.Errorf("stale ride should be cancelled, got %s", got)
	}
	if got := rides.GetRide("fresh").Status; got != domain.RideStatusPending {
		t.Errorf("fresh ride should stay pending, got %s", got)
	}
	if got := rides.GetRide("accepted").Status; got != domain.RideStatusAccepted {
		t.Errorf("accepted ride should be untouched, got %s", got)
	}

	// A second sweep finds nothing.
	cancelled, err = reaper.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled != 0 {
		t.Errorf("expected idempotent second sweep, got %d cancellations", cancelled)
	}
}
