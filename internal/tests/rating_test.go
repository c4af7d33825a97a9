package tests

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"locomotion/internal/domain"
	"locomotion/internal/service"
)

func seedCompletedRide(f *rideFixture, id string, rating int) {
	ride := &domain.RideRequest{
		ID:            id,
		RiderID:       "rider-1",
		DriverID:      "driver-1",
		Status:        domain.RideStatusCompleted,
		Rating:        rating,
		PaymentStatus: domain.PaymentStatusPending,
		PayoutStatus:  domain.PayoutStatusPending,
		CreatedAt:     time.Now(),
	}
	f.rides.AddRide(ride)
}

func TestRating_FirstRating_UpdatesDriverAverage(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", true)
	seedCompletedRide(f, "ride-1", 0)

	ride, err := f.svc.RateRide(context.Background(), service.RateRequest{
		RideID:   "ride-1",
		RiderID:  "rider-1",
		Rating:   4,
		Feedback: "smooth trip",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if ride.Rating != 4 || ride.Feedback != "smooth trip" {
		t.Errorf("rating not stored: %+v", ride)
	}

	driver := f.drivers.GetDriver("driver-1")
	if driver.AverageRating != 4.0 || driver.TotalRatings != 1 {
		t.Errorf("expected avg 4.0 over 1 rating, got %v over %d", driver.AverageRating, driver.TotalRatings)
	}
}

func TestRating_AverageRecomputedOverAllRatedRides(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", true)
	seedCompletedRide(f, "ride-1", 5)
	seedCompletedRide(f, "ride-2", 4)
	seedCompletedRide(f, "ride-3", 0)

	if _, err := f.svc.RateRide(context.Background(), service.RateRequest{
		RideID:  "ride-3",
		RiderID: "rider-1",
		Rating:  2,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// (5+4+2)/3 = 3.666..., rounded to 1 decimal.
	driver := f.drivers.GetDriver("driver-1")
	if driver.AverageRating != 3.7 {
		t.Errorf("expected average 3.7, got %v", driver.AverageRating)
	}
	if driver.TotalRatings != 3 {
		t.Errorf("expected 3 ratings, got %d", driver.TotalRatings)
	}
}

func TestRating_SecondRating_Rejected(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", true)
	seedCompletedRide(f, "ride-1", 0)

	if _, err := f.svc.RateRide(context.Background(), service.RateRequest{
		RideID: "ride-1", RiderID: "rider-1", Rating: 5,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.RateRide(context.Background(), service.RateRequest{
		RideID: "ride-1", RiderID: "rider-1", Rating: 1,
	})
	if !errors.Is(err, service.ErrAlreadyRated) {
		t.Errorf("expected ErrAlreadyRated, got %v", err)
	}

	// The original rating survives.
	if got := f.rides.GetRide("ride-1").Rating; got != 5 {
		t.Errorf("expected original rating 5, got %d", got)
	}
}

func TestRating_NonCompletedRide_Rejected(t *testing.T) {
	t.Parallel()

	for _, status := range []domain.RideStatus{
		domain.RideStatusPending,
		domain.RideStatusAccepted,
		domain.RideStatusArrived,
		domain.RideStatusInProgress,
		domain.RideStatusCancelled,
		domain.RideStatusRejected,
	} {
		status := status
		t.Run(string(status), func(t *testing.T) {
			t.Parallel()

			f := newRideFixture()
			f.seedDriver("driver-1", true)
			f.seedRide("ride-1", status)

			_, err := f.svc.RateRide(context.Background(), service.RateRequest{
				RideID: "ride-1", RiderID: "rider-1", Rating: 3,
			})
			if !errors.Is(err, service.ErrNotRatable) {
				t.Errorf("expected ErrNotRatable, got %v", err)
			}
		})
	}
}

func TestRating_OutOfRange_Rejected(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", true)
	seedCompletedRide(f, "ride-1", 0)

	for _, rating := range []int{0, -1, 6, 100} {
		_, err := f.svc.RateRide(context.Background(), service.RateRequest{
			RideID: "ride-1", RiderID: "rider-1", Rating: rating,
		})
		if !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("rating %d: expected ErrInvalidInput, got %v", rating, err)
		}
	}
}

func TestRating_WrongRider_Unauthorized(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", true)
	seedCompletedRide(f, "ride-1", 0)

	_, err := f.svc.RateRide(context.Background(), service.RateRequest{
		RideID: "ride-1", RiderID: "rider-2", Rating: 3,
	})
	if !errors.Is(err, service.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}

func TestRating_ConcurrentRatings_ExactlyOneWins(t *testing.T) {
	t.Parallel()

	f := newRideFixture()
	f.seedDriver("driver-1", true)
	seedCompletedRide(f, "ride-1", 0)

	const workers = 10

	var wg sync.WaitGroup
	var successes int32
	var mu sync.Mutex

	for i := 0; i < workers; i++ {
		rating := (i % 5) + 1
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.RateRide(context.Background(), service.RateRequest{
				RideID: "ride-1", RiderID: "rider-1", Rating: rating,
			})

			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				successes++
			} else if !errors.Is(err, service.ErrAlreadyRated) {
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if successes != 1 {
		t.Errorf("expected exactly 1 successful rating, got %d", successes)
	}

	driver := f.drivers.GetDriver("driver-1")
	if driver.TotalRatings != 1 {
		t.Errorf("expected 1 counted rating, got %d", driver.TotalRatings)
	}
}
