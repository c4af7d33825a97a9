package tests

import (
	"context"
	"errors"
	"testing"

	"locomotion/internal/service"
)

func TestFareEstimate_TwoWheelerRates(t *testing.T) {
	t.Parallel()

	// 25 + 10*8 + 24*1 = 129, charge tier for 10km = 15.
	b, err := service.EstimateFare(10, 24, "Two Wheeler")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.RideFare != 129 {
		t.Errorf("expected ride fare 129, got %v", b.RideFare)
	}
	if b.ServiceCharge != 15 {
		t.Errorf("expected service charge 15, got %v", b.ServiceCharge)
	}
	if b.EstimatedFare != 144 {
		t.Errorf("expected estimated fare 144, got %v", b.EstimatedFare)
	}
}

func TestFareEstimate_DefaultRates(t *testing.T) {
	t.Parallel()

	// 50 + 10*15 + 24*2 = 248, charge tier for 10km = 15.
	b, err := service.EstimateFare(10, 24, "sedan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.RideFare != 248 {
		t.Errorf("expected ride fare 248, got %v", b.RideFare)
	}
	if b.EstimatedFare != 263 {
		t.Errorf("expected estimated fare 263, got %v", b.EstimatedFare)
	}
}

func TestFareEstimate_VehicleClassKeywords(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		class      string
		twoWheeler bool
	}{
		{"bike", true},
		{"Scooter Deluxe", true},
		{"motorcycle", true},
		{"2-wheeler", true},
		{"two wheeler", true},
		{"sedan", false},
		{"SUV", false},
		{"auto rickshaw", false},
	}

	for _, tc := range testCases {
		t.Run(tc.class, func(t *testing.T) {
			if got := service.IsTwoWheeler(tc.class); got != tc.twoWheeler {
				t.Errorf("IsTwoWheeler(%q) = %v, want %v", tc.class, got, tc.twoWheeler)
			}
		})
	}
}

func TestFareEstimate_ServiceChargeTiers(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		distanceKm float64
		charge     float64
	}{
		{0, 10},
		{5, 10},
		{5.01, 15},
		{10, 15},
		{10.01, 25},
		{20, 25},
		{20.01, 35},
		{100, 35},
	}

	for _, tc := range testCases {
		if got := service.ServiceChargeFor(tc.distanceKm); got != tc.charge {
			t.Errorf("ServiceChargeFor(%v) = %v, want %v", tc.distanceKm, got, tc.charge)
		}
	}
}

func TestFareEstimate_Deterministic(t *testing.T) {
	t.Parallel()

	first, err := service.EstimateFare(12.4, 31.7, "sedan")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for i := 0; i < 100; i++ {
		b, err := service.EstimateFare(12.4, 31.7, "sedan")
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if *b != *first {
			t.Fatalf("estimate changed between calls: %+v vs %+v", b, first)
		}
	}
}

func TestFareEstimate_RejectsBadInput(t *testing.T) {
	t.Parallel()

	if _, err := service.EstimateFare(-1, 10, "sedan"); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative distance, got %v", err)
	}
	if _, err := service.EstimateFare(10, -1, "sedan"); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for negative duration, got %v", err)
	}
	if _, err := service.EstimateFare(10, 10, ""); !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput for empty vehicle class, got %v", err)
	}
}

func TestFareQuote_AppliesTrafficMultiplier(t *testing.T) {
	t.Parallel()

	routes := &MockRouteEstimator{DistanceKm: 10, DurationMin: 20}
	fareService := service.NewFareService(routes)

	b, err := fareService.Quote(context.Background(), service.QuoteRequest{
		PickupLat:    12.97,
		PickupLng:    77.59,
		DropoffLat:   13.03,
		DropoffLng:   77.62,
		VehicleClass: "sedan",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Duration 20 * 1.75 = 35 min. Fare 50 + 150 + 70 = 270.
	if b.DurationMin != 35 {
		t.Errorf("expected traffic-adjusted duration 35, got %v", b.DurationMin)
	}
	if b.RideFare != 270 {
		t.Errorf("expected ride fare 270, got %v", b.RideFare)
	}
}

func TestFareQuote_EmptyVehicleClassUsesDefaultRates(t *testing.T) {
	t.Parallel()

	routes := &MockRouteEstimator{DistanceKm: 4, DurationMin: 8}
	fareService := service.NewFareService(routes)

	b, err := fareService.Quote(context.Background(), service.QuoteRequest{
		PickupLat:  12.97,
		PickupLng:  77.59,
		DropoffLat: 13.03,
		DropoffLng: 77.62,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// 50 + 4*15 + 14*2 = 138 with default rates; two-wheeler would be 71.
	if b.RideFare != 138 {
		t.Errorf("expected default-rate fare 138, got %v", b.RideFare)
	}
}

func TestFareQuote_RouteErrorPropagates(t *testing.T) {
	t.Parallel()

	routeErr := errors.New("routing unavailable")
	routes := &MockRouteEstimator{EstimateError: routeErr}
	fareService := service.NewFareService(routes)

	_, err := fareService.Quote(context.Background(), service.QuoteRequest{
		PickupLat:  12.97,
		PickupLng:  77.59,
		DropoffLat: 13.03,
		DropoffLng: 77.62,
	})
	if !errors.Is(err, routeErr) {
		t.Errorf("expected routing error, got %v", err)
	}
}

func TestFareQuote_MissingCoordinatesRejected(t *testing.T) {
	t.Parallel()

	routes := &MockRouteEstimator{DistanceKm: 10, DurationMin: 20}
	fareService := service.NewFareService(routes)

	_, err := fareService.Quote(context.Background(), service.QuoteRequest{
		DropoffLat: 13.03,
		DropoffLng: 77.62,
	})
	if !errors.Is(err, service.ErrInvalidInput) {
		t.Errorf("expected ErrInvalidInput, got %v", err)
	}
	if routes.EstimateCallCount != 0 {
		t.Errorf("route estimator should not be called on invalid input")
	}
}
