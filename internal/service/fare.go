package service

import (
	"context"
	"math"
	"strings"
)

// Rate table constants, fixed per vehicle class.
const (
	twoWheelerBaseFare   = 25.0
	twoWheelerPerKmRate  = 8.0
	twoWheelerPerMinRate = 1.0

	defaultBaseFare   = 50.0
	defaultPerKmRate  = 15.0
	defaultPerMinRate = 2.0

	// trafficMultiplier inflates raw route duration to account for
	// traffic before fare calculation.
	trafficMultiplier = 1.75
)

// FareBreakdown is the result of a fare estimate. Values carry full
// precision; use Rounded for display.
type FareBreakdown struct {
	DistanceKm    float64
	DurationMin   float64
	RideFare      float64
	ServiceCharge float64
	EstimatedFare float64
}

// Rounded returns a copy with monetary values rounded to 2 decimals
// and duration to the nearest whole minute.
func (b FareBreakdown) Rounded() FareBreakdown {
	return FareBreakdown{
		DistanceKm:    round2(b.DistanceKm),
		DurationMin:   math.Round(b.DurationMin),
		RideFare:      round2(b.RideFare),
		ServiceCharge: round2(b.ServiceCharge),
		EstimatedFare: round2(b.EstimatedFare),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// IsTwoWheeler reports whether a vehicle class string describes a
// two-wheeler.
func IsTwoWheeler(vehicleClass string) bool {
	class := strings.ToLower(vehicleClass)
	for _, word := range []string{"two", "2", "bike", "scooter", "motorcycle"} {
		if strings.Contains(class, word) {
			return true
		}
	}
	return false
}

// ServiceChargeFor returns the platform fee tier for a distance.
func ServiceChargeFor(distanceKm float64) float64 {
	switch {
	case distanceKm <= 5.0:
		return 10.0
	case distanceKm <= 10.0:
		return 15.0
	case distanceKm <= 20.0:
		return 25.0
	default:
		return 35.0
	}
}

// EstimateFare computes the fare breakdown for a trip. Pure: same
// inputs always yield the same breakdown, safe to call concurrently.
// Duration is expected to be traffic-adjusted already.
func EstimateFare(distanceKm, durationMin float64, vehicleClass string) (*FareBreakdown, error) {
	if distanceKm < 0 {
		return nil, ErrNegativeDistance
	}
	if durationMin < 0 {
		return nil, ErrNegativeDuration
	}
	if vehicleClass == "" {
		return nil, ErrMissingVehicle
	}

	base, perKm, perMin := defaultBaseFare, defaultPerKmRate, defaultPerMinRate
	if IsTwoWheeler(vehicleClass) {
		base, perKm, perMin = twoWheelerBaseFare, twoWheelerPerKmRate, twoWheelerPerMinRate
	}

	rideFare := base + distanceKm*perKm + durationMin*perMin
	serviceCharge := ServiceChargeFor(distanceKm)

	return &FareBreakdown{
		DistanceKm:    distanceKm,
		DurationMin:   durationMin,
		RideFare:      rideFare,
		ServiceCharge: serviceCharge,
		EstimatedFare: rideFare + serviceCharge,
	}, nil
}

// RouteEstimator supplies driving distance and duration between two
// points. The routing service is an external collaborator, injected so
// fare quotes are testable with fakes.
type RouteEstimator interface {
	Estimate(ctx context.Context, srcLat, srcLng, dstLat, dstLng float64) (distanceKm, durationMin float64, err error)
}

// FareService answers fare inquiries by combining the routing
// collaborator with the rate table.
type FareService struct {
	routes RouteEstimator
}

// NewFareService creates a new FareService.
func NewFareService(routes RouteEstimator) *FareService {
	return &FareService{routes: routes}
}

// QuoteRequest contains the parameters for a fare quote.
type QuoteRequest struct {
	PickupLat    float64
	PickupLng    float64
	DropoffLat   float64
	DropoffLng   float64
	VehicleClass string
}

// Quote fetches the route once and returns the fare breakdown.
// An empty vehicle class falls back to the default rate table.
func (s *FareService) Quote(ctx context.Context, req QuoteRequest) (*FareBreakdown, error) {
	if req.PickupLat == 0 && req.PickupLng == 0 {
		return nil, ErrMissingLocation
	}
	if req.DropoffLat == 0 && req.DropoffLng == 0 {
		return nil, ErrMissingLocation
	}

	vehicleClass := req.VehicleClass
	if vehicleClass == "" {
		vehicleClass = "other"
	}

	distanceKm, durationMin, err := s.routes.Estimate(ctx,
		req.PickupLat, req.PickupLng, req.DropoffLat, req.DropoffLng)
	if err != nil {
		return nil, err
	}

	return EstimateFare(distanceKm, durationMin*trafficMultiplier, vehicleClass)
}
