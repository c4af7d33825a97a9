package routing

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"
)

// GoogleRoutes resolves driving distance and duration through the
// Google Maps Directions API.
type GoogleRoutes struct {
	client *maps.Client
}

// NewGoogleRoutes creates a GoogleRoutes client with the given API key.
func NewGoogleRoutes(apiKey string) (*GoogleRoutes, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleRoutes{client: client}, nil
}

// Estimate returns the driving distance in kilometers and the raw
// duration in minutes for the best route between the two points.
func (g *GoogleRoutes) Estimate(ctx context.Context, srcLat, srcLng, dstLat, dstLng float64) (float64, float64, error) {
	r := &maps.DirectionsRequest{
		Origin:      fmt.Sprintf("%f,%f", srcLat, srcLng),
		Destination: fmt.Sprintf("%f,%f", dstLat, dstLng),
		Mode:        maps.TravelModeDriving,
	}

	routes, _, err := g.client.Directions(ctx, r)
	if err != nil {
		return 0, 0, fmt.Errorf("maps api error: %w", err)
	}
	if len(routes) == 0 || len(routes[0].Legs) == 0 {
		return 0, 0, fmt.Errorf("no route found between %f,%f and %f,%f", srcLat, srcLng, dstLat, dstLng)
	}

	var meters int
	var seconds float64
	for _, leg := range routes[0].Legs {
		meters += leg.Distance.Meters
		seconds += leg.Duration.Seconds()
	}

	return float64(meters) / 1000.0, seconds / 60.0, nil
}
