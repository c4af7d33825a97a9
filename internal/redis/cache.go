package redis

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheStore handles entity caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// DriverListingTTL bounds how stale the rider-facing driver listing may
// get. Wallet debits and availability flips can push a driver out of
// the listing at any time, so keep it short.
const DriverListingTTL = 30 * time.Second

const driverListingKey = "cache:drivers:visible"

// CachedDriver is the listing projection of a driver.
type CachedDriver struct {
	ID              string  `json:"id"`
	Name            string  `json:"name"`
	ExperienceYears int     `json:"experience_years"`
	VehicleDetails  string  `json:"vehicle_details"`
	AverageRating   float64 `json:"average_rating"`
	TotalRatings    int     `json:"total_ratings"`
}

// GetVisibleDrivers retrieves the cached driver listing. A cache miss
// returns (nil, nil).
func (s *CacheStore) GetVisibleDrivers(ctx context.Context) ([]CachedDriver, error) {
	data, err := s.client.Get(ctx, driverListingKey).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil // Cache miss
		}
		return nil, err
	}

	var drivers []CachedDriver
	if err := json.Unmarshal(data, &drivers); err != nil {
		return nil, err
	}
	return drivers, nil
}

// SetVisibleDrivers stores the driver listing.
func (s *CacheStore) SetVisibleDrivers(ctx context.Context, drivers []CachedDriver) error {
	data, err := json.Marshal(drivers)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, driverListingKey, data, DriverListingTTL).Err()
}

// InvalidateVisibleDrivers drops the driver listing, forcing the next
// read through to the database.
func (s *CacheStore) InvalidateVisibleDrivers(ctx context.Context) error {
	return s.client.Del(ctx, driverListingKey).Err()
}
