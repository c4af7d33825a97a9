package redis

import (
	"context"
	"time"
)

// CacheStoreInterface defines the interface for listing-cache operations.
type CacheStoreInterface interface {
	GetVisibleDrivers(ctx context.Context) ([]CachedDriver, error)
	SetVisibleDrivers(ctx context.Context, drivers []CachedDriver) error
	InvalidateVisibleDrivers(ctx context.Context) error
}

// LockStoreInterface defines the interface for distributed job locking.
type LockStoreInterface interface {
	AcquireJobLock(ctx context.Context, job string, ttl time.Duration) (bool, error)
	ReleaseJobLock(ctx context.Context, job string) error
}

// Ensure concrete types implement interfaces.
var (
	_ CacheStoreInterface = (*CacheStore)(nil)
	_ LockStoreInterface  = (*LockStore)(nil)
)
