package tests

import (
	"context"
	"errors"
	"testing"

	"locomotion/internal/domain"
	"locomotion/internal/service"
)

// driverFixture bundles the mocks behind a DriverService.
type driverFixture struct {
	svc     *service.DriverService
	drivers *MockDriverRepository
	wallets *MockWalletRepository
	cache   *MockCacheStore
}

func newDriverFixture() *driverFixture {
	rides := NewMockRideRepository()
	drivers := NewMockDriverRepository()
	wallets := NewMockWalletRepository()
	riders := NewMockRiderRepository()
	orders := NewMockPaymentOrderRepository()
	txm := NewMockTxManager(rides, drivers, wallets, riders, orders)
	cache := NewMockCacheStore()

	return &driverFixture{
		svc:     service.NewDriverService(txm, drivers, cache, -100.00),
		drivers: drivers,
		wallets: wallets,
		cache:   cache,
	}
}

func TestDriverProvision_CreatesDriverAndWallet(t *testing.T) {
	t.Parallel()

	f := newDriverFixture()

	driver, err := f.svc.Provision(context.Background(), service.ProvisionRequest{
		Name:            "Ravi",
		Phone:           "9000000001",
		ExperienceYears: 4,
		VehicleDetails:  "sedan KA-01-1234",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !driver.IsActive || !driver.IsAvailable {
		t.Errorf("new driver should start active and available: %+v", driver)
	}
	if f.drivers.GetDriver(driver.ID) == nil {
		t.Error("driver was not persisted")
	}
	if _, err := f.wallets.GetByDriverID(context.Background(), driver.ID); err != nil {
		t.Errorf("wallet account missing: %v", err)
	}
	if f.wallets.Balance(driver.ID) != 0 {
		t.Errorf("new wallet should open at zero, got %v", f.wallets.Balance(driver.ID))
	}
}

func TestDriverProvision_Validation(t *testing.T) {
	t.Parallel()

	f := newDriverFixture()

	testCases := []struct {
		name string
		req  service.ProvisionRequest
	}{
		{"missing name", service.ProvisionRequest{Phone: "9000000001", VehicleDetails: "sedan"}},
		{"missing phone", service.ProvisionRequest{Name: "Ravi", VehicleDetails: "sedan"}},
		{"missing vehicle", service.ProvisionRequest{Name: "Ravi", Phone: "9000000001"}},
	}

	for _, tc := range testCases {
		_, err := f.svc.Provision(context.Background(), tc.req)
		if !errors.Is(err, service.ErrInvalidInput) {
			t.Errorf("%s: expected ErrInvalidInput, got %v", tc.name, err)
		}
	}
}

func TestDriverListing_HidesDriversAtOrBelowFloor(t *testing.T) {
	t.Parallel()

	f := newDriverFixture()
	f.drivers.AddDriver(&domain.Driver{ID: "healthy", Name: "A", IsActive: true, AverageRating: 4.2})
	f.drivers.AddDriver(&domain.Driver{ID: "in-debt", Name: "B", IsActive: true, AverageRating: 4.9})
	f.drivers.AddDriver(&domain.Driver{ID: "inactive", Name: "C", IsActive: false, AverageRating: 5.0})
	f.drivers.Balances["healthy"] = -50
	f.drivers.Balances["in-debt"] = -150
	f.drivers.Balances["inactive"] = 500

	drivers, err := f.svc.ListVisible(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(drivers) != 1 || drivers[0].ID != "healthy" {
		t.Errorf("expected only the healthy driver, got %+v", drivers)
	}
}

func TestDriverListing_ServedFromCacheWhenFresh(t *testing.T) {
	t.Parallel()

	f := newDriverFixture()
	f.drivers.AddDriver(&domain.Driver{ID: "d1", Name: "A", IsActive: true})
	f.drivers.Balances["d1"] = 10

	// First call misses the cache and fills it.
	if _, err := f.svc.ListVisible(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.cache.SetCallCount != 1 {
		t.Errorf("expected cache fill, got %d sets", f.cache.SetCallCount)
	}

	// Second call is a cache hit: even a balance change is not seen
	// until the entry expires or is invalidated.
	f.drivers.Balances["d1"] = -500
	drivers, err := f.svc.ListVisible(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(drivers) != 1 {
		t.Errorf("expected cached listing with 1 driver, got %d", len(drivers))
	}
}

func TestDriverAvailability_InvalidatesListingCache(t *testing.T) {
	t.Parallel()

	f := newDriverFixture()
	f.drivers.AddDriver(&domain.Driver{ID: "d1", Name: "A", IsActive: true})
	f.drivers.Balances["d1"] = 10

	if _, err := f.svc.ListVisible(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := f.svc.SetAvailability(context.Background(), "d1", false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if f.cache.InvalidateCallCount == 0 {
		t.Error("availability change should drop the listing cache")
	}
	if f.drivers.GetDriver("d1").IsAvailable {
		t.Error("availability flag not persisted")
	}
}

func TestWallet_BalanceAndEntries(t *testing.T) {
	t.Parallel()

	wallets := NewMockWalletRepository()
	wallets.AddAccount(&domain.WalletAccount{ID: "w1", DriverID: "d1", Balance: 0})

	walletService := service.NewWalletService(wallets)

	if _, err := wallets.ApplyEntry(context.Background(), &domain.WalletEntry{
		ID: "e1", DriverID: "d1", Kind: domain.WalletEntryRechargeCredit, Reference: "order-1", Amount: 300,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := wallets.ApplyEntry(context.Background(), &domain.WalletEntry{
		ID: "e2", DriverID: "d1", Kind: domain.WalletEntryRideDebit, Reference: "ride-1", Amount: -15,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	account, err := walletService.Balance(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if account.Balance != 285 {
		t.Errorf("expected balance 285, got %v", account.Balance)
	}

	entries, err := walletService.Entries(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	// Newest first.
	if entries[0].Reference != "ride-1" {
		t.Errorf("expected newest entry first, got %q", entries[0].Reference)
	}
}
