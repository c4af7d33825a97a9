package tests

import (
	"context"
	"testing"
	"time"

	"locomotion/internal/domain"
	"locomotion/internal/service"
)

// settlementFixture bundles the mocks behind a SettlementService.
type settlementFixture struct {
	svc   *service.SettlementService
	rides *MockRideRepository
	locks *MockLockStore
}

func newSettlementFixture() *settlementFixture {
	rides := NewMockRideRepository()
	drivers := NewMockDriverRepository()
	wallets := NewMockWalletRepository()
	riders := NewMockRiderRepository()
	orders := NewMockPaymentOrderRepository()
	txm := NewMockTxManager(rides, drivers, wallets, riders, orders)
	locks := NewMockLockStore()

	return &settlementFixture{
		svc:   service.NewSettlementService(txm, rides, locks),
		rides: rides,
		locks: locks,
	}
}

func (f *settlementFixture) seedRide(id, driverID string, fare, charge float64, settleable bool) {
	ride := &domain.RideRequest{
		ID:            id,
		RiderID:       "rider-1",
		DriverID:      driverID,
		EstimatedFare: fare,
		ServiceCharge: charge,
		Status:        domain.RideStatusCompleted,
		PaymentStatus: domain.PaymentStatusCompleted,
		IsPaid:        true,
		PayoutStatus:  domain.PayoutStatusPending,
		CreatedAt:     time.Now(),
	}
	if !settleable {
		ride.IsPaid = false
		ride.PaymentStatus = domain.PaymentStatusPending
	}
	f.rides.AddRide(ride)
}

func TestSettlement_SumsFareMinusCharge(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.seedRide("ride-1", "driver-1", 200, 15, true)
	f.seedRide("ride-2", "driver-1", 300, 25, true)
	f.seedRide("ride-3", "driver-2", 150, 10, true)

	result, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.DriversSettled != 2 {
		t.Errorf("expected 2 drivers settled, got %d", result.DriversSettled)
	}
	if result.RidesSettled != 3 {
		t.Errorf("expected 3 rides settled, got %d", result.RidesSettled)
	}
	// driver-1: (200+300)-(15+25)=460, driver-2: 150-10=140.
	if result.TotalAmount != 600 {
		t.Errorf("expected total 600, got %v", result.TotalAmount)
	}

	for _, id := range []string{"ride-1", "ride-2", "ride-3"} {
		if got := f.rides.GetRide(id).PayoutStatus; got != domain.PayoutStatusSettled {
			t.Errorf("%s: expected settled payout status, got %s", id, got)
		}
	}
}

func TestSettlement_SecondRunIsNoOp(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.seedRide("ride-1", "driver-1", 200, 15, true)

	if _, err := f.svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	result, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DriversSettled != 0 || result.RidesSettled != 0 || result.TotalAmount != 0 {
		t.Errorf("expected empty second run, got %+v", result)
	}
}

func TestSettlement_SkipsUnpaidAndUnfinishedRides(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.seedRide("unpaid", "driver-1", 200, 15, false)
	f.rides.AddRide(&domain.RideRequest{
		ID:            "running",
		DriverID:      "driver-1",
		EstimatedFare: 100,
		ServiceCharge: 10,
		Status:        domain.RideStatusInProgress,
		PayoutStatus:  domain.PayoutStatusPending,
		CreatedAt:     time.Now(),
	})

	result, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DriversSettled != 0 {
		t.Errorf("expected nothing settled, got %+v", result)
	}

	if got := f.rides.GetRide("unpaid").PayoutStatus; got != domain.PayoutStatusPending {
		t.Errorf("unpaid ride must stay pending, got %s", got)
	}
}

func TestSettlement_SkipsNonPositivePayable(t *testing.T) {
	t.Parallel()

	// Degenerate set where charges swallow the fares. Nothing is marked
	// so the data stays visible for manual review.
	f := newSettlementFixture()
	f.seedRide("ride-1", "driver-1", 10, 15, true)

	result, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DriversSettled != 0 {
		t.Errorf("expected no settlement for negative payable, got %+v", result)
	}
	if got := f.rides.GetRide("ride-1").PayoutStatus; got != domain.PayoutStatusPending {
		t.Errorf("expected payout status untouched, got %s", got)
	}
}

func TestSettlement_SkipsWhenLockHeld(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.seedRide("ride-1", "driver-1", 200, 15, true)

	// Simulate a run in flight elsewhere.
	if ok, _ := f.locks.AcquireJobLock(context.Background(), "settlement", time.Minute); !ok {
		t.Fatal("seed lock acquisition failed")
	}

	result, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DriversSettled != 0 {
		t.Errorf("expected skipped run, got %+v", result)
	}
	if got := f.rides.GetRide("ride-1").PayoutStatus; got != domain.PayoutStatusPending {
		t.Errorf("skipped run must not mark rides, got %s", got)
	}

	// Once released, the next run settles normally.
	_ = f.locks.ReleaseJobLock(context.Background(), "settlement")
	result, err = f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DriversSettled != 1 {
		t.Errorf("expected settlement after release, got %+v", result)
	}
}

func TestSettlement_MarkFailure_LeavesOtherDriversSettled(t *testing.T) {
	t.Parallel()

	f := newSettlementFixture()
	f.seedRide("ride-1", "driver-1", 200, 15, true)

	f.rides.MarkSettledError = errTestInjected

	result, err := f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("run should absorb per-driver failures, got %v", err)
	}
	if result.DriversSettled != 0 {
		t.Errorf("expected failed driver skipped, got %+v", result)
	}

	// The failed set is retried on the next run.
	f.rides.MarkSettledError = nil
	result, err = f.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.DriversSettled != 1 || result.TotalAmount != 185 {
		t.Errorf("expected retry to settle 185, got %+v", result)
	}
}
