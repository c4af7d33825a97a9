package service

import (
	"context"
	"log"
	"time"

	"locomotion/internal/redis"
	"locomotion/internal/repository"
)

// settlementLockTTL bounds how long a run may hold the cross-process
// job lock. Correctness does not depend on the lock; the row locks
// taken per driver already prevent double settlement.
const settlementLockTTL = 10 * time.Minute

// SettlementResult reports what one settlement run processed.
type SettlementResult struct {
	DriversSettled int
	RidesSettled   int
	TotalAmount    float64
}

// SettlementService marks paid, completed rides as reconciled for
// payout. It performs no external money transfer; the actual transfer
// is a manual step outside this core.
type SettlementService struct {
	txm      repository.Atomic
	rideRepo repository.RideRepository
	// locks keeps scheduled runs from overlapping. Optional; nil skips
	// the check.
	locks redis.LockStoreInterface
}

// NewSettlementService creates a new SettlementService.
func NewSettlementService(txm repository.Atomic, rideRepo repository.RideRepository, locks redis.LockStoreInterface) *SettlementService {
	return &SettlementService{
		txm:      txm,
		rideRepo: rideRepo,
		locks:    locks,
	}
}

// Run executes one settlement pass. Each driver's settleable rides are
// summed and marked settled in one transaction, all-or-nothing per
// driver. A failure for one driver is logged and does not block the
// others; the failed set is picked up again on the next scheduled run.
func (s *SettlementService) Run(ctx context.Context) (*SettlementResult, error) {
	if s.locks != nil {
		locked, err := s.locks.AcquireJobLock(ctx, "settlement", settlementLockTTL)
		if err != nil {
			return nil, err
		}
		if !locked {
			log.Println("settlement: previous run still in progress, skipping")
			return &SettlementResult{}, nil
		}
		defer func() {
			_ = s.locks.ReleaseJobLock(ctx, "settlement")
		}()
	}

	driverIDs, err := s.rideRepo.DriversWithSettleable(ctx)
	if err != nil {
		return nil, err
	}

	result := &SettlementResult{}
	for _, driverID := range driverIDs {
		payable, rides, err := s.settleDriver(ctx, driverID)
		if err != nil {
			log.Printf("settlement: driver %s failed, will retry next run: %v", driverID, err)
			continue
		}
		if rides == 0 {
			continue
		}
		result.DriversSettled++
		result.RidesSettled += rides
		result.TotalAmount += payable
		log.Printf("settlement: driver %s payable %.2f over %d rides", driverID, payable, rides)
	}

	log.Printf("settlement: run complete, %d drivers settled, total %.2f",
		result.DriversSettled, result.TotalAmount)
	return result, nil
}

// settleDriver reads and marks one driver's settleable set in a single
// transaction so no ride can be picked up by two concurrent runs.
// Drivers with an empty set or a non-positive payable are skipped.
func (s *SettlementService) settleDriver(ctx context.Context, driverID string) (float64, int, error) {
	var payable float64
	var settled int

	err := s.txm.InTx(ctx, func(r repository.Repos) error {
		rides, err := r.Rides.ListSettleable(ctx, driverID)
		if err != nil {
			return err
		}
		if len(rides) == 0 {
			return nil
		}

		var fares, charges float64
		ids := make([]string, len(rides))
		for i, ride := range rides {
			fares += ride.EstimatedFare
			charges += ride.ServiceCharge
			ids[i] = ride.ID
		}

		amount := fares - charges
		if amount <= 0 {
			return nil
		}

		marked, err := r.Rides.MarkSettled(ctx, ids)
		if err != nil {
			return err
		}

		payable = amount
		settled = int(marked)
		return nil
	})

	return payable, settled, err
}
