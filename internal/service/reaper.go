package service

import (
	"context"
	"log"
	"time"

	"locomotion/internal/repository"
)

// ReaperService cancels ride requests stuck in pending beyond the
// configured timeout, freeing the rider's map and cleaning out the
// driver's request queue. Running twice back-to-back is a no-op the
// second time.
type ReaperService struct {
	rideRepo repository.RideRepository
	timeout  time.Duration
}

// NewReaperService creates a new ReaperService.
func NewReaperService(rideRepo repository.RideRepository, timeout time.Duration) *ReaperService {
	return &ReaperService{
		rideRepo: rideRepo,
		timeout:  timeout,
	}
}

// Run cancels every ride still pending past the timeout and returns
// the number cancelled. Rides in any other status are never touched.
func (s *ReaperService) Run(ctx context.Context) (int64, error) {
	cutoff := time.Now().Add(-s.timeout)

	cancelled, err := s.rideRepo.CancelStalePending(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	if cancelled > 0 {
		log.Printf("reaper: auto-cancelled %d stale ride requests", cancelled)
	}
	return cancelled, nil
}
