package app

import (
	"context"
	"log"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"

	"locomotion/internal/config"
	"locomotion/internal/service"
)

// Scheduler drives the background jobs: the stale-pending reaper and
// the periodic settlement run.
type Scheduler struct {
	reaper     *service.ReaperService
	settlement *service.SettlementService
	cfg        config.JobsConfig
	nrApp      *newrelic.Application
}

// NewScheduler creates a new Scheduler.
func NewScheduler(
	reaper *service.ReaperService,
	settlement *service.SettlementService,
	cfg config.JobsConfig,
	nrApp *newrelic.Application,
) *Scheduler {
	return &Scheduler{
		reaper:     reaper,
		settlement: settlement,
		cfg:        cfg,
		nrApp:      nrApp,
	}
}

// Start launches the job tickers. They stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	go s.loop(ctx, "reaper", s.cfg.ReaperInterval, func(ctx context.Context) error {
		_, err := s.reaper.Run(ctx)
		return err
	})
	go s.loop(ctx, "settlement", s.cfg.SettlementInterval, func(ctx context.Context) error {
		_, err := s.settlement.Run(ctx)
		return err
	})
}

// loop runs fn on every tick until ctx is cancelled. Each run gets a
// New Relic background transaction when the agent is enabled.
func (s *Scheduler) loop(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Printf("scheduler: %s every %s", name, interval)

	for {
		select {
		case <-ctx.Done():
			log.Printf("scheduler: %s stopped", name)
			return
		case <-ticker.C:
			runCtx := ctx
			var txn *newrelic.Transaction
			if s.nrApp != nil {
				txn = s.nrApp.StartTransaction("job/" + name)
				runCtx = newrelic.NewContext(ctx, txn)
			}

			if err := fn(runCtx); err != nil {
				log.Printf("scheduler: %s run failed: %v", name, err)
				if txn != nil {
					txn.NoticeError(err)
				}
			}

			if txn != nil {
				txn.End()
			}
		}
	}
}
