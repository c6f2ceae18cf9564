// Package jobs runs the periodic maintenance tasks.
package jobs

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/zeroup-initiative/partner-backend/internal/service"
)

type Config struct {
	RiskReconcileInterval      time.Duration
	LeaderboardRebuildInterval time.Duration
}

// Start schedules risk reconciliation and leaderboard rebuilds. A zero
// interval disables that job. The caller must Shutdown the scheduler.
func Start(ctx context.Context, cfg Config, riskSvc service.RiskService, board service.LeaderboardService) (gocron.Scheduler, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("new scheduler: %w", err)
	}
	if cfg.RiskReconcileInterval > 0 {
		if _, err := sched.NewJob(
			gocron.DurationJob(cfg.RiskReconcileInterval),
			gocron.NewTask(ReconcileRisk, ctx, riskSvc),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithName("risk-reconcile"),
		); err != nil {
			return nil, fmt.Errorf("schedule risk reconcile: %w", err)
		}
	}
	if cfg.LeaderboardRebuildInterval > 0 {
		if _, err := sched.NewJob(
			gocron.DurationJob(cfg.LeaderboardRebuildInterval),
			gocron.NewTask(RebuildLeaderboard, ctx, board),
			gocron.WithSingletonMode(gocron.LimitModeReschedule),
			gocron.WithStartAt(gocron.WithStartImmediately()),
			gocron.WithName("leaderboard-rebuild"),
		); err != nil {
			return nil, fmt.Errorf("schedule leaderboard rebuild: %w", err)
		}
	}
	sched.Start()
	return sched, nil
}

func ReconcileRisk(ctx context.Context, riskSvc service.RiskService) {
	start := time.Now()
	n, err := riskSvc.ReconcileAll(ctx)
	if err != nil {
		log.Printf("[jobs] risk reconcile users=%d err=%v", n, err)
		return
	}
	log.Printf("[jobs] risk reconcile users=%d took=%s", n, time.Since(start))
}

func RebuildLeaderboard(ctx context.Context, board service.LeaderboardService) {
	n, err := board.Rebuild(ctx)
	if err != nil {
		log.Printf("[jobs] leaderboard rebuild err=%v", err)
		return
	}
	log.Printf("[jobs] leaderboard rebuild users=%d", n)
}
