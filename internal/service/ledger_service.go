package service

import (
	"context"
	"log"
	"time"

	"github.com/zeroup-initiative/partner-backend/internal/gamification"
	"github.com/zeroup-initiative/partner-backend/internal/model"
	"github.com/zeroup-initiative/partner-backend/internal/notify"
	"github.com/zeroup-initiative/partner-backend/internal/repository"
)

// LedgerSnapshot is the dashboard view of a user's coins.
type LedgerSnapshot struct {
	UID                   string                 `json:"uid"`
	Balance               int64                  `json:"balance"`
	TotalEarned           int64                  `json:"totalEarned"`
	Level                 int                    `json:"level"`
	Experience            int64                  `json:"experience"`
	ExperienceToNextLevel int64                  `json:"experienceToNextLevel"`
	Streak                int                    `json:"streak"`
	LastContributionDate  *time.Time             `json:"lastContributionDate"`
	Progress              gamification.LevelInfo `json:"progress"`
	ProgressPct           float64                `json:"progressPct"`
	Rank                  int64                  `json:"rank"`
}

type LedgerService interface {
	Snapshot(ctx context.Context, uid string) (*LedgerSnapshot, error)
	Subscribe(ctx context.Context, uid string, onChange func(*LedgerSnapshot, error)) (cancel func())
}

type ledgerService struct {
	ledger repository.LedgerRepository
	board  LeaderboardService
	broker notify.Broker
}

func NewLedgerService(ledger repository.LedgerRepository, board LeaderboardService, broker notify.Broker) LedgerService {
	return &ledgerService{ledger: ledger, board: board, broker: broker}
}

func (s *ledgerService) Snapshot(ctx context.Context, uid string) (*LedgerSnapshot, error) {
	uc, err := s.ledger.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	snap := newLedgerSnapshot(uc)
	if s.board != nil {
		rank, err := s.board.Rank(ctx, uid)
		if err != nil {
			log.Printf("[ledger] rank lookup failed uid=%s err=%v", uid, err)
		}
		snap.Rank = rank
	}
	return snap, nil
}

// Subscribe delivers the snapshot now and after every ledger change.
func (s *ledgerService) Subscribe(ctx context.Context, uid string, onChange func(*LedgerSnapshot, error)) func() {
	cancel := s.broker.Watch(notify.LedgerKey(uid), func() {
		onChange(s.Snapshot(ctx, uid))
	})
	if done := ctx.Done(); done != nil {
		go func() {
			<-done
			cancel()
		}()
	}
	return cancel
}

func newLedgerSnapshot(uc *model.UserCoins) *LedgerSnapshot {
	// Progress follows the stored level; bonuses credited since the last
	// award do not move the level until the next contribution.
	progress := gamification.ProgressAtLevel(uc.Level, uc.TotalEarned)
	return &LedgerSnapshot{
		UID:                   uc.UID,
		Balance:               uc.Balance,
		TotalEarned:           uc.TotalEarned,
		Level:                 progress.Level,
		Experience:            uc.Experience,
		ExperienceToNextLevel: progress.XPToNext,
		Streak:                uc.Streak,
		LastContributionDate:  uc.LastContributionDate,
		Progress:              progress,
		ProgressPct:           progress.ProgressPct(),
	}
}
