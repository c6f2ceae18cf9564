package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeroup-initiative/partner-backend/internal/cache"
	"github.com/zeroup-initiative/partner-backend/internal/gamification"
	"github.com/zeroup-initiative/partner-backend/internal/model"
	"github.com/zeroup-initiative/partner-backend/internal/notify"
	"github.com/zeroup-initiative/partner-backend/internal/repository"
	"github.com/zeroup-initiative/partner-backend/internal/reqctx"
)

// AwardResult describes one credited contribution. Balance, TotalEarned and
// Level are read back after achievement bonuses were granted.
type AwardResult struct {
	ContributionID   string                     `json:"contributionId,omitempty"`
	AlreadyRewarded  bool                       `json:"alreadyRewarded"`
	CoinsEarned      int64                      `json:"coinsEarned"`
	ExperienceEarned int64                      `json:"experienceEarned"`
	PreviousLevel    int                        `json:"previousLevel"`
	Level            int                        `json:"level"`
	LeveledUp        bool                       `json:"leveledUp"`
	Streak           int                        `json:"streak"`
	Balance          int64                      `json:"balance"`
	TotalEarned      int64                      `json:"totalEarned"`
	Unlocked         []gamification.Achievement `json:"unlocked"`
	LeaderboardSync  BestEffort                 `json:"-"`
}

type AwardService interface {
	AwardForApprovedContribution(ctx context.Context, uid string, amount decimal.Decimal) (*AwardResult, error)
	AwardForContribution(ctx context.Context, uid, contributionID string, amount decimal.Decimal) (*AwardResult, error)
	Reevaluate(ctx context.Context, uid string) (*AwardResult, error)
}

type awardService struct {
	ledger       repository.LedgerRepository
	achievements AchievementService
	locker       cache.Locker
	broker       notify.Broker
	board        LeaderboardService
	loc          *time.Location
	now          func() time.Time
}

func NewAwardService(ledger repository.LedgerRepository, achievements AchievementService, locker cache.Locker, broker notify.Broker, board LeaderboardService, loc *time.Location) AwardService {
	if loc == nil {
		loc = time.UTC
	}
	return &awardService{
		ledger:       ledger,
		achievements: achievements,
		locker:       locker,
		broker:       broker,
		board:        board,
		loc:          loc,
		now:          time.Now,
	}
}

// AwardForApprovedContribution credits amount without tying it to a stored
// contribution, so nothing guards against crediting it twice.
func (s *awardService) AwardForApprovedContribution(ctx context.Context, uid string, amount decimal.Decimal) (*AwardResult, error) {
	return s.AwardForContribution(ctx, uid, "", amount)
}

// AwardForContribution credits an approved contribution to uid's ledger and
// then evaluates achievements. The ledger write is one transaction; with a
// contributionID it happens at most once per contribution. If achievement
// evaluation fails after the ledger committed, the result is returned along
// with the error and the evaluation can simply be retried.
func (s *awardService) AwardForContribution(ctx context.Context, uid, contributionID string, amount decimal.Decimal) (*AwardResult, error) {
	if uid == "" {
		return nil, errors.New("uid is required")
	}
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	rid := reqctx.RID(ctx)

	unlock, err := s.locker.Lock(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("lock uid=%s: %w", uid, err)
	}
	defer unlock()

	now := s.now()
	res := &AwardResult{ContributionID: contributionID}
	before, after, err := s.ledger.Apply(ctx, uid, contributionID, func(cur model.UserCoins) (repository.LedgerUpdate, error) {
		coins, err := gamification.CoinsFromContribution(amount, cur.Streak)
		if err != nil {
			return repository.LedgerUpdate{}, err
		}
		xp, err := gamification.ExperienceFromContribution(amount, cur.Streak)
		if err != nil {
			return repository.LedgerUpdate{}, err
		}
		info := gamification.LevelFromExperience(cur.TotalEarned + coins)
		return repository.LedgerUpdate{
			Coins:                 coins,
			Experience:            xp,
			Level:                 info.Level,
			ExperienceToNextLevel: info.XPToNext,
			Streak:                gamification.NextStreak(cur.Streak, cur.LastContributionDate, now, s.loc),
			LastContributionDate:  now,
		}, nil
	})
	switch {
	case errors.Is(err, repository.ErrAlreadyRewarded):
		log.Printf("[award] rid=%s uid=%s contribution=%s already rewarded", rid, uid, contributionID)
		res.AlreadyRewarded = true
	case errors.Is(err, repository.ErrOwnerDeleted):
		return nil, fmt.Errorf("award uid=%s contribution=%s: %w", uid, contributionID, ErrUserDeleted)
	case err != nil:
		return nil, fmt.Errorf("award uid=%s: %w", uid, err)
	default:
		res.CoinsEarned = after.TotalEarned - before.TotalEarned
		res.ExperienceEarned = after.Experience - before.Experience
		res.PreviousLevel = before.Level
		res.Level = after.Level
		res.LeveledUp = after.Level > before.Level
		res.Streak = after.Streak
		log.Printf("[award] rid=%s uid=%s contribution=%s coins=%d xp=%d level=%d->%d streak=%d",
			rid, uid, contributionID, res.CoinsEarned, res.ExperienceEarned, before.Level, after.Level, after.Streak)
		if err := s.broker.Touch(ctx, notify.LedgerKey(uid)); err != nil {
			log.Printf("[award] touch failed uid=%s err=%v", uid, err)
		}
	}

	return s.settle(ctx, uid, res, !res.AlreadyRewarded)
}

// Reevaluate runs achievement evaluation for uid without crediting anything.
// It completes an award whose evaluation failed after the ledger committed.
func (s *awardService) Reevaluate(ctx context.Context, uid string) (*AwardResult, error) {
	if uid == "" {
		return nil, errors.New("uid is required")
	}
	unlock, err := s.locker.Lock(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("lock uid=%s: %w", uid, err)
	}
	defer unlock()
	return s.settle(ctx, uid, &AwardResult{}, false)
}

// settle evaluates achievements, reloads the ledger into res and syncs the
// leaderboard. Callers hold the uid lock.
func (s *awardService) settle(ctx context.Context, uid string, res *AwardResult, credited bool) (*AwardResult, error) {
	unlocked, evalErr := s.achievements.EvaluateAndUnlock(ctx, uid)
	res.Unlocked = unlocked

	current, err := s.ledger.Get(ctx, uid)
	if err != nil {
		return res, fmt.Errorf("reload ledger uid=%s: %w", uid, err)
	}
	res.Balance = current.Balance
	res.TotalEarned = current.TotalEarned
	if !credited {
		res.PreviousLevel = current.Level
		res.Level = current.Level
		res.Streak = current.Streak
	}
	res.LeaderboardSync = s.board.Sync(ctx, uid, current.TotalEarned)

	if evalErr != nil {
		return res, fmt.Errorf("evaluate achievements uid=%s: %w", uid, evalErr)
	}
	return res, nil
}
