package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeroup-initiative/partner-backend/internal/gamification"
	"github.com/zeroup-initiative/partner-backend/internal/notify"
	"github.com/zeroup-initiative/partner-backend/internal/repository"
	"github.com/zeroup-initiative/partner-backend/internal/reqctx"
)

// AchievementProgress is a catalog entry as seen by one user.
type AchievementProgress struct {
	gamification.Achievement
	Unlocked    bool            `json:"unlocked"`
	UnlockedAt  *time.Time      `json:"unlockedAt,omitempty"`
	Current     decimal.Decimal `json:"current"`
	ProgressPct float64         `json:"progressPct"`
}

type UnlockedAchievement struct {
	gamification.Achievement
	UnlockedAt time.Time `json:"unlockedAt"`
	Notified   bool      `json:"notified"`
}

type AchievementService interface {
	Stats(ctx context.Context, uid string) (gamification.Stats, error)
	EvaluateAndUnlock(ctx context.Context, uid string) ([]gamification.Achievement, error)
	ListWithProgress(ctx context.Context, uid string) ([]AchievementProgress, error)
	ListUnlocked(ctx context.Context, uid string) ([]UnlockedAchievement, error)
	MarkNotified(ctx context.Context, uid, achievementID string) error
}

type achievementService struct {
	achievements  repository.AchievementRepository
	contributions repository.ContributionRepository
	ledger        repository.LedgerRepository
	broker        notify.Broker
	now           func() time.Time
}

func NewAchievementService(achievements repository.AchievementRepository, contributions repository.ContributionRepository, ledger repository.LedgerRepository, broker notify.Broker) AchievementService {
	return &achievementService{
		achievements:  achievements,
		contributions: contributions,
		ledger:        ledger,
		broker:        broker,
		now:           time.Now,
	}
}

// Stats gathers approved count and sum plus the ledger's streak and level.
func (s *achievementService) Stats(ctx context.Context, uid string) (gamification.Stats, error) {
	approved, err := s.contributions.ApprovedStats(ctx, uid)
	if err != nil {
		return gamification.Stats{}, fmt.Errorf("approved stats: %w", err)
	}
	uc, err := s.ledger.Get(ctx, uid)
	if err != nil {
		return gamification.Stats{}, fmt.Errorf("load ledger: %w", err)
	}
	return gamification.Stats{
		ContributionCount: approved.Count,
		TotalAmount:       approved.Total,
		StreakMonths:      uc.Streak,
		Level:             uc.Level,
	}, nil
}

// EvaluateAndUnlock unlocks every catalog entry the user now qualifies for and
// has not unlocked yet, granting each entry's points once. It returns the
// newly unlocked entries in catalog order; repeated calls return nothing new.
func (s *achievementService) EvaluateAndUnlock(ctx context.Context, uid string) ([]gamification.Achievement, error) {
	stats, err := s.Stats(ctx, uid)
	if err != nil {
		return nil, err
	}
	existing, err := s.achievements.ListByUser(ctx, uid)
	if err != nil {
		return nil, fmt.Errorf("list unlocks: %w", err)
	}
	have := make(map[string]bool, len(existing))
	for _, ua := range existing {
		have[ua.AchievementID] = true
	}

	now := s.now()
	var unlocked []gamification.Achievement
	for _, a := range gamification.Catalog() {
		if have[a.ID] || !a.Qualifies(stats) {
			continue
		}
		created, err := s.achievements.UnlockWithBonus(ctx, uid, a.ID, a.Points, now)
		if err != nil {
			return unlocked, fmt.Errorf("unlock %s: %w", a.ID, err)
		}
		if !created {
			continue
		}
		log.Printf("[achievement] rid=%s uid=%s unlocked=%s points=%d", reqctx.RID(ctx), uid, a.ID, a.Points)
		unlocked = append(unlocked, a)
	}
	if len(unlocked) > 0 {
		if err := s.broker.Touch(ctx, notify.LedgerKey(uid)); err != nil {
			log.Printf("[achievement] touch failed uid=%s err=%v", uid, err)
		}
	}
	return unlocked, nil
}

func (s *achievementService) ListWithProgress(ctx context.Context, uid string) ([]AchievementProgress, error) {
	stats, err := s.Stats(ctx, uid)
	if err != nil {
		return nil, err
	}
	existing, err := s.achievements.ListByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	at := make(map[string]time.Time, len(existing))
	for _, ua := range existing {
		at[ua.AchievementID] = ua.UnlockedAt
	}
	catalog := gamification.Catalog()
	out := make([]AchievementProgress, 0, len(catalog))
	for _, a := range catalog {
		p := AchievementProgress{Achievement: a, Current: a.Current(stats)}
		if t, ok := at[a.ID]; ok {
			t := t
			p.Unlocked = true
			p.UnlockedAt = &t
		}
		p.ProgressPct = progressPct(p.Current, a.Requirement, p.Unlocked)
		out = append(out, p)
	}
	return out, nil
}

// ListUnlocked returns the user's unlocks newest first. Unlocks whose id is no
// longer in the catalog are skipped.
func (s *achievementService) ListUnlocked(ctx context.Context, uid string) ([]UnlockedAchievement, error) {
	existing, err := s.achievements.ListByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]UnlockedAchievement, 0, len(existing))
	for _, ua := range existing {
		a, ok := gamification.AchievementByID(ua.AchievementID)
		if !ok {
			continue
		}
		out = append(out, UnlockedAchievement{Achievement: a, UnlockedAt: ua.UnlockedAt, Notified: ua.Notified})
	}
	return out, nil
}

func (s *achievementService) MarkNotified(ctx context.Context, uid, achievementID string) error {
	return s.achievements.MarkNotified(ctx, uid, achievementID)
}

func progressPct(current decimal.Decimal, requirement int64, unlocked bool) float64 {
	if unlocked || requirement <= 0 {
		return 100
	}
	pct := current.Div(decimal.NewFromInt(requirement)).Mul(decimal.NewFromInt(100)).InexactFloat64()
	if pct > 100 {
		return 100
	}
	if pct < 0 {
		return 0
	}
	return pct
}
