package service

import (
	"testing"
	"time"

	"github.com/zeroup-initiative/partner-backend/internal/cache"
	"github.com/zeroup-initiative/partner-backend/internal/dbtest"
	"github.com/zeroup-initiative/partner-backend/internal/notify"
	"github.com/zeroup-initiative/partner-backend/internal/repository"
	"gorm.io/gorm"
)

type harness struct {
	db            *gorm.DB
	ledgerRepo    repository.LedgerRepository
	contribRepo   repository.ContributionRepository
	userRepo      repository.UserRepository
	notifRepo     repository.NotificationRepository
	hub           *notify.Hub
	board         LeaderboardService
	achievements  AchievementService
	awards        AwardService
	notifications NotificationService
	risk          RiskService
	contributions ContributionService
	ledger        LedgerService
	accounts      AccountService
	clock         *time.Time
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	return newHarnessWith(t, nil)
}

// newHarnessWith lets a test wrap the achievement repository the services see.
func newHarnessWith(t *testing.T, wrap func(repository.AchievementRepository) repository.AchievementRepository) *harness {
	t.Helper()
	gdb := dbtest.Open(t)
	loc := time.UTC
	achRepo := repository.NewAchievementRepository(gdb)
	if wrap != nil {
		achRepo = wrap(achRepo)
	}
	h := &harness{
		db:          gdb,
		ledgerRepo:  repository.NewLedgerRepository(gdb),
		contribRepo: repository.NewContributionRepository(gdb),
		userRepo:    repository.NewUserRepository(gdb),
		notifRepo:   repository.NewNotificationRepository(gdb),
		hub:         notify.NewHub(),
	}
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	h.clock = &now
	clock := func() time.Time { return *h.clock }

	h.board = NewLeaderboardService(nil, h.ledgerRepo)
	ach := NewAchievementService(achRepo, h.contribRepo, h.ledgerRepo, h.hub)
	ach.(*achievementService).now = clock
	h.achievements = ach
	aw := NewAwardService(h.ledgerRepo, h.achievements, cache.NewLocalLocker(), h.hub, h.board, loc)
	aw.(*awardService).now = clock
	h.awards = aw
	h.notifications = NewNotificationService(h.notifRepo, h.hub)
	h.risk = NewRiskService(h.userRepo, h.contribRepo)
	cs := NewContributionService(h.contribRepo, h.userRepo, h.awards, h.achievements, h.notifications, h.risk, nil, loc)
	cs.(*contributionService).now = clock
	h.contributions = cs
	h.ledger = NewLedgerService(h.ledgerRepo, h.board, h.hub)
	acc := NewAccountService(repository.NewAccountRepository(gdb), nil, h.board, h.hub)
	acc.(*accountService).now = clock
	h.accounts = acc
	return h
}

func (h *harness) advance(d time.Duration) {
	next := h.clock.Add(d)
	h.clock = &next
}

func (h *harness) setNow(t time.Time) {
	h.clock = &t
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met before deadline")
}
