// Package app wires repositories and services for the API server and the
// admin CLI.
package app

import (
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/zeroup-initiative/partner-backend/internal/cache"
	"github.com/zeroup-initiative/partner-backend/internal/leaderboard"
	"github.com/zeroup-initiative/partner-backend/internal/notify"
	"github.com/zeroup-initiative/partner-backend/internal/proof"
	"github.com/zeroup-initiative/partner-backend/internal/repository"
	"github.com/zeroup-initiative/partner-backend/internal/service"
	"gorm.io/gorm"
)

type Options struct {
	DB          *gorm.DB
	Redis       *redis.Client
	Signer      proof.Signer
	AuthDeleter service.AuthUserDeleter
	Location    *time.Location
}

type Repositories struct {
	Ledger        repository.LedgerRepository
	Contributions repository.ContributionRepository
	Achievements  repository.AchievementRepository
	Notifications repository.NotificationRepository
	Users         repository.UserRepository
	Accounts      repository.AccountRepository
}

// SetDB points every repository at db.
func (r *Repositories) SetDB(db *gorm.DB) {
	r.Ledger.SetDB(db)
	r.Contributions.SetDB(db)
	r.Achievements.SetDB(db)
	r.Notifications.SetDB(db)
	r.Users.SetDB(db)
	r.Accounts.SetDB(db)
}

type App struct {
	Repos  *Repositories
	Broker notify.Broker
	// Fanout is set when Redis is configured; its Run loop must be started.
	Fanout *notify.RedisFanout

	Leaderboard   service.LeaderboardService
	Ledger        service.LedgerService
	Achievements  service.AchievementService
	Awards        service.AwardService
	Notifications service.NotificationService
	Risk          service.RiskService
	Contributions service.ContributionService
	Accounts      service.AccountService
}

// New builds the service graph. A nil Redis client selects the in-process
// locker, leaderboard and broker.
func New(opts Options) *App {
	repos := &Repositories{
		Ledger:        repository.NewLedgerRepository(opts.DB),
		Contributions: repository.NewContributionRepository(opts.DB),
		Achievements:  repository.NewAchievementRepository(opts.DB),
		Notifications: repository.NewNotificationRepository(opts.DB),
		Users:         repository.NewUserRepository(opts.DB),
		Accounts:      repository.NewAccountRepository(opts.DB),
	}
	a := &App{Repos: repos}

	var (
		locker cache.Locker
		board  *leaderboard.Board
	)
	if opts.Redis != nil {
		locker = cache.NewRedisLocker(opts.Redis)
		board = leaderboard.New(opts.Redis)
		a.Fanout = notify.NewRedisFanout(opts.Redis)
		a.Broker = a.Fanout
	} else {
		locker = cache.NewLocalLocker()
		a.Broker = notify.NewHub()
	}

	a.Leaderboard = service.NewLeaderboardService(board, repos.Ledger)
	a.Ledger = service.NewLedgerService(repos.Ledger, a.Leaderboard, a.Broker)
	a.Achievements = service.NewAchievementService(repos.Achievements, repos.Contributions, repos.Ledger, a.Broker)
	a.Awards = service.NewAwardService(repos.Ledger, a.Achievements, locker, a.Broker, a.Leaderboard, opts.Location)
	a.Notifications = service.NewNotificationService(repos.Notifications, a.Broker)
	a.Risk = service.NewRiskService(repos.Users, repos.Contributions)
	a.Contributions = service.NewContributionService(repos.Contributions, repos.Users, a.Awards, a.Achievements, a.Notifications, a.Risk, opts.Signer, opts.Location)
	a.Accounts = service.NewAccountService(repos.Accounts, opts.AuthDeleter, a.Leaderboard, a.Broker)
	return a
}
