package service

import (
	"context"
	"fmt"
	"log"
	"time"

	"firebase.google.com/go/v4/auth"
	"github.com/zeroup-initiative/partner-backend/internal/notify"
	"github.com/zeroup-initiative/partner-backend/internal/repository"
	"github.com/zeroup-initiative/partner-backend/internal/reqctx"
)

// AuthUserDeleter removes the sign-in account. *auth.Client satisfies it.
type AuthUserDeleter interface {
	DeleteUser(ctx context.Context, uid string) error
}

type AccountService interface {
	Purge(ctx context.Context, uid string) (repository.PurgeResult, error)
}

type accountService struct {
	accounts repository.AccountRepository
	auth     AuthUserDeleter
	board    LeaderboardService
	broker   notify.Broker
	now      func() time.Time
}

// NewAccountService builds the purge workflow. authDeleter may be nil, in
// which case only stored data is removed.
func NewAccountService(accounts repository.AccountRepository, authDeleter AuthUserDeleter, board LeaderboardService, broker notify.Broker) AccountService {
	return &accountService{accounts: accounts, auth: authDeleter, board: board, broker: broker, now: time.Now}
}

// Purge deletes the sign-in account, then the user's notifications, unlocks,
// ledger and profile, keeping their contributions redacted.
func (s *accountService) Purge(ctx context.Context, uid string) (repository.PurgeResult, error) {
	if uid == "" {
		return repository.PurgeResult{}, ErrNotFound
	}
	if s.auth != nil {
		if err := s.auth.DeleteUser(ctx, uid); err != nil && !auth.IsUserNotFound(err) {
			return repository.PurgeResult{}, fmt.Errorf("delete auth user uid=%s: %w", uid, err)
		}
	}
	res, err := s.accounts.Purge(ctx, uid, s.now().UTC())
	if err != nil {
		return repository.PurgeResult{}, fmt.Errorf("purge uid=%s: %w", uid, err)
	}
	log.Printf("[account] rid=%s purged uid=%s notifications=%d achievements=%d ledger=%d contributions=%d",
		reqctx.RID(ctx), uid, res.Notifications, res.Achievements, res.Ledger, res.Contributions)
	s.board.Remove(ctx, uid)
	for _, key := range []string{notify.NotificationsKey(uid), notify.LedgerKey(uid)} {
		if err := s.broker.Touch(ctx, key); err != nil {
			log.Printf("[account] touch failed key=%s err=%v", key, err)
		}
	}
	return res, nil
}
