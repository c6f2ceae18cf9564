package service

import (
	"context"
	"fmt"

	"github.com/zeroup-initiative/partner-backend/internal/leaderboard"
	"github.com/zeroup-initiative/partner-backend/internal/repository"
)

type LeaderboardService interface {
	Top(ctx context.Context, n int) ([]leaderboard.Entry, error)
	Rank(ctx context.Context, uid string) (int64, error)
	Sync(ctx context.Context, uid string, totalEarned int64) BestEffort
	Remove(ctx context.Context, uid string) BestEffort
	Rebuild(ctx context.Context) (int, error)
}

// leaderboardService reads the Redis board when one is configured and the
// ledger table otherwise.
type leaderboardService struct {
	board  *leaderboard.Board
	ledger repository.LedgerRepository
}

func NewLeaderboardService(board *leaderboard.Board, ledger repository.LedgerRepository) LeaderboardService {
	return &leaderboardService{board: board, ledger: ledger}
}

func (s *leaderboardService) Top(ctx context.Context, n int) ([]leaderboard.Entry, error) {
	if s.board != nil {
		return s.board.Top(ctx, n)
	}
	list, err := s.ledger.Top(ctx, n)
	if err != nil {
		return nil, err
	}
	out := make([]leaderboard.Entry, 0, len(list))
	for i, uc := range list {
		out = append(out, leaderboard.Entry{Rank: int64(i + 1), UID: uc.UID, TotalEarned: uc.TotalEarned})
	}
	return out, nil
}

func (s *leaderboardService) Rank(ctx context.Context, uid string) (int64, error) {
	if s.board != nil {
		return s.board.Rank(ctx, uid)
	}
	uc, err := s.ledger.Get(ctx, uid)
	if err != nil {
		return 0, err
	}
	ahead, err := s.ledger.CountAhead(ctx, uc.TotalEarned)
	if err != nil {
		return 0, err
	}
	return ahead + 1, nil
}

func (s *leaderboardService) Sync(ctx context.Context, uid string, totalEarned int64) BestEffort {
	if s.board == nil {
		return BestEffort{}
	}
	return bestEffort(ctx, "leaderboard sync uid="+uid, s.board.Update(ctx, uid, totalEarned))
}

func (s *leaderboardService) Remove(ctx context.Context, uid string) BestEffort {
	if s.board == nil {
		return BestEffort{}
	}
	return bestEffort(ctx, "leaderboard remove uid="+uid, s.board.Remove(ctx, uid))
}

// Rebuild reloads the board from the ledger table. Without Redis there is
// nothing to rebuild.
func (s *leaderboardService) Rebuild(ctx context.Context) (int, error) {
	if s.board == nil {
		return 0, nil
	}
	totals, err := s.ledger.Totals(ctx)
	if err != nil {
		return 0, fmt.Errorf("load totals: %w", err)
	}
	if err := s.board.Rebuild(ctx, totals); err != nil {
		return 0, err
	}
	return len(totals), nil
}
