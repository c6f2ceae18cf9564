package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/zeroup-initiative/partner-backend/internal/model"
	"github.com/zeroup-initiative/partner-backend/internal/repository"
	"github.com/zeroup-initiative/partner-backend/internal/risk"
	"gorm.io/gorm"
)

type RiskService interface {
	Recompute(ctx context.Context, uid string) (risk.Tier, error)
	Get(ctx context.Context, uid string) (risk.Tier, error)
	ReconcileAll(ctx context.Context) (int, error)
}

type riskService struct {
	users         repository.UserRepository
	contributions repository.ContributionRepository
}

func NewRiskService(users repository.UserRepository, contributions repository.ContributionRepository) RiskService {
	return &riskService{users: users, contributions: contributions}
}

// Recompute derives the tier from the live declined count and stores it on
// the user record.
func (s *riskService) Recompute(ctx context.Context, uid string) (risk.Tier, error) {
	declined, err := s.contributions.CountByStatus(ctx, uid, model.ContributionStatusDeclined)
	if err != nil {
		return risk.Tier{}, fmt.Errorf("count declined uid=%s: %w", uid, err)
	}
	tier := risk.Classify(int(declined))
	if err := s.users.UpdateRisk(ctx, uid, tier.DeclinedCount, tier.Flagged, tier.Suspended); err != nil {
		return risk.Tier{}, fmt.Errorf("store risk uid=%s: %w", uid, err)
	}
	return tier, nil
}

// Get returns the stored projection; unknown users have the zero tier.
func (s *riskService) Get(ctx context.Context, uid string) (risk.Tier, error) {
	u, err := s.users.Get(ctx, uid)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return risk.Classify(0), nil
	}
	if err != nil {
		return risk.Tier{}, err
	}
	return risk.Tier{
		Flagged:       u.Flagged,
		Suspended:     u.Suspended,
		DeclinedCount: u.DeclinedContributionsCount,
	}, nil
}

// ReconcileAll recomputes every known user and every user with a declined
// contribution. It keeps going past individual failures and returns the
// first one.
func (s *riskService) ReconcileAll(ctx context.Context) (int, error) {
	known, err := s.users.ListUIDs(ctx)
	if err != nil {
		return 0, err
	}
	declined, err := s.contributions.ListUIDsWithStatus(ctx, model.ContributionStatusDeclined)
	if err != nil {
		return 0, err
	}
	seen := make(map[string]bool, len(known)+len(declined))
	var firstErr error
	n := 0
	for _, uid := range append(known, declined...) {
		if seen[uid] {
			continue
		}
		seen[uid] = true
		if err := ctx.Err(); err != nil {
			return n, err
		}
		if _, err := s.Recompute(ctx, uid); err != nil {
			log.Printf("[risk] reconcile failed uid=%s err=%v", uid, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		n++
	}
	return n, firstErr
}
