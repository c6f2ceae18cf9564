package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/zeroup-initiative/partner-backend/internal/model"
	"github.com/zeroup-initiative/partner-backend/internal/proof"
	"github.com/zeroup-initiative/partner-backend/internal/repository"
	"github.com/zeroup-initiative/partner-backend/internal/reqctx"
	"github.com/zeroup-initiative/partner-backend/internal/risk"
	"gorm.io/gorm"
)

type SubmitInput struct {
	Amount      decimal.Decimal
	Date        time.Time
	Description string
	ProofRef    string
	ProjectName string
	FullName    string
	Email       string
}

// ContributionView is a contribution with a browsable proof link.
type ContributionView struct {
	model.Contribution
	ProofURL string `json:"proofUrl,omitempty"`
}

// ContributionSummary feeds the dashboard stat cards.
type ContributionSummary struct {
	VerifiedTotal     decimal.Decimal `json:"verifiedTotal"`
	VerifiedCount     int             `json:"verifiedCount"`
	PendingTotal      decimal.Decimal `json:"pendingTotal"`
	PendingCount      int             `json:"pendingCount"`
	DeclinedCount     int             `json:"declinedCount"`
	ThisMonthVerified decimal.Decimal `json:"thisMonthVerified"`
	ThisMonthCount    int             `json:"thisMonthCount"`
}

type ApprovalResult struct {
	Contribution *model.Contribution `json:"contribution"`
	Award        *AwardResult        `json:"award"`
	Notify       BestEffort          `json:"-"`
}

type DeclineResult struct {
	Contribution *model.Contribution `json:"contribution"`
	Risk         risk.Tier           `json:"risk"`
	Notify       BestEffort          `json:"-"`
}

type ContributionService interface {
	Submit(ctx context.Context, uid string, in SubmitInput) (*model.Contribution, error)
	ListMine(ctx context.Context, uid string) ([]ContributionView, error)
	Summary(ctx context.Context, uid string) (*ContributionSummary, error)
	Approve(ctx context.Context, id string) (*ApprovalResult, error)
	Decline(ctx context.Context, id string, reason string) (*DeclineResult, error)
	SettleAchievements(ctx context.Context, uid string) (*AwardResult, BestEffort, error)
	UpdateRejectionReason(ctx context.Context, id string, reason string) (*model.Contribution, error)
	ExportCSV(ctx context.Context, uid string, w io.Writer) error
}

type contributionService struct {
	contributions repository.ContributionRepository
	users         repository.UserRepository
	awards        AwardService
	achievements  AchievementService
	notifications NotificationService
	risk          RiskService
	signer        proof.Signer
	loc           *time.Location
	now           func() time.Time
}

func NewContributionService(
	contributions repository.ContributionRepository,
	users repository.UserRepository,
	awards AwardService,
	achievements AchievementService,
	notifications NotificationService,
	riskSvc RiskService,
	signer proof.Signer,
	loc *time.Location,
) ContributionService {
	if signer == nil {
		signer = proof.Passthrough{}
	}
	if loc == nil {
		loc = time.UTC
	}
	return &contributionService{
		contributions: contributions,
		users:         users,
		awards:        awards,
		achievements:  achievements,
		notifications: notifications,
		risk:          riskSvc,
		signer:        signer,
		loc:           loc,
		now:           time.Now,
	}
}

// Submit records a pending contribution. Suspended users are refused.
func (s *contributionService) Submit(ctx context.Context, uid string, in SubmitInput) (*model.Contribution, error) {
	if uid == "" {
		return nil, errors.New("uid is required")
	}
	if !in.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if err := s.users.Ensure(ctx, &model.User{UID: uid, FullName: in.FullName, Email: in.Email}); err != nil {
		return nil, fmt.Errorf("ensure user: %w", err)
	}
	tier, err := s.risk.Get(ctx, uid)
	if err != nil {
		return nil, err
	}
	if tier.Suspended {
		return nil, ErrSuspended
	}
	date := in.Date
	if date.IsZero() {
		date = s.now()
	}
	c := &model.Contribution{
		ID:           uuid.NewString(),
		UserUID:      uid,
		UserFullName: strings.TrimSpace(in.FullName),
		Amount:       in.Amount,
		Date:         date.UTC(),
		Description:  strings.TrimSpace(in.Description),
		ProofRef:     strings.TrimSpace(in.ProofRef),
		ProjectName:  strings.TrimSpace(in.ProjectName),
		Status:       model.ContributionStatusPending,
	}
	if err := s.contributions.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create contribution: %w", err)
	}
	log.Printf("[contribution] rid=%s uid=%s submitted id=%s amount=%s", reqctx.RID(ctx), uid, c.ID, c.Amount.String())
	return c, nil
}

func (s *contributionService) ListMine(ctx context.Context, uid string) ([]ContributionView, error) {
	list, err := s.contributions.ListByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	out := make([]ContributionView, 0, len(list))
	for _, c := range list {
		v := ContributionView{Contribution: c}
		if c.ProofRef != "" {
			u, err := s.signer.URL(ctx, c.ProofRef)
			if err != nil {
				log.Printf("[contribution] sign proof failed id=%s err=%v", c.ID, err)
			}
			v.ProofURL = u
		}
		out = append(out, v)
	}
	return out, nil
}

func (s *contributionService) Summary(ctx context.Context, uid string) (*ContributionSummary, error) {
	list, err := s.contributions.ListByUser(ctx, uid)
	if err != nil {
		return nil, err
	}
	return summarize(list, s.now(), s.loc), nil
}

func summarize(list []model.Contribution, now time.Time, loc *time.Location) *ContributionSummary {
	sum := &ContributionSummary{
		VerifiedTotal:     decimal.Zero,
		PendingTotal:      decimal.Zero,
		ThisMonthVerified: decimal.Zero,
	}
	n := now.In(loc)
	for _, c := range list {
		switch c.Status {
		case model.ContributionStatusApproved:
			sum.VerifiedTotal = sum.VerifiedTotal.Add(c.Amount)
			sum.VerifiedCount++
			d := c.Date.In(loc)
			if d.Year() == n.Year() && d.Month() == n.Month() {
				sum.ThisMonthVerified = sum.ThisMonthVerified.Add(c.Amount)
				sum.ThisMonthCount++
			}
		case model.ContributionStatusPending:
			sum.PendingTotal = sum.PendingTotal.Add(c.Amount)
			sum.PendingCount++
		case model.ContributionStatusDeclined:
			sum.DeclinedCount++
		}
	}
	return sum
}

// Approve marks a pending contribution approved and credits it. Approving an
// approved contribution retries the credit and achievement evaluation without
// crediting twice; a declined one is ErrAlreadyDecided and one whose owner was
// purged is ErrUserDeleted. Notifications are best-effort.
func (s *contributionService) Approve(ctx context.Context, id string) (*ApprovalResult, error) {
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserDeleted {
		return nil, ErrUserDeleted
	}
	if !c.Amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	n, err := s.contributions.Decide(ctx, id, model.ContributionStatusApproved, nil, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("approve %s: %w", id, err)
	}
	if n == 0 {
		if c, err = s.find(ctx, id); err != nil {
			return nil, err
		}
		if c.UserDeleted {
			return nil, ErrUserDeleted
		}
		if c.Status != model.ContributionStatusApproved {
			return nil, ErrAlreadyDecided
		}
		log.Printf("[contribution] rid=%s id=%s retrying award", reqctx.RID(ctx), id)
	}

	award, awardErr := s.awards.AwardForContribution(ctx, c.UserUID, c.ID, c.Amount)
	if award == nil {
		return nil, awardErr
	}
	c, err = s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	res := &ApprovalResult{Contribution: c, Award: award}

	efforts := []BestEffort{}
	if !award.AlreadyRewarded {
		_, err = s.notifications.ContributionApproved(ctx, c.UserUID, c.Amount, c.ProjectName)
		efforts = append(efforts, bestEffort(ctx, "approval notification id="+id, err))
	}
	efforts = append(efforts, s.notifyPendingBadges(ctx, c.UserUID))
	res.Notify = joinBestEffort(efforts...)
	return res, awardErr
}

// SettleAchievements re-runs achievement evaluation for uid and sends any
// badge notification that has not gone out yet.
func (s *contributionService) SettleAchievements(ctx context.Context, uid string) (*AwardResult, BestEffort, error) {
	award, err := s.awards.Reevaluate(ctx, uid)
	if award == nil {
		return nil, BestEffort{}, err
	}
	return award, s.notifyPendingBadges(ctx, uid), err
}

// notifyPendingBadges sends a badge notification for every unlock not yet
// marked notified, then marks it.
func (s *contributionService) notifyPendingBadges(ctx context.Context, uid string) BestEffort {
	unlocked, err := s.achievements.ListUnlocked(ctx, uid)
	if err != nil {
		return bestEffort(ctx, "list unlocks uid="+uid, err)
	}
	efforts := []BestEffort{}
	for _, ua := range unlocked {
		if ua.Notified {
			continue
		}
		if _, err := s.notifications.BadgeEarned(ctx, uid, ua.Title); err != nil {
			efforts = append(efforts, bestEffort(ctx, "badge notification "+ua.ID, err))
			continue
		}
		efforts = append(efforts, bestEffort(ctx, "mark notified "+ua.ID, s.achievements.MarkNotified(ctx, uid, ua.ID)))
	}
	return joinBestEffort(efforts...)
}

// Decline marks a pending contribution declined, notifies the owner and
// recomputes their risk tier.
func (s *contributionService) Decline(ctx context.Context, id string, reason string) (*DeclineResult, error) {
	reason = strings.TrimSpace(reason)
	var reasonPtr *string
	if reason != "" {
		reasonPtr = &reason
	}
	n, err := s.contributions.Decide(ctx, id, model.ContributionStatusDeclined, reasonPtr, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("decline %s: %w", id, err)
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserDeleted {
		return nil, ErrUserDeleted
	}
	if n == 0 {
		return nil, ErrAlreadyDecided
	}
	tier, err := s.risk.Recompute(ctx, c.UserUID)
	if err != nil {
		return nil, err
	}
	if tier.Suspended {
		log.Printf("[risk] rid=%s uid=%s suspended declined=%d", reqctx.RID(ctx), c.UserUID, tier.DeclinedCount)
	} else if tier.Flagged {
		log.Printf("[risk] rid=%s uid=%s flagged declined=%d", reqctx.RID(ctx), c.UserUID, tier.DeclinedCount)
	}
	_, err = s.notifications.ContributionRejected(ctx, c.UserUID, c.Amount, reason)
	return &DeclineResult{
		Contribution: c,
		Risk:         tier,
		Notify:       bestEffort(ctx, "rejection notification id="+id, err),
	}, nil
}

// UpdateRejectionReason edits the reason on a declined contribution.
func (s *contributionService) UpdateRejectionReason(ctx context.Context, id string, reason string) (*model.Contribution, error) {
	n, err := s.contributions.UpdateRejectionReason(ctx, id, strings.TrimSpace(reason))
	if err != nil {
		return nil, err
	}
	c, err := s.find(ctx, id)
	if err != nil {
		return nil, err
	}
	if n == 0 && c.Status != model.ContributionStatusDeclined {
		return nil, ErrNotDeclined
	}
	return c, nil
}

var csvHeader = []string{"id", "date", "project", "amount", "status", "rejection_reason", "description"}

func (s *contributionService) ExportCSV(ctx context.Context, uid string, w io.Writer) error {
	list, err := s.contributions.ListByUser(ctx, uid)
	if err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, c := range list {
		reason := ""
		if c.RejectionReason != nil {
			reason = *c.RejectionReason
		}
		if err := cw.Write([]string{
			c.ID,
			c.Date.In(s.loc).Format("2006-01-02"),
			c.ProjectName,
			c.Amount.StringFixed(2),
			string(c.Status),
			reason,
			c.Description,
		}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func (s *contributionService) find(ctx context.Context, id string) (*model.Contribution, error) {
	c, err := s.contributions.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return c, nil
}
