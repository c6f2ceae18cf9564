package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zeroup-initiative/partner-backend/internal/model"
	"gorm.io/gorm"
)

// ApprovedStats aggregates a user's approved contributions.
type ApprovedStats struct {
	Count int64
	Total decimal.Decimal
}

type ContributionRepository interface {
	Create(ctx context.Context, c *model.Contribution) error
	FindByID(ctx context.Context, id string) (*model.Contribution, error)
	ListByUser(ctx context.Context, uid string) ([]model.Contribution, error)
	Decide(ctx context.Context, id string, status model.ContributionStatus, reason *string, at time.Time) (int64, error)
	UpdateRejectionReason(ctx context.Context, id string, reason string) (int64, error)
	ApprovedStats(ctx context.Context, uid string) (ApprovedStats, error)
	CountByStatus(ctx context.Context, uid string, status model.ContributionStatus) (int64, error)
	ListUIDsWithStatus(ctx context.Context, status model.ContributionStatus) ([]string, error)
	SetDB(db *gorm.DB)
}

type contributionRepository struct {
	db *gorm.DB
}

func NewContributionRepository(db *gorm.DB) ContributionRepository {
	return &contributionRepository{db: db}
}

func (r *contributionRepository) Create(ctx context.Context, c *model.Contribution) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *contributionRepository) FindByID(ctx context.Context, id string) (*model.Contribution, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var c model.Contribution
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *contributionRepository) ListByUser(ctx context.Context, uid string) ([]model.Contribution, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.Contribution
	if err := r.db.WithContext(ctx).
		Where("user_uid = ?", uid).
		Order("date DESC").
		Order("created_at DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// Decide moves a pending contribution to status. It affects zero rows when the
// contribution is missing, already decided or detached from a deleted user.
func (r *contributionRepository) Decide(ctx context.Context, id string, status model.ContributionStatus, reason *string, at time.Time) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	updates := map[string]interface{}{
		"status":     status,
		"decided_at": at,
	}
	if reason != nil {
		updates["rejection_reason"] = *reason
	}
	res := r.db.WithContext(ctx).
		Model(&model.Contribution{}).
		Where("id = ? AND status = ? AND user_deleted = ?", id, model.ContributionStatusPending, false).
		Updates(updates)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *contributionRepository) UpdateRejectionReason(ctx context.Context, id string, reason string) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	res := r.db.WithContext(ctx).
		Model(&model.Contribution{}).
		Where("id = ? AND status = ?", id, model.ContributionStatusDeclined).
		Update("rejection_reason", reason)
	if res.Error != nil {
		return 0, res.Error
	}
	return res.RowsAffected, nil
}

func (r *contributionRepository) ApprovedStats(ctx context.Context, uid string) (ApprovedStats, error) {
	if r.db == nil {
		return ApprovedStats{}, ErrDBNotReady
	}
	var row struct {
		Count int64
		Total decimal.NullDecimal
	}
	if err := r.db.WithContext(ctx).
		Model(&model.Contribution{}).
		Select("COUNT(*) AS count, SUM(amount) AS total").
		Where("user_uid = ? AND status = ?", uid, model.ContributionStatusApproved).
		Scan(&row).Error; err != nil {
		return ApprovedStats{}, err
	}
	stats := ApprovedStats{Count: row.Count, Total: decimal.Zero}
	if row.Total.Valid {
		stats.Total = row.Total.Decimal
	}
	return stats, nil
}

func (r *contributionRepository) CountByStatus(ctx context.Context, uid string, status model.ContributionStatus) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.Contribution{}).
		Where("user_uid = ? AND status = ?", uid, status).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

func (r *contributionRepository) ListUIDsWithStatus(ctx context.Context, status model.ContributionStatus) ([]string, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var uids []string
	if err := r.db.WithContext(ctx).
		Model(&model.Contribution{}).
		Where("status = ? AND user_deleted = ?", status, false).
		Distinct("user_uid").
		Order("user_uid").
		Pluck("user_uid", &uids).Error; err != nil {
		return nil, err
	}
	return uids, nil
}

func (r *contributionRepository) SetDB(db *gorm.DB) {
	r.db = db
}
