package repository

import (
	"context"
	"errors"
	"time"

	"github.com/zeroup-initiative/partner-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrAlreadyRewarded is returned by Apply when the guarding contribution has
// already been credited to the ledger.
var ErrAlreadyRewarded = errors.New("contribution already rewarded")

// ErrOwnerDeleted is returned by Apply when the guarding contribution belongs
// to a purged account.
var ErrOwnerDeleted = errors.New("contribution owner deleted")

// LedgerUpdate is the change an award makes to a locked ledger row. Coins and
// Experience are increments; the remaining fields are replaced.
type LedgerUpdate struct {
	Coins                 int64
	Experience            int64
	Level                 int
	ExperienceToNextLevel int64
	Streak                int
	LastContributionDate  time.Time
}

type LedgerRepository interface {
	Get(ctx context.Context, uid string) (*model.UserCoins, error)
	Apply(ctx context.Context, uid, contributionID string, plan func(current model.UserCoins) (LedgerUpdate, error)) (before, after *model.UserCoins, err error)
	Top(ctx context.Context, limit int) ([]model.UserCoins, error)
	CountAhead(ctx context.Context, totalEarned int64) (int64, error)
	Totals(ctx context.Context) (map[string]int64, error)
	SetDB(db *gorm.DB)
}

type ledgerRepository struct {
	db *gorm.DB
}

func NewLedgerRepository(db *gorm.DB) LedgerRepository {
	return &ledgerRepository{db: db}
}

// Get returns the ledger for uid, creating the default row on first access.
func (r *ledgerRepository) Get(ctx context.Context, uid string) (*model.UserCoins, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var uc model.UserCoins
	res := r.db.WithContext(ctx).Where("uid = ?", uid).Limit(1).Find(&uc)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected > 0 {
		return &uc, nil
	}
	if err := ensureLedger(r.db.WithContext(ctx), uid); err != nil {
		return nil, err
	}
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&uc).Error; err != nil {
		return nil, err
	}
	return &uc, nil
}

// Apply runs plan against the row-locked ledger and writes the result in the
// same transaction. Balance, total and experience are written as increments.
// A non-empty contributionID is stamped rewarded inside the transaction so a
// contribution can only ever be credited once, and never after its owner was
// purged.
func (r *ledgerRepository) Apply(ctx context.Context, uid, contributionID string, plan func(current model.UserCoins) (LedgerUpdate, error)) (*model.UserCoins, *model.UserCoins, error) {
	if r.db == nil {
		return nil, nil, ErrDBNotReady
	}
	var before, after model.UserCoins
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := ensureLedger(tx, uid); err != nil {
			return err
		}
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("uid = ?", uid).
			First(&before).Error; err != nil {
			return err
		}
		upd, err := plan(before)
		if err != nil {
			return err
		}
		if contributionID != "" {
			res := tx.Model(&model.Contribution{}).
				Where("id = ? AND rewarded_at IS NULL AND user_deleted = ?", contributionID, false).
				Update("rewarded_at", upd.LastContributionDate)
			if res.Error != nil {
				return res.Error
			}
			if res.RowsAffected == 0 {
				var deleted int64
				if err := tx.Model(&model.Contribution{}).
					Where("id = ? AND user_deleted = ?", contributionID, true).
					Count(&deleted).Error; err != nil {
					return err
				}
				if deleted > 0 {
					return ErrOwnerDeleted
				}
				return ErrAlreadyRewarded
			}
		}
		if err := tx.Model(&model.UserCoins{}).
			Where("uid = ?", uid).
			Updates(map[string]interface{}{
				"balance":                  gorm.Expr("balance + ?", upd.Coins),
				"total_earned":             gorm.Expr("total_earned + ?", upd.Coins),
				"experience":               gorm.Expr("experience + ?", upd.Experience),
				"level":                    upd.Level,
				"experience_to_next_level": upd.ExperienceToNextLevel,
				"streak":                   upd.Streak,
				"last_contribution_date":   upd.LastContributionDate,
			}).Error; err != nil {
			return err
		}
		return tx.Where("uid = ?", uid).First(&after).Error
	})
	if err != nil {
		return nil, nil, err
	}
	return &before, &after, nil
}

func (r *ledgerRepository) Top(ctx context.Context, limit int) ([]model.UserCoins, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	var list []model.UserCoins
	if err := r.db.WithContext(ctx).
		Order("total_earned DESC").
		Order("uid ASC").
		Limit(limit).
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// CountAhead counts ledgers with a strictly greater total.
func (r *ledgerRepository) CountAhead(ctx context.Context, totalEarned int64) (int64, error) {
	if r.db == nil {
		return 0, ErrDBNotReady
	}
	var cnt int64
	if err := r.db.WithContext(ctx).
		Model(&model.UserCoins{}).
		Where("total_earned > ?", totalEarned).
		Count(&cnt).Error; err != nil {
		return 0, err
	}
	return cnt, nil
}

// Totals maps every ledger uid to its total earned.
func (r *ledgerRepository) Totals(ctx context.Context) (map[string]int64, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var rows []struct {
		UID         string
		TotalEarned int64
	}
	if err := r.db.WithContext(ctx).
		Model(&model.UserCoins{}).
		Select("uid", "total_earned").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[string]int64, len(rows))
	for _, row := range rows {
		out[row.UID] = row.TotalEarned
	}
	return out, nil
}

func (r *ledgerRepository) SetDB(db *gorm.DB) {
	r.db = db
}

// ensureLedger inserts the default row unless one exists; concurrent callers
// collapse onto the same row.
func ensureLedger(tx *gorm.DB, uid string) error {
	return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(model.NewUserCoins(uid)).Error
}

func addBonus(tx *gorm.DB, uid string, coins int64) error {
	return tx.Model(&model.UserCoins{}).
		Where("uid = ?", uid).
		Updates(map[string]interface{}{
			"balance":      gorm.Expr("balance + ?", coins),
			"total_earned": gorm.Expr("total_earned + ?", coins),
		}).Error
}
