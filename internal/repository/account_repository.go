package repository

import (
	"context"
	"time"

	"github.com/zeroup-initiative/partner-backend/internal/model"
	"gorm.io/gorm"
)

const deletedNameSuffix = " (Deleted)"

// PurgeResult counts the rows a purge touched.
type PurgeResult struct {
	Notifications int64 `json:"notifications"`
	Achievements  int64 `json:"achievements"`
	Ledger        int64 `json:"ledger"`
	Contributions int64 `json:"contributions"`
	User          int64 `json:"user"`
}

type AccountRepository interface {
	Purge(ctx context.Context, uid string, at time.Time) (PurgeResult, error)
	SetDB(db *gorm.DB)
}

type accountRepository struct {
	db *gorm.DB
}

func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Purge removes everything owned by uid. Contributions are kept for the audit
// trail but detached: marked user_deleted and their name suffixed.
func (r *accountRepository) Purge(ctx context.Context, uid string, at time.Time) (PurgeResult, error) {
	if r.db == nil {
		return PurgeResult{}, ErrDBNotReady
	}
	var out PurgeResult
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("user_uid = ?", uid).Delete(&model.Notification{})
		if res.Error != nil {
			return res.Error
		}
		out.Notifications = res.RowsAffected

		res = tx.Where("user_uid = ?", uid).Delete(&model.UserAchievement{})
		if res.Error != nil {
			return res.Error
		}
		out.Achievements = res.RowsAffected

		res = tx.Where("uid = ?", uid).Delete(&model.UserCoins{})
		if res.Error != nil {
			return res.Error
		}
		out.Ledger = res.RowsAffected

		var owned []model.Contribution
		if err := tx.Select("id", "user_full_name").
			Where("user_uid = ? AND user_deleted = ?", uid, false).
			Find(&owned).Error; err != nil {
			return err
		}
		for _, c := range owned {
			if err := tx.Model(&model.Contribution{}).
				Where("id = ?", c.ID).
				Updates(map[string]interface{}{
					"user_deleted":    true,
					"user_deleted_at": at,
					"user_full_name":  c.UserFullName + deletedNameSuffix,
				}).Error; err != nil {
				return err
			}
		}
		out.Contributions = int64(len(owned))

		res = tx.Where("uid = ?", uid).Delete(&model.User{})
		if res.Error != nil {
			return res.Error
		}
		out.User = res.RowsAffected
		return nil
	})
	if err != nil {
		return PurgeResult{}, err
	}
	return out, nil
}

func (r *accountRepository) SetDB(db *gorm.DB) {
	r.db = db
}
