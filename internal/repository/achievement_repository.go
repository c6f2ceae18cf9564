package repository

import (
	"context"
	"time"

	"github.com/zeroup-initiative/partner-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AchievementRepository interface {
	ListByUser(ctx context.Context, uid string) ([]model.UserAchievement, error)
	UnlockWithBonus(ctx context.Context, uid, achievementID string, points int64, at time.Time) (bool, error)
	MarkNotified(ctx context.Context, uid, achievementID string) error
	SetDB(db *gorm.DB)
}

type achievementRepository struct {
	db *gorm.DB
}

func NewAchievementRepository(db *gorm.DB) AchievementRepository {
	return &achievementRepository{db: db}
}

func (r *achievementRepository) ListByUser(ctx context.Context, uid string) ([]model.UserAchievement, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var list []model.UserAchievement
	if err := r.db.WithContext(ctx).
		Where("user_uid = ?", uid).
		Order("unlocked_at DESC").
		Order("id DESC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

// UnlockWithBonus inserts the (uid, achievementID) unlock and, only when the
// row is new, increments the ledger by points in the same transaction. A
// duplicate unlock reports false without error.
func (r *achievementRepository) UnlockWithBonus(ctx context.Context, uid, achievementID string, points int64, at time.Time) (bool, error) {
	if r.db == nil {
		return false, ErrDBNotReady
	}
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&model.UserAchievement{
			UserUID:       uid,
			AchievementID: achievementID,
			UnlockedAt:    at,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		created = true
		if points <= 0 {
			return nil
		}
		if err := ensureLedger(tx, uid); err != nil {
			return err
		}
		return addBonus(tx, uid, points)
	})
	if err != nil {
		return false, err
	}
	return created, nil
}

func (r *achievementRepository) MarkNotified(ctx context.Context, uid, achievementID string) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	return r.db.WithContext(ctx).
		Model(&model.UserAchievement{}).
		Where("user_uid = ? AND achievement_id = ?", uid, achievementID).
		Update("notified", true).Error
}

func (r *achievementRepository) SetDB(db *gorm.DB) {
	r.db = db
}
