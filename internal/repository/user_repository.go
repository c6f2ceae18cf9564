package repository

import (
	"context"

	"github.com/zeroup-initiative/partner-backend/internal/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UserRepository interface {
	Ensure(ctx context.Context, u *model.User) error
	Get(ctx context.Context, uid string) (*model.User, error)
	UpdateRisk(ctx context.Context, uid string, declined int, flagged, suspended bool) error
	ListUIDs(ctx context.Context) ([]string, error)
	SetDB(db *gorm.DB)
}

type userRepository struct {
	db *gorm.DB
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Ensure inserts u when absent. For an existing user only the non-empty
// profile fields of u are written; risk fields are never touched here.
func (r *userRepository) Ensure(ctx context.Context, u *model.User) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	var cols []string
	if u.FullName != "" {
		cols = append(cols, "full_name")
	}
	if u.Email != "" {
		cols = append(cols, "email")
	}
	conflict := clause.OnConflict{Columns: []clause.Column{{Name: "uid"}}, DoNothing: true}
	if len(cols) > 0 {
		conflict = clause.OnConflict{
			Columns:   []clause.Column{{Name: "uid"}},
			DoUpdates: clause.AssignmentColumns(append(cols, "updated_at")),
		}
	}
	return r.db.WithContext(ctx).Clauses(conflict).Create(u).Error
}

func (r *userRepository) Get(ctx context.Context, uid string) (*model.User, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var u model.User
	if err := r.db.WithContext(ctx).Where("uid = ?", uid).First(&u).Error; err != nil {
		return nil, err
	}
	return &u, nil
}

func (r *userRepository) UpdateRisk(ctx context.Context, uid string, declined int, flagged, suspended bool) error {
	if r.db == nil {
		return ErrDBNotReady
	}
	u := model.User{
		UID:                        uid,
		Flagged:                    flagged,
		Suspended:                  suspended,
		DeclinedContributionsCount: declined,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "uid"}},
		DoUpdates: clause.AssignmentColumns([]string{"flagged", "suspended", "declined_contributions_count", "updated_at"}),
	}).Create(&u).Error
}

func (r *userRepository) ListUIDs(ctx context.Context) ([]string, error) {
	if r.db == nil {
		return nil, ErrDBNotReady
	}
	var uids []string
	if err := r.db.WithContext(ctx).
		Model(&model.User{}).
		Order("uid").
		Pluck("uid", &uids).Error; err != nil {
		return nil, err
	}
	return uids, nil
}

func (r *userRepository) SetDB(db *gorm.DB) {
	r.db = db
}
