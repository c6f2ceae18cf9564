package model

import "time"

// UserCoins is the per-user gamification ledger. TotalEarned never decreases;
// Balance is only decreased by redemptions outside this service.
type UserCoins struct {
	UID                   string     `gorm:"column:uid;primaryKey;size:128"`
	Balance               int64      `gorm:"column:balance;not null;default:0"`
	TotalEarned           int64      `gorm:"column:total_earned;not null;default:0;index"`
	Level                 int        `gorm:"column:level;not null;default:1"`
	Experience            int64      `gorm:"column:experience;not null;default:0"`
	ExperienceToNextLevel int64      `gorm:"column:experience_to_next_level;not null;default:100"`
	Streak                int        `gorm:"column:streak;not null;default:0"`
	LastContributionDate  *time.Time `gorm:"column:last_contribution_date"`
	CreatedAt             time.Time  `gorm:"autoCreateTime"`
	UpdatedAt             time.Time  `gorm:"autoUpdateTime"`
}

func (UserCoins) TableName() string {
	return "user_coins"
}

// NewUserCoins returns the lazily-created default ledger for uid.
func NewUserCoins(uid string) *UserCoins {
	return &UserCoins{
		UID:                   uid,
		Level:                 1,
		ExperienceToNextLevel: 100,
	}
}
