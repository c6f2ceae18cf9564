package model

import "time"

// User holds the profile fields this service needs plus the derived risk
// projection (Flagged, Suspended, DeclinedContributionsCount).
type User struct {
	UID                        string    `gorm:"column:uid;primaryKey;size:128"`
	FullName                   string    `gorm:"column:full_name;size:255"`
	Email                      string    `gorm:"column:email;size:255"`
	Flagged                    bool      `gorm:"column:flagged;not null;default:false"`
	Suspended                  bool      `gorm:"column:suspended;not null;default:false"`
	DeclinedContributionsCount int       `gorm:"column:declined_contributions_count;not null;default:0"`
	CreatedAt                  time.Time `gorm:"autoCreateTime"`
	UpdatedAt                  time.Time `gorm:"autoUpdateTime"`
}

func (User) TableName() string {
	return "users"
}

// All returns every model managed by AutoMigrate.
func All() []interface{} {
	return []interface{}{
		&User{},
		&Contribution{},
		&UserCoins{},
		&UserAchievement{},
		&Notification{},
	}
}
