package model

import "time"

type UserAchievement struct {
	ID            uint64    `gorm:"primaryKey;autoIncrement"`
	UserUID       string    `gorm:"column:user_uid;size:128;not null;uniqueIndex:idx_user_achievement"`
	AchievementID string    `gorm:"column:achievement_id;size:64;not null;uniqueIndex:idx_user_achievement"`
	UnlockedAt    time.Time `gorm:"column:unlocked_at;not null"`
	Notified      bool      `gorm:"column:notified;not null;default:false"`
}

func (UserAchievement) TableName() string {
	return "user_achievements"
}
