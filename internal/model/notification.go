package model

import (
	"time"

	"gorm.io/datatypes"
)

type NotificationType string

const (
	NotificationContributionApproved NotificationType = "contribution_approved"
	NotificationContributionRejected NotificationType = "contribution_rejected"
	NotificationNewProject           NotificationType = "new_project"
	NotificationBadgeEarned          NotificationType = "badge_earned"
	NotificationSystem               NotificationType = "system"
)

type Notification struct {
	ID        uint64            `gorm:"primaryKey;autoIncrement"`
	UserUID   string            `gorm:"column:user_uid;size:128;index;not null"`
	Type      NotificationType  `gorm:"column:type;size:64;not null"`
	Title     string            `gorm:"column:title;size:255"`
	Message   string            `gorm:"column:message;type:text"`
	Read      bool              `gorm:"column:is_read;not null;default:false;index"`
	Link      *string           `gorm:"column:link;size:255"`
	Metadata  datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt time.Time         `gorm:"autoCreateTime;index"`
}

func (Notification) TableName() string {
	return "notifications"
}
