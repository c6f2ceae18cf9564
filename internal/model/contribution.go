package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type ContributionStatus string

const (
	ContributionStatusPending  ContributionStatus = "pending"
	ContributionStatusApproved ContributionStatus = "approved"
	ContributionStatusDeclined ContributionStatus = "declined"
)

// Contribution is a partner's claimed payment. Status moves from pending to
// approved or declined once; only RejectionReason may change afterwards.
type Contribution struct {
	ID              string             `gorm:"column:id;primaryKey;size:36" json:"id"`
	UserUID         string             `gorm:"column:user_uid;size:128;index;not null" json:"userId"`
	UserFullName    string             `gorm:"column:user_full_name;size:255" json:"userFullName"`
	Amount          decimal.Decimal    `gorm:"column:amount;type:decimal(14,2);not null" json:"amount"`
	Date            time.Time          `gorm:"column:date;not null" json:"date"`
	Description     string             `gorm:"column:description;type:text" json:"description"`
	ProofRef        string             `gorm:"column:proof_ref;type:text" json:"proofRef"`
	ProjectName     string             `gorm:"column:project_name;size:255" json:"projectName"`
	Status          ContributionStatus `gorm:"column:status;size:16;index;not null" json:"status"`
	RejectionReason *string            `gorm:"column:rejection_reason;type:text" json:"rejectionReason,omitempty"`
	DecidedAt       *time.Time         `gorm:"column:decided_at" json:"decidedAt,omitempty"`
	RewardedAt      *time.Time         `gorm:"column:rewarded_at" json:"rewardedAt,omitempty"`
	UserDeleted     bool               `gorm:"column:user_deleted;not null;default:false" json:"userDeleted"`
	UserDeletedAt   *time.Time         `gorm:"column:user_deleted_at" json:"deletedAt,omitempty"`
	CreatedAt       time.Time          `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt       time.Time          `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Contribution) TableName() string {
	return "contributions"
}
