package models

import (
	"time"

	"github.com/cordon-zt/cordon/internal/shared/constants"
)

// MembershipModel represents the database persistence model for group
// memberships. A membership is a hard row; removal deletes it.
type MembershipModel struct {
	ID        uint   `gorm:"primarykey"`
	SID       string `gorm:"not null;size:24;uniqueIndex:idx_membership_sid"`
	AccountID uint   `gorm:"not null;index:idx_membership_account"`
	ActorID   uint   `gorm:"not null;uniqueIndex:idx_membership_actor_group"`
	GroupID   uint   `gorm:"not null;uniqueIndex:idx_membership_actor_group;index:idx_membership_group"`
	CreatedAt time.Time
}

// TableName specifies the table name for GORM.
func (MembershipModel) TableName() string {
	return constants.TableMemberships
}
