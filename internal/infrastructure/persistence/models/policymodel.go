package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/cordon-zt/cordon/internal/shared/constants"
)

// PolicyModel represents the database persistence model for access policies.
// Conditions are stored denormalized as a JSON array; they are always read
// and written as a whole with the policy.
type PolicyModel struct {
	ID           uint           `gorm:"primarykey"`
	SID          string         `gorm:"not null;size:24;uniqueIndex:idx_policy_sid"`
	AccountID    uint           `gorm:"not null;index:idx_policy_account"`
	ActorGroupID uint           `gorm:"not null;index:idx_policy_actor_group"`
	ResourceID   uint           `gorm:"not null;index:idx_policy_resource"`
	Conditions   datatypes.JSON `gorm:"type:json"`
	Description  string         `gorm:"size:500"`
	DisabledAt   *time.Time
	DeletedAt    *time.Time `gorm:"index"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// TableName specifies the table name for GORM.
func (PolicyModel) TableName() string {
	return constants.TablePolicies
}
