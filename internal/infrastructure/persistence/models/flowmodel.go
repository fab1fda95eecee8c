package models

import (
	"time"

	"github.com/cordon-zt/cordon/internal/shared/constants"
)

// FlowModel represents the database persistence model for authorized flows.
// Rows are insert-only; revocation sets ExpiredAt instead of deleting.
type FlowModel struct {
	ID              uint      `gorm:"primarykey"`
	SID             string    `gorm:"not null;size:24;uniqueIndex:idx_flow_sid"`
	AccountID       uint      `gorm:"not null;index:idx_flow_account"`
	ClientID        uint      `gorm:"not null;index:idx_flow_client"`
	GatewayID       uint      `gorm:"not null;index:idx_flow_gateway"`
	ResourceID      uint      `gorm:"not null;index:idx_flow_resource"`
	PolicyID        uint      `gorm:"not null;index:idx_flow_policy"`
	MembershipID    uint      `gorm:"not null;index:idx_flow_membership"`
	TokenID         uint      `gorm:"not null;index:idx_flow_token"`
	ClientRemoteIP  string    `gorm:"size:45"`
	GatewayRemoteIP string    `gorm:"size:45"`
	ClientUserAgent string    `gorm:"size:255"`
	ExpiresAt       time.Time `gorm:"not null;index:idx_flow_expires"`
	ExpiredAt       *time.Time
	CreatedAt       time.Time
}

// TableName specifies the table name for GORM.
func (FlowModel) TableName() string {
	return constants.TableFlows
}
