package models

import (
	"time"

	"github.com/cordon-zt/cordon/internal/shared/constants"
)

// GatewayModel represents the database persistence model for gateways.
// Location columns are nullable; a gateway that never reported coordinates
// keeps both NULL.
type GatewayModel struct {
	ID               uint       `gorm:"primarykey"`
	SID              string     `gorm:"not null;size:24;uniqueIndex:idx_gateway_sid"`
	AccountID        uint       `gorm:"not null;index:idx_gateway_account"`
	SiteID           uint       `gorm:"not null;index:idx_gateway_site"`
	Name             string     `gorm:"not null;size:100"`
	PublicKey        string     `gorm:"not null;size:128"`
	LastSeenVersion  string     `gorm:"size:32"`
	LastSeenLat      *float64   `gorm:"type:decimal(9,6)"`
	LastSeenLon      *float64   `gorm:"type:decimal(9,6)"`
	LastSeenRemoteIP string     `gorm:"size:45"`
	DeletedAt        *time.Time `gorm:"index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for GORM.
func (GatewayModel) TableName() string {
	return constants.TableGateways
}

// SiteModel represents the database persistence model for sites.
type SiteModel struct {
	ID        uint       `gorm:"primarykey"`
	SID       string     `gorm:"not null;size:24;uniqueIndex:idx_site_sid"`
	AccountID uint       `gorm:"not null;index:idx_site_account"`
	Name      string     `gorm:"not null;size:100"`
	Routing   string     `gorm:"not null;default:managed;size:20"` // managed, self_hosted, stun_only
	DeletedAt *time.Time `gorm:"index"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM.
func (SiteModel) TableName() string {
	return constants.TableSites
}
