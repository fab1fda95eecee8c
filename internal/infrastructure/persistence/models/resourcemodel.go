package models

import (
	"time"

	"github.com/cordon-zt/cordon/internal/shared/constants"
)

// ResourceModel represents the database persistence model for protected
// resources.
type ResourceModel struct {
	ID          uint       `gorm:"primarykey"`
	SID         string     `gorm:"not null;size:24;uniqueIndex:idx_resource_sid"`
	AccountID   uint       `gorm:"not null;index:idx_resource_account"`
	Name        string     `gorm:"not null;size:100"`
	Address     string     `gorm:"not null;size:255"`
	AddressType string     `gorm:"not null;size:10"` // dns, cidr, ip
	DeletedAt   *time.Time `gorm:"index"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// TableName specifies the table name for GORM.
func (ResourceModel) TableName() string {
	return constants.TableResources
}

// ResourceSiteModel is the join row exposing a resource through a site.
type ResourceSiteModel struct {
	ID         uint `gorm:"primarykey"`
	ResourceID uint `gorm:"not null;uniqueIndex:idx_resource_site"`
	SiteID     uint `gorm:"not null;uniqueIndex:idx_resource_site;index:idx_resource_site_site"`
	CreatedAt  time.Time
}

// TableName specifies the table name for GORM.
func (ResourceSiteModel) TableName() string {
	return constants.TableResourceSites
}
