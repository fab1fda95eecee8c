package models

import (
	"time"

	"github.com/cordon-zt/cordon/internal/shared/constants"
)

// ClientModel represents the database persistence model for client devices.
type ClientModel struct {
	ID               uint   `gorm:"primarykey"`
	SID              string `gorm:"not null;size:24;uniqueIndex:idx_client_sid"`
	AccountID        uint   `gorm:"not null;index:idx_client_account"`
	ActorID          uint   `gorm:"not null;index:idx_client_actor"`
	Name             string `gorm:"not null;size:100"`
	PublicKey        string `gorm:"not null;size:128"`
	VerifiedAt       *time.Time
	LastSeenRemoteIP string     `gorm:"size:45"`
	LastSeenAgent    string     `gorm:"size:255"`
	LastSeenVersion  string     `gorm:"size:32"`
	DeletedAt        *time.Time `gorm:"index"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// TableName specifies the table name for GORM.
func (ClientModel) TableName() string {
	return constants.TableClients
}
