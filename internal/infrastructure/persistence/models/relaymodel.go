package models

import (
	"time"

	"github.com/cordon-zt/cordon/internal/shared/constants"
)

// RelayModel represents the database persistence model for relays. A NULL
// AccountID marks a relay in the shared global fleet.
type RelayModel struct {
	ID              uint       `gorm:"primarykey"`
	SID             string     `gorm:"not null;size:24;uniqueIndex:idx_relay_sid"`
	AccountID       *uint      `gorm:"index:idx_relay_account"`
	Name            string     `gorm:"not null;size:100"`
	IPv4            string     `gorm:"size:15"`
	IPv6            string     `gorm:"size:45"`
	Port            uint16     `gorm:"not null"`
	StampSecretHash string     `gorm:"size:100"`
	DeletedAt       *time.Time `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// TableName specifies the table name for GORM.
func (RelayModel) TableName() string {
	return constants.TableRelays
}
