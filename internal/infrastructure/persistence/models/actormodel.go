package models

import (
	"time"

	"github.com/cordon-zt/cordon/internal/shared/constants"
)

// ActorModel represents the database persistence model for actors.
type ActorModel struct {
	ID         uint   `gorm:"primarykey"`
	SID        string `gorm:"not null;size:24;uniqueIndex:idx_actor_sid"`
	AccountID  uint   `gorm:"not null;index:idx_actor_account"`
	Type       string `gorm:"not null;size:32;index:idx_actor_type"` // account_admin_user, account_user, service_account, api_client, system
	Name       string `gorm:"not null;size:100"`
	DisabledAt *time.Time
	DeletedAt  *time.Time `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM.
func (ActorModel) TableName() string {
	return constants.TableActors
}
