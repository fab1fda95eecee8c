package models

import (
	"time"

	"github.com/cordon-zt/cordon/internal/shared/constants"
)

// ActorGroupModel represents the database persistence model for actor groups.
type ActorGroupModel struct {
	ID         uint       `gorm:"primarykey"`
	SID        string     `gorm:"not null;size:24;uniqueIndex:idx_actor_group_sid"`
	AccountID  uint       `gorm:"not null;index:idx_actor_group_account"`
	Name       string     `gorm:"not null;size:100"`
	Type       string     `gorm:"not null;default:static;size:20"` // static, dynamic, managed
	ProviderID *uint      `gorm:"index:idx_actor_group_provider"`  // identity provider that syncs the group (nullable)
	DeletedAt  *time.Time `gorm:"index"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// TableName specifies the table name for GORM.
func (ActorGroupModel) TableName() string {
	return constants.TableActorGroups
}
