package models

import (
	"time"

	"github.com/cordon-zt/cordon/internal/shared/constants"
)

// TokenModel represents the database persistence model for issued tokens.
// The signed credential itself is never stored; the row exists so a token
// can be revoked and its last use audited.
type TokenModel struct {
	ID         uint      `gorm:"primarykey"`
	SID        string    `gorm:"not null;size:24;uniqueIndex:idx_token_sid"`
	AccountID  uint      `gorm:"not null;index:idx_token_account"`
	ActorID    uint      `gorm:"not null;index:idx_token_actor"`
	Type       string    `gorm:"not null;size:20"` // browser, client, gateway_group, relay_group, api_client
	ExpiresAt  time.Time `gorm:"not null;index:idx_token_expires"`
	LastUsedAt *time.Time
	DeletedAt  *time.Time `gorm:"index"`
	CreatedAt  time.Time
}

// TableName specifies the table name for GORM.
func (TokenModel) TableName() string {
	return constants.TableTokens
}
