package models

import (
	"time"

	"github.com/cordon-zt/cordon/internal/shared/constants"
)

// FeatureModel represents the database persistence model for feature flags.
type FeatureModel struct {
	ID        uint   `gorm:"primarykey"`
	AccountID uint   `gorm:"not null;uniqueIndex:idx_feature_account_key"`
	Key       string `gorm:"not null;size:64;uniqueIndex:idx_feature_account_key"`
	Enabled   bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

// TableName specifies the table name for GORM.
func (FeatureModel) TableName() string {
	return constants.TableFeatures
}
