package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/cordon-zt/cordon/internal/domain/feature"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/mappers"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
	"github.com/cordon-zt/cordon/internal/shared/db"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// FeatureRepositoryImpl implements the feature.Repository interface.
type FeatureRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.FeatureMapper
	logger logger.Interface
}

// NewFeatureRepository creates a new feature flag repository instance.
func NewFeatureRepository(gdb *gorm.DB, log logger.Interface) feature.Repository {
	return &FeatureRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewFeatureMapper(),
		logger: log,
	}
}

// Get retrieves the flag row for (account, key). Returns nil when the
// account has no explicit setting.
func (r *FeatureRepositoryImpl) Get(ctx context.Context, accountID uint, key feature.Key) (*feature.Flag, error) {
	var model models.FeatureModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Where("account_id = ? AND `key` = ?", accountID, key.String()).First(&model).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get feature flag", "account_id", accountID, "key", key, "error", err)
		return nil, fmt.Errorf("failed to get feature flag: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// Upsert writes the flag row, replacing an existing setting for the pair.
func (r *FeatureRepositoryImpl) Upsert(ctx context.Context, flag *feature.Flag) error {
	model := r.mapper.ToModel(flag)

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "account_id"}, {Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"enabled", "updated_at"}),
	}).Create(model).Error
	if err != nil {
		r.logger.Errorw("failed to upsert feature flag", "account_id", flag.AccountID(), "key", flag.Key(), "error", err)
		return fmt.Errorf("failed to upsert feature flag: %w", err)
	}

	if flag.ID() == 0 {
		if err := flag.SetID(model.ID); err != nil {
			return fmt.Errorf("failed to set feature flag ID: %w", err)
		}
	}
	return nil
}

// ListByAccount lists the account's explicit flag rows.
func (r *FeatureRepositoryImpl) ListByAccount(ctx context.Context, accountID uint) ([]*feature.Flag, error) {
	var featureModels []*models.FeatureModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Scopes(db.AccountScoped(accountID)).Find(&featureModels).Error; err != nil {
		r.logger.Errorw("failed to list feature flags", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to list feature flags: %w", err)
	}
	return r.mapper.ToEntities(featureModels)
}
