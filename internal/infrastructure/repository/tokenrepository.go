package repository

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/cordon-zt/cordon/internal/domain/token"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/mappers"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
	"github.com/cordon-zt/cordon/internal/shared/db"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// TokenRepositoryImpl implements the token.Repository interface.
type TokenRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.TokenMapper
	logger logger.Interface
}

// NewTokenRepository creates a new token repository instance.
func NewTokenRepository(gdb *gorm.DB, log logger.Interface) token.Repository {
	return &TokenRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewTokenMapper(),
		logger: log,
	}
}

// Create inserts a new token record.
func (r *TokenRepositoryImpl) Create(ctx context.Context, t *token.Token) error {
	model := r.mapper.ToModel(t)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create token in database", "error", err)
		return fmt.Errorf("failed to create token: %w", err)
	}

	if err := t.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set token ID: %w", err)
	}
	return nil
}

// GetByID retrieves a token by its ID. Returns nil when not found.
func (r *TokenRepositoryImpl) GetByID(ctx context.Context, tokenID uint) (*token.Token, error) {
	var model models.TokenModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, tokenID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get token by ID", "id", tokenID, "error", err)
		return nil, fmt.Errorf("failed to get token: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// Update persists the token's mutable fields.
func (r *TokenRepositoryImpl) Update(ctx context.Context, t *token.Token) error {
	model := r.mapper.ToModel(t)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Save(model).Error; err != nil {
		r.logger.Errorw("failed to update token", "id", t.ID(), "error", err)
		return fmt.Errorf("failed to update token: %w", err)
	}
	return nil
}

// UseToken loads the token, rejects it when revoked or lapsed, and stamps
// its last use. A valid signature on a revoked row is still a rejection.
func (r *TokenRepositoryImpl) UseToken(ctx context.Context, tokenID uint, now time.Time) (*token.Token, error) {
	var model models.TokenModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, tokenID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, errors.NewUnauthorizedError("token not found")
		}
		r.logger.Errorw("failed to load token for use", "id", tokenID, "error", err)
		return nil, fmt.Errorf("failed to load token: %w", err)
	}

	if model.DeletedAt != nil {
		return nil, errors.NewUnauthorizedError("token revoked")
	}
	if !model.ExpiresAt.After(now) {
		return nil, errors.NewUnauthorizedError("token expired")
	}

	// Best effort; a failed stamp must not reject a valid token.
	if err := tx.Model(&model).Update("last_used_at", now).Error; err != nil {
		r.logger.Warnw("failed to stamp token use", "id", tokenID, "error", err)
	}

	return r.mapper.ToEntity(&model)
}

// DeleteExpiredBefore removes at most batch lapsed token rows.
func (r *TokenRepositoryImpl) DeleteExpiredBefore(ctx context.Context, cutoff time.Time, batch int) (int64, error) {
	tx := db.GetTxFromContext(ctx, r.db)

	var ids []uint
	err := tx.Model(&models.TokenModel{}).
		Where("expires_at < ?", cutoff).
		Limit(batch).
		Pluck("id", &ids).Error
	if err != nil {
		r.logger.Errorw("failed to select expired tokens", "error", err)
		return 0, fmt.Errorf("failed to select expired tokens: %w", err)
	}
	if len(ids) == 0 {
		return 0, nil
	}

	result := tx.Delete(&models.TokenModel{}, ids)
	if result.Error != nil {
		r.logger.Errorw("failed to delete expired tokens", "error", result.Error)
		return 0, fmt.Errorf("failed to delete expired tokens: %w", result.Error)
	}
	return result.RowsAffected, nil
}
