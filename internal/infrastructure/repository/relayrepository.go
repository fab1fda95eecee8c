package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cordon-zt/cordon/internal/domain/relay"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/mappers"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
	"github.com/cordon-zt/cordon/internal/shared/db"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// RelayRepositoryImpl implements the relay.Repository interface.
type RelayRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.RelayMapper
	logger logger.Interface
}

// NewRelayRepository creates a new relay repository instance.
func NewRelayRepository(gdb *gorm.DB, log logger.Interface) relay.Repository {
	return &RelayRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewRelayMapper(),
		logger: log,
	}
}

// Create inserts a new relay.
func (r *RelayRepositoryImpl) Create(ctx context.Context, rl *relay.Relay) error {
	model := r.mapper.ToModel(rl)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create relay in database", "error", err)
		return fmt.Errorf("failed to create relay: %w", err)
	}

	if err := rl.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set relay ID: %w", err)
	}
	return nil
}

// GetByID retrieves a relay by its ID. Returns nil when not found.
func (r *RelayRepositoryImpl) GetByID(ctx context.Context, relayID uint) (*relay.Relay, error) {
	var model models.RelayModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, relayID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get relay by ID", "id", relayID, "error", err)
		return nil, fmt.Errorf("failed to get relay: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// GetBySID retrieves a relay by its external identifier.
func (r *RelayRepositoryImpl) GetBySID(ctx context.Context, sid string) (*relay.Relay, error) {
	var model models.RelayModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get relay by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get relay: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// Update persists the relay's mutable fields.
func (r *RelayRepositoryImpl) Update(ctx context.Context, rl *relay.Relay) error {
	model := r.mapper.ToModel(rl)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Save(model).Error; err != nil {
		r.logger.Errorw("failed to update relay", "id", rl.ID(), "error", err)
		return fmt.Errorf("failed to update relay: %w", err)
	}
	return nil
}

// ListUsable returns the account's own relays plus the global fleet.
func (r *RelayRepositoryImpl) ListUsable(ctx context.Context, accountID uint) ([]*relay.Relay, error) {
	var relayModels []*models.RelayModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Where("account_id = ? OR account_id IS NULL", accountID).
		Scopes(db.NotDeleted()).
		Find(&relayModels).Error
	if err != nil {
		r.logger.Errorw("failed to list usable relays", "account_id", accountID, "error", err)
		return nil, fmt.Errorf("failed to list usable relays: %w", err)
	}
	return r.mapper.ToEntities(relayModels)
}
