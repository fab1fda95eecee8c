package repository

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/cordon-zt/cordon/internal/domain/gateway"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/mappers"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
	"github.com/cordon-zt/cordon/internal/shared/db"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// GatewayRepositoryImpl implements the gateway.Repository interface.
type GatewayRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.GatewayMapper
	logger logger.Interface
}

// NewGatewayRepository creates a new gateway repository instance.
func NewGatewayRepository(gdb *gorm.DB, log logger.Interface) gateway.Repository {
	return &GatewayRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewGatewayMapper(),
		logger: log,
	}
}

// Create inserts a new gateway.
func (r *GatewayRepositoryImpl) Create(ctx context.Context, g *gateway.Gateway) error {
	model := r.mapper.ToModel(g)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create gateway in database", "error", err)
		return fmt.Errorf("failed to create gateway: %w", err)
	}

	if err := g.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set gateway ID: %w", err)
	}
	return nil
}

// GetByID retrieves a gateway by its ID. Returns nil when not found.
func (r *GatewayRepositoryImpl) GetByID(ctx context.Context, gatewayID uint) (*gateway.Gateway, error) {
	var model models.GatewayModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, gatewayID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get gateway by ID", "id", gatewayID, "error", err)
		return nil, fmt.Errorf("failed to get gateway: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// GetBySID retrieves a gateway by its external identifier.
func (r *GatewayRepositoryImpl) GetBySID(ctx context.Context, sid string) (*gateway.Gateway, error) {
	var model models.GatewayModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get gateway by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get gateway: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// Update persists the gateway's mutable fields.
func (r *GatewayRepositoryImpl) Update(ctx context.Context, g *gateway.Gateway) error {
	model := r.mapper.ToModel(g)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Save(model).Error; err != nil {
		r.logger.Errorw("failed to update gateway", "id", g.ID(), "error", err)
		return fmt.Errorf("failed to update gateway: %w", err)
	}
	return nil
}

// ListBySite lists the site's non-deleted gateways.
func (r *GatewayRepositoryImpl) ListBySite(ctx context.Context, siteID uint) ([]*gateway.Gateway, error) {
	return r.ListBySites(ctx, []uint{siteID})
}

// ListBySites lists non-deleted gateways across several sites.
func (r *GatewayRepositoryImpl) ListBySites(ctx context.Context, siteIDs []uint) ([]*gateway.Gateway, error) {
	if len(siteIDs) == 0 {
		return nil, nil
	}

	var gatewayModels []*models.GatewayModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Where("site_id IN ?", siteIDs).
		Scopes(db.NotDeleted()).
		Find(&gatewayModels).Error
	if err != nil {
		r.logger.Errorw("failed to list gateways by sites", "site_ids", siteIDs, "error", err)
		return nil, fmt.Errorf("failed to list gateways: %w", err)
	}
	return r.mapper.ToEntities(gatewayModels)
}
