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

// SiteRepositoryImpl implements the gateway.SiteRepository interface.
type SiteRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.SiteMapper
	logger logger.Interface
}

// NewSiteRepository creates a new site repository instance.
func NewSiteRepository(gdb *gorm.DB, log logger.Interface) gateway.SiteRepository {
	return &SiteRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewSiteMapper(),
		logger: log,
	}
}

// Create inserts a new site.
func (r *SiteRepositoryImpl) Create(ctx context.Context, s *gateway.Site) error {
	model := r.mapper.ToModel(s)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create site in database", "error", err)
		return fmt.Errorf("failed to create site: %w", err)
	}

	if err := s.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set site ID: %w", err)
	}
	return nil
}

// GetByID retrieves a site by its ID. Returns nil when not found.
func (r *SiteRepositoryImpl) GetByID(ctx context.Context, siteID uint) (*gateway.Site, error) {
	var model models.SiteModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, siteID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get site by ID", "id", siteID, "error", err)
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// GetBySID retrieves a site by its external identifier.
func (r *SiteRepositoryImpl) GetBySID(ctx context.Context, sid string) (*gateway.Site, error) {
	var model models.SiteModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get site by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get site: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// Update persists the site's mutable fields.
func (r *SiteRepositoryImpl) Update(ctx context.Context, s *gateway.Site) error {
	model := r.mapper.ToModel(s)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Save(model).Error; err != nil {
		r.logger.Errorw("failed to update site", "id", s.ID(), "error", err)
		return fmt.Errorf("failed to update site: %w", err)
	}
	return nil
}

// ListByIDs lists non-deleted sites by ID.
func (r *SiteRepositoryImpl) ListByIDs(ctx context.Context, siteIDs []uint) ([]*gateway.Site, error) {
	if len(siteIDs) == 0 {
		return nil, nil
	}

	var siteModels []*models.SiteModel

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Where("id IN ?", siteIDs).
		Scopes(db.NotDeleted()).
		Find(&siteModels).Error
	if err != nil {
		r.logger.Errorw("failed to list sites by IDs", "site_ids", siteIDs, "error", err)
		return nil, fmt.Errorf("failed to list sites: %w", err)
	}
	return r.mapper.ToEntities(siteModels)
}
