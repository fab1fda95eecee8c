package repository

import (
	"context"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/cordon-zt/cordon/internal/domain/resource"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/mappers"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
	"github.com/cordon-zt/cordon/internal/shared/db"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// ResourceRepositoryImpl implements the resource.Repository interface.
type ResourceRepositoryImpl struct {
	db     *gorm.DB
	mapper mappers.ResourceMapper
	logger logger.Interface
}

// NewResourceRepository creates a new resource repository instance.
func NewResourceRepository(gdb *gorm.DB, log logger.Interface) resource.Repository {
	return &ResourceRepositoryImpl{
		db:     gdb,
		mapper: mappers.NewResourceMapper(),
		logger: log,
	}
}

// Create inserts a new resource.
func (r *ResourceRepositoryImpl) Create(ctx context.Context, res *resource.Resource) error {
	model := r.mapper.ToModel(res)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		r.logger.Errorw("failed to create resource in database", "error", err)
		return fmt.Errorf("failed to create resource: %w", err)
	}

	if err := res.SetID(model.ID); err != nil {
		return fmt.Errorf("failed to set resource ID: %w", err)
	}
	return nil
}

// GetByID retrieves a resource by its ID. Returns nil when not found.
func (r *ResourceRepositoryImpl) GetByID(ctx context.Context, resourceID uint) (*resource.Resource, error) {
	var model models.ResourceModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.First(&model, resourceID).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get resource by ID", "id", resourceID, "error", err)
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// GetBySID retrieves a resource by its external identifier.
func (r *ResourceRepositoryImpl) GetBySID(ctx context.Context, sid string) (*resource.Resource, error) {
	var model models.ResourceModel

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Where("sid = ?", sid).First(&model).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		r.logger.Errorw("failed to get resource by SID", "sid", sid, "error", err)
		return nil, fmt.Errorf("failed to get resource: %w", err)
	}
	return r.mapper.ToEntity(&model)
}

// Update persists the resource's mutable fields.
func (r *ResourceRepositoryImpl) Update(ctx context.Context, res *resource.Resource) error {
	model := r.mapper.ToModel(res)

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Save(model).Error; err != nil {
		r.logger.Errorw("failed to update resource", "id", res.ID(), "error", err)
		return fmt.Errorf("failed to update resource: %w", err)
	}
	return nil
}

// ConnectSite exposes the resource through a site.
func (r *ResourceRepositoryImpl) ConnectSite(ctx context.Context, resourceID, siteID uint) error {
	model := &models.ResourceSiteModel{ResourceID: resourceID, SiteID: siteID}

	tx := db.GetTxFromContext(ctx, r.db)
	if err := tx.Create(model).Error; err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") || strings.Contains(err.Error(), "UNIQUE constraint") {
			return errors.NewConflictError("resource is already connected to the site")
		}
		r.logger.Errorw("failed to connect resource to site", "resource_id", resourceID, "site_id", siteID, "error", err)
		return fmt.Errorf("failed to connect resource to site: %w", err)
	}
	return nil
}

// DisconnectSite removes the resource's exposure through a site.
func (r *ResourceRepositoryImpl) DisconnectSite(ctx context.Context, resourceID, siteID uint) error {
	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.
		Where("resource_id = ? AND site_id = ?", resourceID, siteID).
		Delete(&models.ResourceSiteModel{}).Error
	if err != nil {
		r.logger.Errorw("failed to disconnect resource from site", "resource_id", resourceID, "site_id", siteID, "error", err)
		return fmt.Errorf("failed to disconnect resource from site: %w", err)
	}
	return nil
}

// SiteIDs returns the sites the resource is exposed through.
func (r *ResourceRepositoryImpl) SiteIDs(ctx context.Context, resourceID uint) ([]uint, error) {
	var siteIDs []uint

	tx := db.GetTxFromContext(ctx, r.db)
	err := tx.Model(&models.ResourceSiteModel{}).
		Where("resource_id = ?", resourceID).
		Pluck("site_id", &siteIDs).Error
	if err != nil {
		r.logger.Errorw("failed to list resource sites", "resource_id", resourceID, "error", err)
		return nil, fmt.Errorf("failed to list resource sites: %w", err)
	}
	return siteIDs, nil
}
