package mappers

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/gateway"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// SiteMapper handles the conversion between domain entities and persistence models.
type SiteMapper interface {
	ToEntity(model *models.SiteModel) (*gateway.Site, error)
	ToModel(entity *gateway.Site) *models.SiteModel
	ToEntities(models []*models.SiteModel) ([]*gateway.Site, error)
}

// SiteMapperImpl is the concrete implementation of SiteMapper.
type SiteMapperImpl struct{}

// NewSiteMapper creates a new site mapper.
func NewSiteMapper() SiteMapper {
	return &SiteMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity.
func (m *SiteMapperImpl) ToEntity(model *models.SiteModel) (*gateway.Site, error) {
	if model == nil {
		return nil, nil
	}

	routing, err := gateway.NewRouting(model.Routing)
	if err != nil {
		return nil, fmt.Errorf("invalid site routing: %w", err)
	}

	entity, err := gateway.ReconstructSite(
		model.ID,
		model.SID,
		model.AccountID,
		model.Name,
		routing,
		model.DeletedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct site entity: %w", err)
	}
	return entity, nil
}

// ToModel converts a domain entity to a persistence model.
func (m *SiteMapperImpl) ToModel(entity *gateway.Site) *models.SiteModel {
	if entity == nil {
		return nil
	}
	return &models.SiteModel{
		ID:        entity.ID(),
		SID:       entity.SID(),
		AccountID: entity.AccountID(),
		Name:      entity.Name(),
		Routing:   entity.Routing().String(),
		DeletedAt: entity.DeletedAt(),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities.
func (m *SiteMapperImpl) ToEntities(siteModels []*models.SiteModel) ([]*gateway.Site, error) {
	entities := make([]*gateway.Site, 0, len(siteModels))
	for _, model := range siteModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map site ID %d: %w", model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
