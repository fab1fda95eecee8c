package mappers

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/resource"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// ResourceMapper handles the conversion between domain entities and persistence models.
type ResourceMapper interface {
	ToEntity(model *models.ResourceModel) (*resource.Resource, error)
	ToModel(entity *resource.Resource) *models.ResourceModel
	ToEntities(models []*models.ResourceModel) ([]*resource.Resource, error)
}

// ResourceMapperImpl is the concrete implementation of ResourceMapper.
type ResourceMapperImpl struct{}

// NewResourceMapper creates a new resource mapper.
func NewResourceMapper() ResourceMapper {
	return &ResourceMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity.
func (m *ResourceMapperImpl) ToEntity(model *models.ResourceModel) (*resource.Resource, error) {
	if model == nil {
		return nil, nil
	}

	addressType := resource.AddressType(model.AddressType)
	switch addressType {
	case resource.AddressTypeDNS, resource.AddressTypeCIDR, resource.AddressTypeIP:
	default:
		return nil, fmt.Errorf("invalid address type: %s", model.AddressType)
	}

	entity, err := resource.ReconstructResource(
		model.ID,
		model.SID,
		model.AccountID,
		model.Name,
		model.Address,
		addressType,
		model.DeletedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct resource entity: %w", err)
	}
	return entity, nil
}

// ToModel converts a domain entity to a persistence model.
func (m *ResourceMapperImpl) ToModel(entity *resource.Resource) *models.ResourceModel {
	if entity == nil {
		return nil
	}
	return &models.ResourceModel{
		ID:          entity.ID(),
		SID:         entity.SID(),
		AccountID:   entity.AccountID(),
		Name:        entity.Name(),
		Address:     entity.Address(),
		AddressType: string(entity.AddressType()),
		DeletedAt:   entity.DeletedAt(),
		CreatedAt:   entity.CreatedAt(),
		UpdatedAt:   entity.UpdatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities.
func (m *ResourceMapperImpl) ToEntities(resourceModels []*models.ResourceModel) ([]*resource.Resource, error) {
	entities := make([]*resource.Resource, 0, len(resourceModels))
	for _, model := range resourceModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map resource ID %d: %w", model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
