package mappers

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/feature"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// FeatureMapper handles the conversion between domain entities and persistence models.
type FeatureMapper interface {
	ToEntity(model *models.FeatureModel) (*feature.Flag, error)
	ToModel(entity *feature.Flag) *models.FeatureModel
	ToEntities(models []*models.FeatureModel) ([]*feature.Flag, error)
}

// FeatureMapperImpl is the concrete implementation of FeatureMapper.
type FeatureMapperImpl struct{}

// NewFeatureMapper creates a new feature flag mapper.
func NewFeatureMapper() FeatureMapper {
	return &FeatureMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity.
func (m *FeatureMapperImpl) ToEntity(model *models.FeatureModel) (*feature.Flag, error) {
	if model == nil {
		return nil, nil
	}
	entity, err := feature.ReconstructFlag(
		model.ID,
		model.AccountID,
		feature.Key(model.Key),
		model.Enabled,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct feature flag entity: %w", err)
	}
	return entity, nil
}

// ToModel converts a domain entity to a persistence model.
func (m *FeatureMapperImpl) ToModel(entity *feature.Flag) *models.FeatureModel {
	if entity == nil {
		return nil
	}
	return &models.FeatureModel{
		ID:        entity.ID(),
		AccountID: entity.AccountID(),
		Key:       entity.Key().String(),
		Enabled:   entity.Enabled(),
		CreatedAt: entity.CreatedAt(),
		UpdatedAt: entity.UpdatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities.
func (m *FeatureMapperImpl) ToEntities(featureModels []*models.FeatureModel) ([]*feature.Flag, error) {
	entities := make([]*feature.Flag, 0, len(featureModels))
	for _, model := range featureModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map feature flag ID %d: %w", model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
