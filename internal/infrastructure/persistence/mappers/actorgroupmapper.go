package mappers

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// ActorGroupMapper handles the conversion between domain entities and persistence models.
type ActorGroupMapper interface {
	ToEntity(model *models.ActorGroupModel) (*actor.Group, error)
	ToModel(entity *actor.Group) *models.ActorGroupModel
	ToEntities(models []*models.ActorGroupModel) ([]*actor.Group, error)
}

// ActorGroupMapperImpl is the concrete implementation of ActorGroupMapper.
type ActorGroupMapperImpl struct{}

// NewActorGroupMapper creates a new actor group mapper.
func NewActorGroupMapper() ActorGroupMapper {
	return &ActorGroupMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity.
func (m *ActorGroupMapperImpl) ToEntity(model *models.ActorGroupModel) (*actor.Group, error) {
	if model == nil {
		return nil, nil
	}

	groupType, err := actor.NewGroupType(model.Type)
	if err != nil {
		return nil, fmt.Errorf("invalid group type: %w", err)
	}

	entity, err := actor.ReconstructGroup(
		model.ID,
		model.SID,
		model.AccountID,
		model.Name,
		groupType,
		model.ProviderID,
		model.DeletedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct group entity: %w", err)
	}
	return entity, nil
}

// ToModel converts a domain entity to a persistence model.
func (m *ActorGroupMapperImpl) ToModel(entity *actor.Group) *models.ActorGroupModel {
	if entity == nil {
		return nil
	}
	return &models.ActorGroupModel{
		ID:         entity.ID(),
		SID:        entity.SID(),
		AccountID:  entity.AccountID(),
		Name:       entity.Name(),
		Type:       entity.Type().String(),
		ProviderID: entity.ProviderID(),
		DeletedAt:  entity.DeletedAt(),
		CreatedAt:  entity.CreatedAt(),
		UpdatedAt:  entity.UpdatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities.
func (m *ActorGroupMapperImpl) ToEntities(groupModels []*models.ActorGroupModel) ([]*actor.Group, error) {
	entities := make([]*actor.Group, 0, len(groupModels))
	for _, model := range groupModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map group ID %d: %w", model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
