package mappers

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// ActorMapper handles the conversion between domain entities and persistence models.
type ActorMapper interface {
	ToEntity(model *models.ActorModel) (*actor.Actor, error)
	ToModel(entity *actor.Actor) *models.ActorModel
	ToEntities(models []*models.ActorModel) ([]*actor.Actor, error)
}

// ActorMapperImpl is the concrete implementation of ActorMapper.
type ActorMapperImpl struct{}

// NewActorMapper creates a new actor mapper.
func NewActorMapper() ActorMapper {
	return &ActorMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity.
func (m *ActorMapperImpl) ToEntity(model *models.ActorModel) (*actor.Actor, error) {
	if model == nil {
		return nil, nil
	}

	actorType, err := actor.NewType(model.Type)
	if err != nil {
		return nil, fmt.Errorf("invalid actor type: %w", err)
	}

	entity, err := actor.ReconstructActor(
		model.ID,
		model.SID,
		model.AccountID,
		actorType,
		model.Name,
		model.DisabledAt,
		model.DeletedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct actor entity: %w", err)
	}
	return entity, nil
}

// ToModel converts a domain entity to a persistence model.
func (m *ActorMapperImpl) ToModel(entity *actor.Actor) *models.ActorModel {
	if entity == nil {
		return nil
	}
	return &models.ActorModel{
		ID:         entity.ID(),
		SID:        entity.SID(),
		AccountID:  entity.AccountID(),
		Type:       entity.Type().String(),
		Name:       entity.Name(),
		DisabledAt: entity.DisabledAt(),
		DeletedAt:  entity.DeletedAt(),
		CreatedAt:  entity.CreatedAt(),
		UpdatedAt:  entity.UpdatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities.
func (m *ActorMapperImpl) ToEntities(actorModels []*models.ActorModel) ([]*actor.Actor, error) {
	entities := make([]*actor.Actor, 0, len(actorModels))
	for _, model := range actorModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map actor ID %d: %w", model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
