package mappers

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/client"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// ClientMapper handles the conversion between domain entities and persistence models.
type ClientMapper interface {
	ToEntity(model *models.ClientModel) (*client.Client, error)
	ToModel(entity *client.Client) *models.ClientModel
	ToEntities(models []*models.ClientModel) ([]*client.Client, error)
}

// ClientMapperImpl is the concrete implementation of ClientMapper.
type ClientMapperImpl struct{}

// NewClientMapper creates a new client mapper.
func NewClientMapper() ClientMapper {
	return &ClientMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity.
func (m *ClientMapperImpl) ToEntity(model *models.ClientModel) (*client.Client, error) {
	if model == nil {
		return nil, nil
	}
	entity, err := client.ReconstructClient(
		model.ID,
		model.SID,
		model.AccountID,
		model.ActorID,
		model.Name,
		model.PublicKey,
		model.VerifiedAt,
		model.LastSeenRemoteIP,
		model.LastSeenAgent,
		model.LastSeenVersion,
		model.DeletedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct client entity: %w", err)
	}
	return entity, nil
}

// ToModel converts a domain entity to a persistence model.
func (m *ClientMapperImpl) ToModel(entity *client.Client) *models.ClientModel {
	if entity == nil {
		return nil
	}
	return &models.ClientModel{
		ID:               entity.ID(),
		SID:              entity.SID(),
		AccountID:        entity.AccountID(),
		ActorID:          entity.ActorID(),
		Name:             entity.Name(),
		PublicKey:        entity.PublicKey(),
		VerifiedAt:       entity.VerifiedAt(),
		LastSeenRemoteIP: entity.LastSeenRemoteIP(),
		LastSeenAgent:    entity.LastSeenAgent(),
		LastSeenVersion:  entity.LastSeenVersion(),
		DeletedAt:        entity.DeletedAt(),
		CreatedAt:        entity.CreatedAt(),
		UpdatedAt:        entity.UpdatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities.
func (m *ClientMapperImpl) ToEntities(clientModels []*models.ClientModel) ([]*client.Client, error) {
	entities := make([]*client.Client, 0, len(clientModels))
	for _, model := range clientModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map client ID %d: %w", model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
