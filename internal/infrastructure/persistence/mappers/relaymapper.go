package mappers

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/relay"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// RelayMapper handles the conversion between domain entities and persistence models.
type RelayMapper interface {
	ToEntity(model *models.RelayModel) (*relay.Relay, error)
	ToModel(entity *relay.Relay) *models.RelayModel
	ToEntities(models []*models.RelayModel) ([]*relay.Relay, error)
}

// RelayMapperImpl is the concrete implementation of RelayMapper.
type RelayMapperImpl struct{}

// NewRelayMapper creates a new relay mapper.
func NewRelayMapper() RelayMapper {
	return &RelayMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity.
func (m *RelayMapperImpl) ToEntity(model *models.RelayModel) (*relay.Relay, error) {
	if model == nil {
		return nil, nil
	}
	entity, err := relay.ReconstructRelay(
		model.ID,
		model.SID,
		model.AccountID,
		model.Name,
		model.IPv4,
		model.IPv6,
		model.Port,
		model.StampSecretHash,
		model.DeletedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct relay entity: %w", err)
	}
	return entity, nil
}

// ToModel converts a domain entity to a persistence model.
func (m *RelayMapperImpl) ToModel(entity *relay.Relay) *models.RelayModel {
	if entity == nil {
		return nil
	}
	return &models.RelayModel{
		ID:              entity.ID(),
		SID:             entity.SID(),
		AccountID:       entity.AccountID(),
		Name:            entity.Name(),
		IPv4:            entity.IPv4(),
		IPv6:            entity.IPv6(),
		Port:            entity.Port(),
		StampSecretHash: entity.StampSecretHash(),
		DeletedAt:       entity.DeletedAt(),
		CreatedAt:       entity.CreatedAt(),
		UpdatedAt:       entity.UpdatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities.
func (m *RelayMapperImpl) ToEntities(relayModels []*models.RelayModel) ([]*relay.Relay, error) {
	entities := make([]*relay.Relay, 0, len(relayModels))
	for _, model := range relayModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map relay ID %d: %w", model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
