package mappers

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/token"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// TokenMapper handles the conversion between domain entities and persistence models.
type TokenMapper interface {
	ToEntity(model *models.TokenModel) (*token.Token, error)
	ToModel(entity *token.Token) *models.TokenModel
	ToEntities(models []*models.TokenModel) ([]*token.Token, error)
}

// TokenMapperImpl is the concrete implementation of TokenMapper.
type TokenMapperImpl struct{}

// NewTokenMapper creates a new token mapper.
func NewTokenMapper() TokenMapper {
	return &TokenMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity.
func (m *TokenMapperImpl) ToEntity(model *models.TokenModel) (*token.Token, error) {
	if model == nil {
		return nil, nil
	}

	tokenType, err := token.NewType(model.Type)
	if err != nil {
		return nil, fmt.Errorf("invalid token type: %w", err)
	}

	entity, err := token.ReconstructToken(
		model.ID,
		model.SID,
		model.AccountID,
		model.ActorID,
		tokenType,
		model.ExpiresAt,
		model.DeletedAt,
		model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct token entity: %w", err)
	}
	return entity, nil
}

// ToModel converts a domain entity to a persistence model.
func (m *TokenMapperImpl) ToModel(entity *token.Token) *models.TokenModel {
	if entity == nil {
		return nil
	}
	return &models.TokenModel{
		ID:        entity.ID(),
		SID:       entity.SID(),
		AccountID: entity.AccountID(),
		ActorID:   entity.ActorID(),
		Type:      entity.Type().String(),
		ExpiresAt: entity.ExpiresAt(),
		DeletedAt: entity.DeletedAt(),
		CreatedAt: entity.CreatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities.
func (m *TokenMapperImpl) ToEntities(tokenModels []*models.TokenModel) ([]*token.Token, error) {
	entities := make([]*token.Token, 0, len(tokenModels))
	for _, model := range tokenModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map token ID %d: %w", model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
