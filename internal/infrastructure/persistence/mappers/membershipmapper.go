package mappers

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// MembershipMapper handles the conversion between domain entities and persistence models.
type MembershipMapper interface {
	ToEntity(model *models.MembershipModel) (*actor.Membership, error)
	ToModel(entity *actor.Membership) *models.MembershipModel
	ToEntities(models []*models.MembershipModel) ([]*actor.Membership, error)
}

// MembershipMapperImpl is the concrete implementation of MembershipMapper.
type MembershipMapperImpl struct{}

// NewMembershipMapper creates a new membership mapper.
func NewMembershipMapper() MembershipMapper {
	return &MembershipMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity.
func (m *MembershipMapperImpl) ToEntity(model *models.MembershipModel) (*actor.Membership, error) {
	if model == nil {
		return nil, nil
	}
	entity, err := actor.ReconstructMembership(
		model.ID,
		model.SID,
		model.AccountID,
		model.ActorID,
		model.GroupID,
		model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct membership entity: %w", err)
	}
	return entity, nil
}

// ToModel converts a domain entity to a persistence model.
func (m *MembershipMapperImpl) ToModel(entity *actor.Membership) *models.MembershipModel {
	if entity == nil {
		return nil
	}
	return &models.MembershipModel{
		ID:        entity.ID(),
		SID:       entity.SID(),
		AccountID: entity.AccountID(),
		ActorID:   entity.ActorID(),
		GroupID:   entity.GroupID(),
		CreatedAt: entity.CreatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities.
func (m *MembershipMapperImpl) ToEntities(membershipModels []*models.MembershipModel) ([]*actor.Membership, error) {
	entities := make([]*actor.Membership, 0, len(membershipModels))
	for _, model := range membershipModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map membership ID %d: %w", model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
