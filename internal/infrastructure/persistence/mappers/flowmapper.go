package mappers

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// FlowMapper handles the conversion between domain entities and persistence models.
type FlowMapper interface {
	ToEntity(model *models.FlowModel) (*flow.Flow, error)
	ToModel(entity *flow.Flow) *models.FlowModel
	ToEntities(models []*models.FlowModel) ([]*flow.Flow, error)
}

// FlowMapperImpl is the concrete implementation of FlowMapper.
type FlowMapperImpl struct{}

// NewFlowMapper creates a new flow mapper.
func NewFlowMapper() FlowMapper {
	return &FlowMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity.
func (m *FlowMapperImpl) ToEntity(model *models.FlowModel) (*flow.Flow, error) {
	if model == nil {
		return nil, nil
	}
	entity, err := flow.ReconstructFlow(
		model.ID,
		model.SID,
		model.AccountID,
		model.ClientID,
		model.GatewayID,
		model.ResourceID,
		model.PolicyID,
		model.MembershipID,
		model.TokenID,
		model.ClientRemoteIP,
		model.GatewayRemoteIP,
		model.ClientUserAgent,
		model.ExpiresAt,
		model.ExpiredAt,
		model.CreatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct flow entity: %w", err)
	}
	return entity, nil
}

// ToModel converts a domain entity to a persistence model.
func (m *FlowMapperImpl) ToModel(entity *flow.Flow) *models.FlowModel {
	if entity == nil {
		return nil
	}
	return &models.FlowModel{
		ID:              entity.ID(),
		SID:             entity.SID(),
		AccountID:       entity.AccountID(),
		ClientID:        entity.ClientID(),
		GatewayID:       entity.GatewayID(),
		ResourceID:      entity.ResourceID(),
		PolicyID:        entity.PolicyID(),
		MembershipID:    entity.MembershipID(),
		TokenID:         entity.TokenID(),
		ClientRemoteIP:  entity.ClientRemoteIP(),
		GatewayRemoteIP: entity.GatewayRemoteIP(),
		ClientUserAgent: entity.ClientUserAgent(),
		ExpiresAt:       entity.ExpiresAt(),
		ExpiredAt:       entity.ExpiredAt(),
		CreatedAt:       entity.CreatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities.
func (m *FlowMapperImpl) ToEntities(flowModels []*models.FlowModel) ([]*flow.Flow, error) {
	entities := make([]*flow.Flow, 0, len(flowModels))
	for _, model := range flowModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map flow ID %d: %w", model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
