package mappers

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"

	"github.com/cordon-zt/cordon/internal/domain/policy"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// PolicyMapper handles the conversion between domain entities and persistence models.
type PolicyMapper interface {
	ToEntity(model *models.PolicyModel) (*policy.Policy, error)
	ToModel(entity *policy.Policy) (*models.PolicyModel, error)
	ToEntities(models []*models.PolicyModel) ([]*policy.Policy, error)
}

// PolicyMapperImpl is the concrete implementation of PolicyMapper.
type PolicyMapperImpl struct{}

// NewPolicyMapper creates a new policy mapper.
func NewPolicyMapper() PolicyMapper {
	return &PolicyMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity.
func (m *PolicyMapperImpl) ToEntity(model *models.PolicyModel) (*policy.Policy, error) {
	if model == nil {
		return nil, nil
	}

	var conditions []policy.Condition
	if len(model.Conditions) > 0 {
		if err := json.Unmarshal(model.Conditions, &conditions); err != nil {
			return nil, fmt.Errorf("failed to parse policy conditions: %w", err)
		}
	}

	entity, err := policy.ReconstructPolicy(
		model.ID,
		model.SID,
		model.AccountID,
		model.ActorGroupID,
		model.ResourceID,
		conditions,
		model.Description,
		model.DisabledAt,
		model.DeletedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct policy entity: %w", err)
	}
	return entity, nil
}

// ToModel converts a domain entity to a persistence model.
func (m *PolicyMapperImpl) ToModel(entity *policy.Policy) (*models.PolicyModel, error) {
	if entity == nil {
		return nil, nil
	}

	var conditionsJSON datatypes.JSON
	if len(entity.Conditions()) > 0 {
		data, err := json.Marshal(entity.Conditions())
		if err != nil {
			return nil, fmt.Errorf("failed to serialize policy conditions: %w", err)
		}
		conditionsJSON = data
	}

	return &models.PolicyModel{
		ID:           entity.ID(),
		SID:          entity.SID(),
		AccountID:    entity.AccountID(),
		ActorGroupID: entity.ActorGroupID(),
		ResourceID:   entity.ResourceID(),
		Conditions:   conditionsJSON,
		Description:  entity.Description(),
		DisabledAt:   entity.DisabledAt(),
		DeletedAt:    entity.DeletedAt(),
		CreatedAt:    entity.CreatedAt(),
		UpdatedAt:    entity.UpdatedAt(),
	}, nil
}

// ToEntities converts multiple persistence models to domain entities.
func (m *PolicyMapperImpl) ToEntities(policyModels []*models.PolicyModel) ([]*policy.Policy, error) {
	entities := make([]*policy.Policy, 0, len(policyModels))
	for _, model := range policyModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map policy ID %d: %w", model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
