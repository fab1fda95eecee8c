package mappers

import (
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/gateway"
	"github.com/cordon-zt/cordon/internal/infrastructure/persistence/models"
)

// GatewayMapper handles the conversion between domain entities and persistence models.
type GatewayMapper interface {
	ToEntity(model *models.GatewayModel) (*gateway.Gateway, error)
	ToModel(entity *gateway.Gateway) *models.GatewayModel
	ToEntities(models []*models.GatewayModel) ([]*gateway.Gateway, error)
}

// GatewayMapperImpl is the concrete implementation of GatewayMapper.
type GatewayMapperImpl struct{}

// NewGatewayMapper creates a new gateway mapper.
func NewGatewayMapper() GatewayMapper {
	return &GatewayMapperImpl{}
}

// ToEntity converts a persistence model to a domain entity.
func (m *GatewayMapperImpl) ToEntity(model *models.GatewayModel) (*gateway.Gateway, error) {
	if model == nil {
		return nil, nil
	}

	// A location exists only when both coordinates were reported.
	var location *gateway.Location
	if model.LastSeenLat != nil && model.LastSeenLon != nil {
		location = &gateway.Location{Lat: *model.LastSeenLat, Lon: *model.LastSeenLon}
	}

	entity, err := gateway.ReconstructGateway(
		model.ID,
		model.SID,
		model.AccountID,
		model.SiteID,
		model.Name,
		model.PublicKey,
		model.LastSeenVersion,
		location,
		model.LastSeenRemoteIP,
		model.DeletedAt,
		model.CreatedAt,
		model.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to reconstruct gateway entity: %w", err)
	}
	return entity, nil
}

// ToModel converts a domain entity to a persistence model.
func (m *GatewayMapperImpl) ToModel(entity *gateway.Gateway) *models.GatewayModel {
	if entity == nil {
		return nil
	}

	var lat, lon *float64
	if loc := entity.LastSeenLocation(); loc != nil {
		lat = &loc.Lat
		lon = &loc.Lon
	}

	return &models.GatewayModel{
		ID:               entity.ID(),
		SID:              entity.SID(),
		AccountID:        entity.AccountID(),
		SiteID:           entity.SiteID(),
		Name:             entity.Name(),
		PublicKey:        entity.PublicKey(),
		LastSeenVersion:  entity.LastSeenVersion(),
		LastSeenLat:      lat,
		LastSeenLon:      lon,
		LastSeenRemoteIP: entity.LastSeenRemoteIP(),
		DeletedAt:        entity.DeletedAt(),
		CreatedAt:        entity.CreatedAt(),
		UpdatedAt:        entity.UpdatedAt(),
	}
}

// ToEntities converts multiple persistence models to domain entities.
func (m *GatewayMapperImpl) ToEntities(gatewayModels []*models.GatewayModel) ([]*gateway.Gateway, error) {
	entities := make([]*gateway.Gateway, 0, len(gatewayModels))
	for _, model := range gatewayModels {
		entity, err := m.ToEntity(model)
		if err != nil {
			return nil, fmt.Errorf("failed to map gateway ID %d: %w", model.ID, err)
		}
		if entity != nil {
			entities = append(entities, entity)
		}
	}
	return entities, nil
}
