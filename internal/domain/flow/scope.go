package flow

import "fmt"

// EntityKind names an entity whose removal or disablement cascades into flow
// expiry.
type EntityKind string

const (
	EntityActor      EntityKind = "actor"
	EntityClient     EntityKind = "client"
	EntityGroup      EntityKind = "group"
	EntityPolicy     EntityKind = "policy"
	EntityResource   EntityKind = "resource"
	EntityGateway    EntityKind = "gateway"
	EntityProvider   EntityKind = "provider"
	EntityToken      EntityKind = "token"
	EntityMembership EntityKind = "membership"
)

// Scope selects the flows touched by a structural change: every live flow
// referencing the given entity.
type Scope struct {
	Kind EntityKind
	ID   uint
}

// NewScope builds a validated scope.
func NewScope(kind EntityKind, entityID uint) (Scope, error) {
	switch kind {
	case EntityActor, EntityClient, EntityGroup, EntityPolicy, EntityResource,
		EntityGateway, EntityProvider, EntityToken, EntityMembership:
	default:
		return Scope{}, fmt.Errorf("unknown flow scope kind: %s", kind)
	}
	if entityID == 0 {
		return Scope{}, fmt.Errorf("flow scope entity ID cannot be zero")
	}
	return Scope{Kind: kind, ID: entityID}, nil
}
