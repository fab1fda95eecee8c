// Package actor contains the actor, actor group, and membership aggregates.
// Actors and groups never hold live references to each other; membership is
// the explicit edge and is always re-queried by ID.
package actor

import (
	"fmt"
	"time"

	"github.com/cordon-zt/cordon/internal/shared/id"
)

// Type classifies a principal.
type Type string

const (
	TypeAccountAdminUser Type = "account_admin_user"
	TypeAccountUser      Type = "account_user"
	TypeServiceAccount   Type = "service_account"
	TypeAPIClient        Type = "api_client"
	TypeSystem           Type = "system"
)

// NewType validates an actor type string.
func NewType(s string) (Type, error) {
	t := Type(s)
	switch t {
	case TypeAccountAdminUser, TypeAccountUser, TypeServiceAccount, TypeAPIClient, TypeSystem:
		return t, nil
	default:
		return "", fmt.Errorf("invalid actor type: %s", s)
	}
}

func (t Type) String() string { return string(t) }

// IsAdmin reports whether the type carries account administration rights.
func (t Type) IsAdmin() bool { return t == TypeAccountAdminUser }

// Actor represents a principal: a user, service account, or system identity.
type Actor struct {
	id         uint
	sid        string
	accountID  uint
	actorType  Type
	name       string
	disabledAt *time.Time
	deletedAt  *time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// NewActor creates a new actor.
func NewActor(accountID uint, actorType Type, name string) (*Actor, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("account ID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("actor name is required")
	}
	if _, err := NewType(actorType.String()); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Actor{
		sid:       id.MustGenerateWithPrefix(id.PrefixActor, id.DefaultLength),
		accountID: accountID,
		actorType: actorType,
		name:      name,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructActor rebuilds an actor from persistence.
func ReconstructActor(
	actorID uint,
	sid string,
	accountID uint,
	actorType Type,
	name string,
	disabledAt, deletedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*Actor, error) {
	if actorID == 0 {
		return nil, fmt.Errorf("actor ID cannot be zero")
	}
	if sid == "" {
		return nil, fmt.Errorf("actor SID is required")
	}
	return &Actor{
		id:         actorID,
		sid:        sid,
		accountID:  accountID,
		actorType:  actorType,
		name:       name,
		disabledAt: disabledAt,
		deletedAt:  deletedAt,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}, nil
}

func (a *Actor) ID() uint               { return a.id }
func (a *Actor) SID() string            { return a.sid }
func (a *Actor) AccountID() uint        { return a.accountID }
func (a *Actor) Type() Type             { return a.actorType }
func (a *Actor) Name() string           { return a.name }
func (a *Actor) DisabledAt() *time.Time { return a.disabledAt }
func (a *Actor) DeletedAt() *time.Time  { return a.deletedAt }
func (a *Actor) CreatedAt() time.Time   { return a.createdAt }
func (a *Actor) UpdatedAt() time.Time   { return a.updatedAt }

// SetID assigns the database identity after the initial insert.
func (a *Actor) SetID(actorID uint) error {
	if a.id != 0 {
		return fmt.Errorf("actor ID already set")
	}
	a.id = actorID
	return nil
}

// IsDisabled reports whether the actor is soft-disabled.
func (a *Actor) IsDisabled() bool { return a.disabledAt != nil }

// IsDeleted reports whether the actor is soft-deleted.
func (a *Actor) IsDeleted() bool { return a.deletedAt != nil }

// IsActive reports whether the actor may authenticate and hold flows.
func (a *Actor) IsActive() bool { return !a.IsDisabled() && !a.IsDeleted() }

// IsAdmin reports whether the actor administers its account.
func (a *Actor) IsAdmin() bool { return a.actorType.IsAdmin() }

// Disable soft-disables the actor. Idempotent.
func (a *Actor) Disable() {
	if a.disabledAt == nil {
		now := time.Now().UTC()
		a.disabledAt = &now
		a.updatedAt = now
	}
}

// Enable clears a soft-disable. Idempotent.
func (a *Actor) Enable() {
	if a.disabledAt != nil {
		a.disabledAt = nil
		a.updatedAt = time.Now().UTC()
	}
}

// Delete soft-deletes the actor. Idempotent.
func (a *Actor) Delete() {
	if a.deletedAt == nil {
		now := time.Now().UTC()
		a.deletedAt = &now
		a.updatedAt = now
	}
}
