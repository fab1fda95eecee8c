package actor

import (
	"fmt"
	"time"

	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/id"
)

// GroupType classifies how a group's membership set is maintained.
type GroupType string

const (
	// GroupTypeStatic groups are edited directly by administrators.
	GroupTypeStatic GroupType = "static"
	// GroupTypeDynamic groups are recomputed from a filter over actors.
	GroupTypeDynamic GroupType = "dynamic"
	// GroupTypeManaged groups (e.g. "Everyone") are system-owned and not
	// directly editable.
	GroupTypeManaged GroupType = "managed"
)

// NewGroupType validates a group type string.
func NewGroupType(s string) (GroupType, error) {
	t := GroupType(s)
	switch t {
	case GroupTypeStatic, GroupTypeDynamic, GroupTypeManaged:
		return t, nil
	default:
		return "", fmt.Errorf("invalid group type: %s", s)
	}
}

func (t GroupType) String() string { return string(t) }

// Group is a named collection of actors. The group's membership set is the
// authorization unit referenced by policies; policies never reference
// individual actors.
type Group struct {
	id         uint
	sid        string
	accountID  uint
	name       string
	groupType  GroupType
	providerID *uint // identity provider that syncs this group, if any
	deletedAt  *time.Time
	createdAt  time.Time
	updatedAt  time.Time
}

// NewGroup creates a new group.
func NewGroup(accountID uint, name string, groupType GroupType) (*Group, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("account ID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("group name is required")
	}
	if _, err := NewGroupType(groupType.String()); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Group{
		sid:       id.MustGenerateWithPrefix(id.PrefixActorGroup, id.DefaultLength),
		accountID: accountID,
		name:      name,
		groupType: groupType,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructGroup rebuilds a group from persistence.
func ReconstructGroup(
	groupID uint,
	sid string,
	accountID uint,
	name string,
	groupType GroupType,
	providerID *uint,
	deletedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*Group, error) {
	if groupID == 0 {
		return nil, fmt.Errorf("group ID cannot be zero")
	}
	return &Group{
		id:         groupID,
		sid:        sid,
		accountID:  accountID,
		name:       name,
		groupType:  groupType,
		providerID: providerID,
		deletedAt:  deletedAt,
		createdAt:  createdAt,
		updatedAt:  updatedAt,
	}, nil
}

func (g *Group) ID() uint              { return g.id }
func (g *Group) SID() string           { return g.sid }
func (g *Group) AccountID() uint       { return g.accountID }
func (g *Group) Name() string          { return g.name }
func (g *Group) Type() GroupType       { return g.groupType }
func (g *Group) ProviderID() *uint     { return g.providerID }
func (g *Group) DeletedAt() *time.Time { return g.deletedAt }
func (g *Group) CreatedAt() time.Time  { return g.createdAt }
func (g *Group) UpdatedAt() time.Time  { return g.updatedAt }

// SetID assigns the database identity after the initial insert.
func (g *Group) SetID(groupID uint) error {
	if g.id != 0 {
		return fmt.Errorf("group ID already set")
	}
	g.id = groupID
	return nil
}

// IsDeleted reports whether the group is soft-deleted.
func (g *Group) IsDeleted() bool { return g.deletedAt != nil }

// IsManaged reports whether the group is system-owned.
func (g *Group) IsManaged() bool { return g.groupType == GroupTypeManaged }

// IsSynced reports whether the group's membership comes from an identity
// provider.
func (g *Group) IsSynced() bool { return g.providerID != nil }

// EnsureEditable rejects direct mutation of managed or provider-synced
// groups before anything is changed.
func (g *Group) EnsureEditable() error {
	if g.IsManaged() {
		return errors.NewConflictError("group is managed by the system", errors.ReasonManagedGroup)
	}
	if g.IsSynced() {
		return errors.NewConflictError("group membership is synced from an identity provider", errors.ReasonSyncedGroup)
	}
	return nil
}

// Rename changes the group name, subject to editability.
func (g *Group) Rename(name string) error {
	if err := g.EnsureEditable(); err != nil {
		return err
	}
	if name == "" {
		return fmt.Errorf("group name is required")
	}
	g.name = name
	g.updatedAt = time.Now().UTC()
	return nil
}

// Delete soft-deletes the group, subject to editability.
func (g *Group) Delete() error {
	if err := g.EnsureEditable(); err != nil {
		return err
	}
	if g.deletedAt == nil {
		now := time.Now().UTC()
		g.deletedAt = &now
		g.updatedAt = now
	}
	return nil
}
