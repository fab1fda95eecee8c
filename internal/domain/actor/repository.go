package actor

import "context"

// Repository defines persistence operations for actors.
type Repository interface {
	Create(ctx context.Context, a *Actor) error
	GetByID(ctx context.Context, actorID uint) (*Actor, error)
	GetBySID(ctx context.Context, sid string) (*Actor, error)
	Update(ctx context.Context, a *Actor) error

	// CountOtherActiveAdmins counts enabled, non-deleted admin actors in the
	// account other than excludeActorID. Implementations must take a row
	// lock on the counted rows so two concurrent disable-admin requests
	// cannot both observe a surviving sibling.
	CountOtherActiveAdmins(ctx context.Context, accountID, excludeActorID uint) (int64, error)

	// ListActiveByAccount lists enabled, non-deleted actors for dynamic
	// group recomputation.
	ListActiveByAccount(ctx context.Context, accountID uint) ([]*Actor, error)
}

// GroupRepository defines persistence operations for actor groups.
type GroupRepository interface {
	Create(ctx context.Context, g *Group) error
	GetByID(ctx context.Context, groupID uint) (*Group, error)
	GetBySID(ctx context.Context, sid string) (*Group, error)
	Update(ctx context.Context, g *Group) error

	// LockByID fetches the group with a row lock held for the remainder of
	// the surrounding transaction. Used to serialize membership recomputes.
	LockByID(ctx context.Context, groupID uint) (*Group, error)
}

// MembershipRepository defines persistence operations for memberships.
type MembershipRepository interface {
	Create(ctx context.Context, m *Membership) error
	Delete(ctx context.Context, membershipID uint) error
	GetByActorAndGroup(ctx context.Context, actorID, groupID uint) (*Membership, error)
	ListByGroup(ctx context.Context, groupID uint) ([]*Membership, error)
	ListByActor(ctx context.Context, actorID uint) ([]*Membership, error)
}
