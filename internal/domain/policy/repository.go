package policy

import "context"

// Repository defines read and write access to policies. List operations
// return active policies only (not disabled, not deleted) with conditions
// loaded, scoped by account.
type Repository interface {
	Create(ctx context.Context, p *Policy) error
	GetByID(ctx context.Context, policyID uint) (*Policy, error)
	GetBySID(ctx context.Context, sid string) (*Policy, error)
	Update(ctx context.Context, p *Policy) error

	// ListAuthorizing returns active policies granting any of the actor's
	// groups access to the resource.
	ListAuthorizing(ctx context.Context, accountID, resourceID, actorID uint) ([]*Policy, error)

	// ListForResource returns active policies on a resource regardless of
	// actor, used when fanning out policy-change notifications.
	ListForResource(ctx context.Context, accountID, resourceID uint) ([]*Policy, error)

	// ListForGroup returns active policies targeting an actor group.
	ListForGroup(ctx context.Context, accountID, groupID uint) ([]*Policy, error)
}
