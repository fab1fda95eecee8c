// Package policy contains the policy aggregate and the pure condition
// evaluation and selection algorithms that decide whether a connecting
// client conforms.
package policy

import (
	"fmt"
	"time"

	"github.com/cordon-zt/cordon/internal/shared/id"
)

// Policy grants one actor group access to one resource, subject to zero or
// more conditions. At most one non-deleted policy exists per
// (account, resource, actor group) triple; the repository enforces this with
// a unique index.
type Policy struct {
	id           uint
	sid          string
	accountID    uint
	actorGroupID uint
	resourceID   uint
	conditions   []Condition
	description  string
	disabledAt   *time.Time
	deletedAt    *time.Time
	createdAt    time.Time
	updatedAt    time.Time
}

// NewPolicy creates a new policy.
func NewPolicy(accountID, actorGroupID, resourceID uint, conditions []Condition, description string) (*Policy, error) {
	if accountID == 0 || actorGroupID == 0 || resourceID == 0 {
		return nil, fmt.Errorf("account, actor group, and resource IDs are required")
	}
	for i := range conditions {
		if err := conditions[i].Validate(); err != nil {
			return nil, fmt.Errorf("condition %d: %w", i, err)
		}
	}

	now := time.Now().UTC()
	return &Policy{
		sid:          id.MustGenerateWithPrefix(id.PrefixPolicy, id.DefaultLength),
		accountID:    accountID,
		actorGroupID: actorGroupID,
		resourceID:   resourceID,
		conditions:   conditions,
		description:  description,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// ReconstructPolicy rebuilds a policy from persistence.
func ReconstructPolicy(
	policyID uint,
	sid string,
	accountID, actorGroupID, resourceID uint,
	conditions []Condition,
	description string,
	disabledAt, deletedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*Policy, error) {
	if policyID == 0 {
		return nil, fmt.Errorf("policy ID cannot be zero")
	}
	return &Policy{
		id:           policyID,
		sid:          sid,
		accountID:    accountID,
		actorGroupID: actorGroupID,
		resourceID:   resourceID,
		conditions:   conditions,
		description:  description,
		disabledAt:   disabledAt,
		deletedAt:    deletedAt,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}, nil
}

func (p *Policy) ID() uint               { return p.id }
func (p *Policy) SID() string            { return p.sid }
func (p *Policy) AccountID() uint        { return p.accountID }
func (p *Policy) ActorGroupID() uint     { return p.actorGroupID }
func (p *Policy) ResourceID() uint       { return p.resourceID }
func (p *Policy) Description() string    { return p.description }
func (p *Policy) DisabledAt() *time.Time { return p.disabledAt }
func (p *Policy) DeletedAt() *time.Time  { return p.deletedAt }
func (p *Policy) CreatedAt() time.Time   { return p.createdAt }
func (p *Policy) UpdatedAt() time.Time   { return p.updatedAt }

// Conditions returns the ordered condition list.
func (p *Policy) Conditions() []Condition { return p.conditions }

// SetID assigns the database identity after the initial insert.
func (p *Policy) SetID(policyID uint) error {
	if p.id != 0 {
		return fmt.Errorf("policy ID already set")
	}
	p.id = policyID
	return nil
}

// IsDisabled reports whether the policy is soft-disabled.
func (p *Policy) IsDisabled() bool { return p.disabledAt != nil }

// IsDeleted reports whether the policy is soft-deleted.
func (p *Policy) IsDeleted() bool { return p.deletedAt != nil }

// IsActive reports whether the policy participates in authorization.
func (p *Policy) IsActive() bool { return !p.IsDisabled() && !p.IsDeleted() }

// Disable soft-disables the policy without deleting it. Idempotent. The
// caller must expire the policy's flows in the same transaction.
func (p *Policy) Disable() {
	if p.disabledAt == nil {
		now := time.Now().UTC()
		p.disabledAt = &now
		p.updatedAt = now
	}
}

// Enable re-activates a disabled policy. Idempotent.
func (p *Policy) Enable() {
	if p.disabledAt != nil {
		p.disabledAt = nil
		p.updatedAt = time.Now().UTC()
	}
}

// Delete soft-deletes the policy. Idempotent. The caller must expire the
// policy's flows in the same transaction.
func (p *Policy) Delete() {
	if p.deletedAt == nil {
		now := time.Now().UTC()
		p.deletedAt = &now
		p.updatedAt = now
	}
}
