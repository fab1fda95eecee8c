package actor

import (
	"fmt"
	"time"

	"github.com/cordon-zt/cordon/internal/shared/id"
)

// Membership is the edge between an actor and a group. Its identity is
// referenced by flows for audit and cascade purposes: deleting a membership
// expires every flow that was authorized through it.
type Membership struct {
	id        uint
	sid       string
	accountID uint
	actorID   uint
	groupID   uint
	createdAt time.Time
}

// NewMembership creates a new membership edge.
func NewMembership(accountID, actorID, groupID uint) (*Membership, error) {
	if accountID == 0 || actorID == 0 || groupID == 0 {
		return nil, fmt.Errorf("account, actor, and group IDs are required")
	}
	return &Membership{
		sid:       id.MustGenerateWithPrefix(id.PrefixMembership, id.DefaultLength),
		accountID: accountID,
		actorID:   actorID,
		groupID:   groupID,
		createdAt: time.Now().UTC(),
	}, nil
}

// ReconstructMembership rebuilds a membership from persistence.
func ReconstructMembership(membershipID uint, sid string, accountID, actorID, groupID uint, createdAt time.Time) (*Membership, error) {
	if membershipID == 0 {
		return nil, fmt.Errorf("membership ID cannot be zero")
	}
	return &Membership{
		id:        membershipID,
		sid:       sid,
		accountID: accountID,
		actorID:   actorID,
		groupID:   groupID,
		createdAt: createdAt,
	}, nil
}

func (m *Membership) ID() uint             { return m.id }
func (m *Membership) SID() string          { return m.sid }
func (m *Membership) AccountID() uint      { return m.accountID }
func (m *Membership) ActorID() uint        { return m.actorID }
func (m *Membership) GroupID() uint        { return m.groupID }
func (m *Membership) CreatedAt() time.Time { return m.createdAt }

// SetID assigns the database identity after the initial insert.
func (m *Membership) SetID(membershipID uint) error {
	if m.id != 0 {
		return fmt.Errorf("membership ID already set")
	}
	m.id = membershipID
	return nil
}
