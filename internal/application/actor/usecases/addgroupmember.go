package usecases

import (
	"context"
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// AddGroupMemberCommand adds an actor to a static group.
type AddGroupMemberCommand struct {
	Subject  authorization.Subject
	GroupSID string
	ActorSID string
}

// AddGroupMemberResult reports the new membership edge.
type AddGroupMemberResult struct {
	MembershipSID string `json:"membership_sid"`
}

// AddGroupMemberUseCase creates a membership edge. Managed and
// provider-synced groups reject direct edits before anything is written.
type AddGroupMemberUseCase struct {
	checker     authorization.Checker
	actors      actor.Repository
	groups      actor.GroupRepository
	memberships actor.MembershipRepository
	bus         pubsub.Bus
	logger      logger.Interface
}

// NewAddGroupMemberUseCase creates a new AddGroupMemberUseCase.
func NewAddGroupMemberUseCase(
	checker authorization.Checker,
	actors actor.Repository,
	groups actor.GroupRepository,
	memberships actor.MembershipRepository,
	bus pubsub.Bus,
	logger logger.Interface,
) *AddGroupMemberUseCase {
	return &AddGroupMemberUseCase{
		checker:     checker,
		actors:      actors,
		groups:      groups,
		memberships: memberships,
		bus:         bus,
		logger:      logger,
	}
}

// Execute creates the membership and announces it on the account topic.
func (uc *AddGroupMemberUseCase) Execute(ctx context.Context, cmd AddGroupMemberCommand) (*AddGroupMemberResult, error) {
	if cmd.GroupSID == "" || cmd.ActorSID == "" {
		return nil, errors.NewValidationError("group_sid and actor_sid are required")
	}
	if err := uc.checker.EnsureHasPermission(cmd.Subject, authorization.PermissionManageGroups); err != nil {
		return nil, err
	}

	g, err := uc.groups.GetBySID(ctx, cmd.GroupSID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}
	if g == nil || g.IsDeleted() || g.AccountID() != cmd.Subject.AccountID {
		return nil, errors.NewNotFoundError("group not found")
	}
	if err := g.EnsureEditable(); err != nil {
		return nil, err
	}

	a, err := uc.actors.GetBySID(ctx, cmd.ActorSID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actor: %w", err)
	}
	if a == nil || a.IsDeleted() || a.AccountID() != cmd.Subject.AccountID {
		return nil, errors.NewNotFoundError("actor not found")
	}
	if !a.IsActive() {
		return nil, errors.NewConflictError("cannot add a disabled actor to a group")
	}

	membership, err := actor.NewMembership(cmd.Subject.AccountID, a.ID(), g.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to create membership: %w", err)
	}
	if err := uc.memberships.Create(ctx, membership); err != nil {
		return nil, err
	}

	msg := pubsub.Message{
		Kind:    pubsub.KindCreateMembership,
		ActorID: a.ID(),
		GroupID: g.ID(),
	}
	if err := uc.bus.Publish(ctx, pubsub.AccountTopic(cmd.Subject.AccountID), msg); err != nil {
		uc.logger.Warnw("failed to publish membership creation", "membership_id", membership.ID(), "error", err)
	}

	uc.logger.Infow("group member added", "group_sid", g.SID(), "actor_sid", a.SID())
	return &AddGroupMemberResult{MembershipSID: membership.SID()}, nil
}
