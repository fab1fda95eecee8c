package usecases

import (
	"context"
	"fmt"

	flowusecases "github.com/cordon-zt/cordon/internal/application/flow/usecases"
	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// RemoveGroupMemberCommand removes an actor from a static group.
type RemoveGroupMemberCommand struct {
	Subject  authorization.Subject
	GroupSID string
	ActorSID string
}

// RemoveGroupMemberResult reports the revocation fan-out.
type RemoveGroupMemberResult struct {
	FlowsExpired int `json:"flows_expired"`
}

// RemoveGroupMemberUseCase deletes a membership edge and, in the same
// transaction, expires every flow that was authorized through it. Access
// granted via a group never survives leaving the group.
type RemoveGroupMemberUseCase struct {
	checker     authorization.Checker
	actors      actor.Repository
	groups      actor.GroupRepository
	memberships actor.MembershipRepository
	expirer     *flowusecases.ExpireFlowsUseCase
	txMgr       Transactor
	bus         pubsub.Bus
	logger      logger.Interface
}

// NewRemoveGroupMemberUseCase creates a new RemoveGroupMemberUseCase.
func NewRemoveGroupMemberUseCase(
	checker authorization.Checker,
	actors actor.Repository,
	groups actor.GroupRepository,
	memberships actor.MembershipRepository,
	expirer *flowusecases.ExpireFlowsUseCase,
	txMgr Transactor,
	bus pubsub.Bus,
	logger logger.Interface,
) *RemoveGroupMemberUseCase {
	return &RemoveGroupMemberUseCase{
		checker:     checker,
		actors:      actors,
		groups:      groups,
		memberships: memberships,
		expirer:     expirer,
		txMgr:       txMgr,
		bus:         bus,
		logger:      logger,
	}
}

// Execute removes the membership, expires its flows transactionally, then
// publishes the membership deletion and per-flow revocations.
func (uc *RemoveGroupMemberUseCase) Execute(ctx context.Context, cmd RemoveGroupMemberCommand) (*RemoveGroupMemberResult, error) {
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
	if a == nil || a.AccountID() != cmd.Subject.AccountID {
		return nil, errors.NewNotFoundError("actor not found")
	}

	var expired []*flow.Flow
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		membership, txErr := uc.memberships.GetByActorAndGroup(txCtx, a.ID(), g.ID())
		if txErr != nil {
			return fmt.Errorf("failed to load membership: %w", txErr)
		}
		if membership == nil {
			return errors.NewNotFoundError("actor is not a member of the group")
		}
		if txErr := uc.memberships.Delete(txCtx, membership.ID()); txErr != nil {
			return fmt.Errorf("failed to delete membership: %w", txErr)
		}
		expired, txErr = uc.expirer.ExpireWithin(txCtx, flowusecases.ExpireFlowsCommand{
			Kind:     flow.EntityMembership,
			EntityID: membership.ID(),
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}

	msg := pubsub.Message{
		Kind:    pubsub.KindDeleteMembership,
		ActorID: a.ID(),
		GroupID: g.ID(),
	}
	if err := uc.bus.Publish(ctx, pubsub.AccountTopic(cmd.Subject.AccountID), msg); err != nil {
		uc.logger.Warnw("failed to publish membership deletion", "group_id", g.ID(), "actor_id", a.ID(), "error", err)
	}
	uc.expirer.PublishRevocations(ctx, expired)

	uc.logger.Infow("group member removed",
		"group_sid", g.SID(), "actor_sid", a.SID(), "flows_expired", len(expired))
	return &RemoveGroupMemberResult{FlowsExpired: len(expired)}, nil
}
