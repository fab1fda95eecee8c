package usecases

import (
	"context"
	"fmt"

	flowusecases "github.com/cordon-zt/cordon/internal/application/flow/usecases"
	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// RecomputeGroupCommand replaces a dynamic or provider-synced group's
// membership set with the desired actor IDs. Callers (filter evaluation,
// identity provider sync) compute the desired set; this usecase only applies
// the diff.
type RecomputeGroupCommand struct {
	AccountID       uint
	GroupID         uint
	DesiredActorIDs []uint
}

// RecomputeGroupResult reports the applied diff.
type RecomputeGroupResult struct {
	Added        int `json:"added"`
	Removed      int `json:"removed"`
	FlowsExpired int `json:"flows_expired"`
}

// RecomputeGroupUseCase diffs a group's memberships under a row lock on the
// group, so two concurrent recomputes of the same group serialize instead of
// interleaving inserts and deletes. Flows authorized through removed
// memberships expire in the same transaction.
type RecomputeGroupUseCase struct {
	groups      actor.GroupRepository
	memberships actor.MembershipRepository
	expirer     *flowusecases.ExpireFlowsUseCase
	txMgr       Transactor
	bus         pubsub.Bus
	logger      logger.Interface
}

// NewRecomputeGroupUseCase creates a new RecomputeGroupUseCase.
func NewRecomputeGroupUseCase(
	groups actor.GroupRepository,
	memberships actor.MembershipRepository,
	expirer *flowusecases.ExpireFlowsUseCase,
	txMgr Transactor,
	bus pubsub.Bus,
	logger logger.Interface,
) *RecomputeGroupUseCase {
	return &RecomputeGroupUseCase{
		groups:      groups,
		memberships: memberships,
		expirer:     expirer,
		txMgr:       txMgr,
		bus:         bus,
		logger:      logger,
	}
}

// Execute applies the membership diff and publishes the resulting events
// after commit.
func (uc *RecomputeGroupUseCase) Execute(ctx context.Context, cmd RecomputeGroupCommand) (*RecomputeGroupResult, error) {
	if cmd.AccountID == 0 || cmd.GroupID == 0 {
		return nil, errors.NewValidationError("account_id and group_id are required")
	}

	var (
		addedActorIDs   []uint
		removedActorIDs []uint
		expired         []*flow.Flow
	)
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		g, txErr := uc.groups.LockByID(txCtx, cmd.GroupID)
		if txErr != nil {
			return fmt.Errorf("failed to lock group: %w", txErr)
		}
		if g == nil || g.IsDeleted() || g.AccountID() != cmd.AccountID {
			return errors.NewNotFoundError("group not found")
		}
		if g.Type() != actor.GroupTypeDynamic && !g.IsSynced() {
			return errors.NewConflictError("group membership is not recomputed", string(g.Type()))
		}

		current, txErr := uc.memberships.ListByGroup(txCtx, cmd.GroupID)
		if txErr != nil {
			return fmt.Errorf("failed to list memberships: %w", txErr)
		}
		currentByActor := make(map[uint]*actor.Membership, len(current))
		for _, m := range current {
			currentByActor[m.ActorID()] = m
		}
		desired := make(map[uint]bool, len(cmd.DesiredActorIDs))
		for _, actorID := range cmd.DesiredActorIDs {
			desired[actorID] = true
		}

		for actorID := range desired {
			if _, ok := currentByActor[actorID]; ok {
				continue
			}
			membership, mErr := actor.NewMembership(cmd.AccountID, actorID, cmd.GroupID)
			if mErr != nil {
				return fmt.Errorf("failed to create membership: %w", mErr)
			}
			if mErr := uc.memberships.Create(txCtx, membership); mErr != nil {
				return mErr
			}
			addedActorIDs = append(addedActorIDs, actorID)
		}

		for actorID, membership := range currentByActor {
			if desired[actorID] {
				continue
			}
			if mErr := uc.memberships.Delete(txCtx, membership.ID()); mErr != nil {
				return fmt.Errorf("failed to delete membership: %w", mErr)
			}
			removedActorIDs = append(removedActorIDs, actorID)

			flowsExpired, mErr := uc.expirer.ExpireWithin(txCtx, flowusecases.ExpireFlowsCommand{
				Kind:     flow.EntityMembership,
				EntityID: membership.ID(),
			})
			if mErr != nil {
				return mErr
			}
			expired = append(expired, flowsExpired...)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	topic := pubsub.AccountTopic(cmd.AccountID)
	for _, actorID := range addedActorIDs {
		uc.publish(ctx, topic, pubsub.Message{
			Kind:    pubsub.KindCreateMembership,
			ActorID: actorID,
			GroupID: cmd.GroupID,
		})
	}
	for _, actorID := range removedActorIDs {
		uc.publish(ctx, topic, pubsub.Message{
			Kind:    pubsub.KindDeleteMembership,
			ActorID: actorID,
			GroupID: cmd.GroupID,
		})
	}
	uc.expirer.PublishRevocations(ctx, expired)

	if len(addedActorIDs) > 0 || len(removedActorIDs) > 0 {
		uc.logger.Infow("group membership recomputed",
			"group_id", cmd.GroupID,
			"added", len(addedActorIDs),
			"removed", len(removedActorIDs),
			"flows_expired", len(expired),
		)
	}
	return &RecomputeGroupResult{
		Added:        len(addedActorIDs),
		Removed:      len(removedActorIDs),
		FlowsExpired: len(expired),
	}, nil
}

func (uc *RecomputeGroupUseCase) publish(ctx context.Context, topic string, msg pubsub.Message) {
	if err := uc.bus.Publish(ctx, topic, msg); err != nil {
		uc.logger.Warnw("failed to publish membership event", "kind", msg.Kind, "group_id", msg.GroupID, "error", err)
	}
}
