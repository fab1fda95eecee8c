package usecases

import (
	"context"
	"fmt"

	flowusecases "github.com/cordon-zt/cordon/internal/application/flow/usecases"
	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// DisableActorCommand disables a principal.
type DisableActorCommand struct {
	Subject  authorization.Subject
	ActorSID string
}

// DisableActorResult reports the revocation fan-out.
type DisableActorResult struct {
	ActorSID     string `json:"actor_sid"`
	FlowsExpired int    `json:"flows_expired"`
}

// DisableActorUseCase disables an actor and revokes every flow authorized
// through any of its clients, in one transaction. An account must always
// keep at least one active administrator: the sibling-admin count takes row
// locks, so of two concurrent disables targeting the last two admins exactly
// one succeeds.
type DisableActorUseCase struct {
	checker authorization.Checker
	actors  actor.Repository
	expirer *flowusecases.ExpireFlowsUseCase
	txMgr   Transactor
	logger  logger.Interface
}

// NewDisableActorUseCase creates a new DisableActorUseCase.
func NewDisableActorUseCase(
	checker authorization.Checker,
	actors actor.Repository,
	expirer *flowusecases.ExpireFlowsUseCase,
	txMgr Transactor,
	logger logger.Interface,
) *DisableActorUseCase {
	return &DisableActorUseCase{
		checker: checker,
		actors:  actors,
		expirer: expirer,
		txMgr:   txMgr,
		logger:  logger,
	}
}

// Execute disables the actor and expires its flows transactionally.
func (uc *DisableActorUseCase) Execute(ctx context.Context, cmd DisableActorCommand) (*DisableActorResult, error) {
	if cmd.ActorSID == "" {
		return nil, errors.NewValidationError("actor_sid is required")
	}
	if err := uc.checker.EnsureHasPermission(cmd.Subject, authorization.PermissionManageActors); err != nil {
		return nil, err
	}

	a, err := uc.actors.GetBySID(ctx, cmd.ActorSID)
	if err != nil {
		return nil, fmt.Errorf("failed to load actor: %w", err)
	}
	if a == nil || a.IsDeleted() || a.AccountID() != cmd.Subject.AccountID {
		return nil, errors.NewNotFoundError("actor not found")
	}
	if a.IsDisabled() {
		return &DisableActorResult{ActorSID: a.SID()}, nil
	}

	var expired []*flow.Flow
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if a.IsAdmin() {
			siblings, txErr := uc.actors.CountOtherActiveAdmins(txCtx, a.AccountID(), a.ID())
			if txErr != nil {
				return fmt.Errorf("failed to count sibling admins: %w", txErr)
			}
			if siblings == 0 {
				return errors.NewConflictError(
					"cannot disable the last administrator",
					errors.ReasonCantDisableLastAdmin,
				)
			}
		}
		a.Disable()
		if txErr := uc.actors.Update(txCtx, a); txErr != nil {
			return fmt.Errorf("failed to disable actor: %w", txErr)
		}
		var txErr error
		expired, txErr = uc.expirer.ExpireWithin(txCtx, flowusecases.ExpireFlowsCommand{
			Kind:     flow.EntityActor,
			EntityID: a.ID(),
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}

	uc.expirer.PublishRevocations(ctx, expired)

	uc.logger.Infow("actor disabled", "actor_sid", a.SID(), "flows_expired", len(expired))
	return &DisableActorResult{ActorSID: a.SID(), FlowsExpired: len(expired)}, nil
}
