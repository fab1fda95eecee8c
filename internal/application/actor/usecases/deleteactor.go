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

// DeleteActorCommand soft-deletes a principal.
type DeleteActorCommand struct {
	Subject  authorization.Subject
	ActorSID string
}

// DeleteActorResult reports the revocation fan-out.
type DeleteActorResult struct {
	ActorSID     string `json:"actor_sid"`
	FlowsExpired int    `json:"flows_expired"`
}

// DeleteActorUseCase soft-deletes an actor under the same last-admin
// invariant as disabling: the sibling count is taken under row locks inside
// the deleting transaction.
type DeleteActorUseCase struct {
	checker authorization.Checker
	actors  actor.Repository
	expirer *flowusecases.ExpireFlowsUseCase
	txMgr   Transactor
	logger  logger.Interface
}

// NewDeleteActorUseCase creates a new DeleteActorUseCase.
func NewDeleteActorUseCase(
	checker authorization.Checker,
	actors actor.Repository,
	expirer *flowusecases.ExpireFlowsUseCase,
	txMgr Transactor,
	logger logger.Interface,
) *DeleteActorUseCase {
	return &DeleteActorUseCase{
		checker: checker,
		actors:  actors,
		expirer: expirer,
		txMgr:   txMgr,
		logger:  logger,
	}
}

// Execute deletes the actor and expires its flows transactionally.
func (uc *DeleteActorUseCase) Execute(ctx context.Context, cmd DeleteActorCommand) (*DeleteActorResult, error) {
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

	var expired []*flow.Flow
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		if a.IsAdmin() {
			siblings, txErr := uc.actors.CountOtherActiveAdmins(txCtx, a.AccountID(), a.ID())
			if txErr != nil {
				return fmt.Errorf("failed to count sibling admins: %w", txErr)
			}
			if siblings == 0 {
				return errors.NewConflictError(
					"cannot delete the last administrator",
					errors.ReasonCantDeleteLastAdmin,
				)
			}
		}
		a.Delete()
		if txErr := uc.actors.Update(txCtx, a); txErr != nil {
			return fmt.Errorf("failed to delete actor: %w", txErr)
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

	uc.logger.Infow("actor deleted", "actor_sid", a.SID(), "flows_expired", len(expired))
	return &DeleteActorResult{ActorSID: a.SID(), FlowsExpired: len(expired)}, nil
}
