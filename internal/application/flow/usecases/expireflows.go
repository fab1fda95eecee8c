package usecases

import (
	"context"
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/domain/policy"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/biztime"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// ExpireFlowsCommand names the entity whose live flows must be revoked.
type ExpireFlowsCommand struct {
	Kind     flow.EntityKind
	EntityID uint
}

// ExpireFlowsResult reports how many flows were revoked.
type ExpireFlowsResult struct {
	Expired int `json:"expired"`
}

// ExpireFlowsUseCase bulk-expires every live flow referencing an entity and
// broadcasts per-flow revocation after the transaction commits. Callers that
// pair the expiry with their own structural change should instead call
// ExpireWithin inside their transaction and publish afterwards.
type ExpireFlowsUseCase struct {
	flows    flow.Repository
	policies policy.Repository
	txMgr    Transactor
	bus      pubsub.Bus
	logger   logger.Interface
}

// NewExpireFlowsUseCase creates a new ExpireFlowsUseCase.
func NewExpireFlowsUseCase(
	flows flow.Repository,
	policies policy.Repository,
	txMgr Transactor,
	bus pubsub.Bus,
	logger logger.Interface,
) *ExpireFlowsUseCase {
	return &ExpireFlowsUseCase{flows: flows, policies: policies, txMgr: txMgr, bus: bus, logger: logger}
}

// Execute expires in its own transaction and publishes the revocations.
func (uc *ExpireFlowsUseCase) Execute(ctx context.Context, cmd ExpireFlowsCommand) (*ExpireFlowsResult, error) {
	var expired []*flow.Flow
	err := uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		var txErr error
		expired, txErr = uc.ExpireWithin(txCtx, cmd)
		return txErr
	})
	if err != nil {
		return nil, err
	}

	uc.PublishRevocations(ctx, expired)
	return &ExpireFlowsResult{Expired: len(expired)}, nil
}

// ExpireWithin runs the bulk expiry inside the caller's transaction so the
// revocation commits or rolls back together with the structural change that
// triggered it.
func (uc *ExpireFlowsUseCase) ExpireWithin(ctx context.Context, cmd ExpireFlowsCommand) ([]*flow.Flow, error) {
	scope, err := flow.NewScope(cmd.Kind, cmd.EntityID)
	if err != nil {
		return nil, err
	}
	expired, err := uc.flows.ExpireAllFor(ctx, scope, biztime.NowUTC())
	if err != nil {
		return nil, fmt.Errorf("failed to expire flows for %s %d: %w", cmd.Kind, cmd.EntityID, err)
	}
	if len(expired) > 0 {
		uc.logger.Infow("flows expired", "kind", cmd.Kind, "entity_id", cmd.EntityID, "count", len(expired))
	}
	return expired, nil
}

// PublishRevocations tells each serving gateway to cut the tunnel and each
// client that its grant is gone. Best-effort after commit; the lazy expiry
// check at read time catches anything a dropped message misses.
func (uc *ExpireFlowsUseCase) PublishRevocations(ctx context.Context, expired []*flow.Flow) {
	groups := make(map[uint]uint)
	for _, f := range expired {
		gwMsg := pubsub.Message{
			Kind:      pubsub.KindExpireFlow,
			FlowID:    f.ID(),
			ClientID:  f.ClientID(),
			GatewayID: f.GatewayID(),
		}
		if err := uc.bus.Publish(ctx, pubsub.GatewayTopic(f.GatewayID()), gwMsg); err != nil {
			uc.logger.Warnw("failed to publish flow expiry", "flow_id", f.ID(), "error", err)
		}
		clMsg := pubsub.Message{
			Kind:       pubsub.KindRejectAccess,
			FlowID:     f.ID(),
			ClientID:   f.ClientID(),
			ResourceID: f.ResourceID(),
			PolicyID:   f.PolicyID(),
			GroupID:    uc.grantingGroup(ctx, groups, f.PolicyID()),
		}
		if err := uc.bus.Publish(ctx, pubsub.ClientTopic(f.ClientID()), clMsg); err != nil {
			uc.logger.Warnw("failed to publish access rejection", "flow_id", f.ID(), "error", err)
		}
	}
}

// grantingGroup resolves the actor group of the policy that authorized the
// flow, caching per policy across the batch. Best-effort like the publish
// itself; an unresolvable policy leaves the group unset.
func (uc *ExpireFlowsUseCase) grantingGroup(ctx context.Context, cache map[uint]uint, policyID uint) uint {
	if groupID, ok := cache[policyID]; ok {
		return groupID
	}
	p, err := uc.policies.GetByID(ctx, policyID)
	if err != nil || p == nil {
		uc.logger.Warnw("failed to resolve granting policy for revocation", "policy_id", policyID, "error", err)
		cache[policyID] = 0
		return 0
	}
	cache[policyID] = p.ActorGroupID()
	return p.ActorGroupID()
}
