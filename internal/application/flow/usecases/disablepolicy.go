package usecases

import (
	"context"
	"fmt"

	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/domain/policy"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// DisablePolicyCommand soft-disables a policy.
type DisablePolicyCommand struct {
	Subject   authorization.Subject
	PolicySID string
}

// DisablePolicyResult reports the revocation fan-out.
type DisablePolicyResult struct {
	PolicySID    string `json:"policy_sid"`
	FlowsExpired int    `json:"flows_expired"`
	Reauthorized int    `json:"reauthorized"`
}

// DisablePolicyUseCase disables a policy and revokes every flow it
// authorized in the same transaction, so no observer sees a disabled policy
// with live flows. After commit it tries to re-grant each affected client
// through a surviving policy; a failed attempt is dropped, not retried.
type DisablePolicyUseCase struct {
	checker  authorization.Checker
	policies policy.Repository
	expirer  *ExpireFlowsUseCase
	reauth   *ReauthorizeFlowUseCase
	txMgr    Transactor
	logger   logger.Interface
}

// NewDisablePolicyUseCase creates a new DisablePolicyUseCase.
func NewDisablePolicyUseCase(
	checker authorization.Checker,
	policies policy.Repository,
	expirer *ExpireFlowsUseCase,
	reauth *ReauthorizeFlowUseCase,
	txMgr Transactor,
	logger logger.Interface,
) *DisablePolicyUseCase {
	return &DisablePolicyUseCase{
		checker:  checker,
		policies: policies,
		expirer:  expirer,
		reauth:   reauth,
		txMgr:    txMgr,
		logger:   logger,
	}
}

// Execute disables the policy, expires its flows transactionally, publishes
// the revocations, then attempts one reauthorization per affected
// client/resource pair.
func (uc *DisablePolicyUseCase) Execute(ctx context.Context, cmd DisablePolicyCommand) (*DisablePolicyResult, error) {
	if cmd.PolicySID == "" {
		return nil, errors.NewValidationError("policy_sid is required")
	}
	if err := uc.checker.EnsureHasPermission(cmd.Subject, authorization.PermissionManagePolicies); err != nil {
		return nil, err
	}

	p, err := uc.policies.GetBySID(ctx, cmd.PolicySID)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy: %w", err)
	}
	if p == nil || p.IsDeleted() || p.AccountID() != cmd.Subject.AccountID {
		return nil, errors.NewNotFoundError("policy not found")
	}
	if p.IsDisabled() {
		return &DisablePolicyResult{PolicySID: p.SID()}, nil
	}

	var expired []*flow.Flow
	err = uc.txMgr.RunInTransaction(ctx, func(txCtx context.Context) error {
		p.Disable()
		if txErr := uc.policies.Update(txCtx, p); txErr != nil {
			return fmt.Errorf("failed to disable policy: %w", txErr)
		}
		var txErr error
		expired, txErr = uc.expirer.ExpireWithin(txCtx, ExpireFlowsCommand{
			Kind:     flow.EntityPolicy,
			EntityID: p.ID(),
		})
		return txErr
	})
	if err != nil {
		return nil, err
	}

	uc.expirer.PublishRevocations(ctx, expired)

	reauthorized := uc.reauthorizeAffected(ctx, expired)

	uc.logger.Infow("policy disabled",
		"policy_sid", p.SID(),
		"flows_expired", len(expired),
		"reauthorized", reauthorized,
	)
	return &DisablePolicyResult{
		PolicySID:    p.SID(),
		FlowsExpired: len(expired),
		Reauthorized: reauthorized,
	}, nil
}

// reauthorizeAffected tries one replacement grant per client/resource pair.
// Several expired flows can share a pair when duplicate inserts raced; only
// the most recent is retried.
func (uc *DisablePolicyUseCase) reauthorizeAffected(ctx context.Context, expired []*flow.Flow) int {
	type pair struct{ clientID, resourceID uint }
	latest := make(map[pair]*flow.Flow)
	for _, f := range expired {
		key := pair{f.ClientID(), f.ResourceID()}
		if cur, ok := latest[key]; !ok || f.CreatedAt().After(cur.CreatedAt()) {
			latest[key] = f
		}
	}

	reauthorized := 0
	for _, f := range latest {
		if _, err := uc.reauth.Execute(ctx, ReauthorizeFlowCommand{FlowID: f.ID()}); err != nil {
			continue
		}
		reauthorized++
	}
	return reauthorized
}
