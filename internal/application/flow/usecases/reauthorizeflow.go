package usecases

import (
	"context"
	"fmt"
	"net"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/domain/client"
	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/domain/gateway"
	"github.com/cordon-zt/cordon/internal/domain/policy"
	"github.com/cordon-zt/cordon/internal/domain/resource"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/biztime"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// ReauthorizeFlowCommand asks for a replacement grant after a structural
// change revoked an existing flow.
type ReauthorizeFlowCommand struct {
	FlowID uint
}

// ReauthorizeFlowResult reports the replacement flow.
type ReauthorizeFlowResult struct {
	FlowSID    string `json:"flow_sid"`
	GatewaySID string `json:"gateway_sid"`
}

// ReauthorizeFlowUseCase re-runs authorization for a revoked flow using the
// client's last known posture. The replacement never outlives the original
// grant: its expiry is capped by the original flow's expiry, not the
// token's. Failure is terminal; there is no retry, the client must request
// access again itself.
type ReauthorizeFlowUseCase struct {
	clients     client.Repository
	resources   resource.Repository
	policies    policy.Repository
	memberships actor.MembershipRepository
	gateways    gateway.Repository
	flows       flow.Repository
	online      OnlineDirectory
	bus         pubsub.Bus
	logger      logger.Interface
}

// NewReauthorizeFlowUseCase creates a new ReauthorizeFlowUseCase.
func NewReauthorizeFlowUseCase(
	clients client.Repository,
	resources resource.Repository,
	policies policy.Repository,
	memberships actor.MembershipRepository,
	gateways gateway.Repository,
	flows flow.Repository,
	online OnlineDirectory,
	bus pubsub.Bus,
	logger logger.Interface,
) *ReauthorizeFlowUseCase {
	return &ReauthorizeFlowUseCase{
		clients:     clients,
		resources:   resources,
		policies:    policies,
		memberships: memberships,
		gateways:    gateways,
		flows:       flows,
		online:      online,
		bus:         bus,
		logger:      logger,
	}
}

// Execute attempts one replacement grant. Any failure is logged and returned
// as-is; callers in revocation fan-out paths drop the error.
func (uc *ReauthorizeFlowUseCase) Execute(ctx context.Context, cmd ReauthorizeFlowCommand) (*ReauthorizeFlowResult, error) {
	if cmd.FlowID == 0 {
		return nil, errors.NewValidationError("flow_id is required")
	}

	original, err := uc.flows.GetByID(ctx, cmd.FlowID)
	if err != nil {
		return nil, fmt.Errorf("failed to load flow: %w", err)
	}
	if original == nil {
		return nil, errors.NewNotFoundError("flow not found")
	}

	now := biztime.NowUTC()
	if !original.ExpiresAt().After(now) {
		return nil, uc.abandon(original.ID(), errors.NewForbiddenError("original grant has already lapsed"))
	}

	cl, err := uc.clients.GetByID(ctx, original.ClientID())
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if cl == nil || cl.IsDeleted() {
		return nil, uc.abandon(original.ID(), errors.NewNotFoundError("client no longer exists"))
	}

	res, err := uc.resources.GetByID(ctx, original.ResourceID())
	if err != nil {
		return nil, fmt.Errorf("failed to load resource: %w", err)
	}
	if res == nil || res.IsDeleted() {
		return nil, uc.abandon(original.ID(), errors.NewNotFoundError("resource no longer exists"))
	}

	candidates, err := uc.policies.ListAuthorizing(ctx, original.AccountID(), res.ID(), cl.ActorID())
	if err != nil {
		return nil, fmt.Errorf("failed to list authorizing policies: %w", err)
	}
	if len(candidates) == 0 {
		return nil, uc.abandon(original.ID(), errors.NewForbiddenError("no surviving policy authorizes access"))
	}

	// Last known posture only. Attributes we cannot re-derive offline
	// (country, provider) evaluate as absent, so policies conditioned on
	// them do not renew silently.
	clientCtx := policy.ClientContext{
		RemoteIP: net.ParseIP(cl.LastSeenRemoteIP()),
		Verified: cl.IsVerified(),
		Now:      now,
		Location: biztime.Location(),
	}
	authorizedUntil := original.ExpiresAt()
	granted, expiresAt, err := policy.LongestConforming(candidates, clientCtx, authorizedUntil)
	if err != nil {
		return nil, uc.abandon(original.ID(), err)
	}

	membership, err := uc.memberships.GetByActorAndGroup(ctx, cl.ActorID(), granted.ActorGroupID())
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	if membership == nil {
		return nil, uc.abandon(original.ID(), errors.NewForbiddenError("membership no longer grants access"))
	}

	selected, err := uc.pickGateway(ctx, original, res)
	if err != nil {
		return nil, uc.abandon(original.ID(), err)
	}

	replacement, err := flow.NewFlow(
		original.AccountID(),
		cl.ID(),
		selected.ID(),
		res.ID(),
		granted.ID(),
		membership.ID(),
		original.TokenID(),
		original.ClientRemoteIP(),
		selected.LastSeenRemoteIP(),
		original.ClientUserAgent(),
		expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create replacement flow: %w", err)
	}
	if err := uc.flows.Create(ctx, replacement); err != nil {
		return nil, fmt.Errorf("failed to save replacement flow: %w", err)
	}

	msg := pubsub.Message{
		Kind:       pubsub.KindAllowAccess,
		FlowID:     replacement.ID(),
		ClientID:   replacement.ClientID(),
		GatewayID:  replacement.GatewayID(),
		ResourceID: replacement.ResourceID(),
		PolicyID:   replacement.PolicyID(),
		GroupID:    granted.ActorGroupID(),
	}
	if err := uc.bus.Publish(ctx, pubsub.GatewayTopic(replacement.GatewayID()), msg); err != nil {
		uc.logger.Warnw("failed to publish replacement grant", "flow_id", replacement.ID(), "error", err)
	}

	uc.logger.Infow("flow reauthorized",
		"original_flow_id", original.ID(),
		"flow_sid", replacement.SID(),
		"policy_id", granted.ID(),
		"expires_at", expiresAt,
	)
	return &ReauthorizeFlowResult{
		FlowSID:    replacement.SID(),
		GatewaySID: selected.SID(),
	}, nil
}

// pickGateway re-derives the gateway within the resource's sites, preferring
// the one already serving the client so an existing tunnel survives the
// policy churn.
func (uc *ReauthorizeFlowUseCase) pickGateway(ctx context.Context, original *flow.Flow, res *resource.Resource) (*gateway.Gateway, error) {
	siteIDs, err := uc.resources.SiteIDs(ctx, res.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve resource sites: %w", err)
	}
	if len(siteIDs) == 0 {
		return nil, errors.NewNotFoundError("resource is not exposed through any site")
	}
	all, err := uc.gateways.ListBySites(ctx, siteIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list gateways: %w", err)
	}
	online, err := uc.online.OnlineGatewaySIDs(ctx, siteIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to query gateway presence: %w", err)
	}

	var connected []*gateway.Gateway
	var preferred []string
	for _, g := range all {
		if !online[g.SID()] {
			continue
		}
		connected = append(connected, g)
		if g.ID() == original.GatewayID() {
			preferred = append(preferred, g.SID())
		}
	}
	if len(connected) == 0 {
		return nil, errors.NewNotFoundError("no gateway is online for the resource")
	}
	return gateway.SelectGateway(nil, connected, preferred), nil
}

func (uc *ReauthorizeFlowUseCase) abandon(flowID uint, reason error) error {
	uc.logger.Infow("abandoning flow reauthorization", "flow_id", flowID, "reason", reason)
	return reason
}
