package usecases

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/domain/client"
	"github.com/cordon-zt/cordon/internal/domain/feature"
	"github.com/cordon-zt/cordon/internal/domain/flow"
	"github.com/cordon-zt/cordon/internal/domain/gateway"
	"github.com/cordon-zt/cordon/internal/domain/policy"
	"github.com/cordon-zt/cordon/internal/domain/relay"
	"github.com/cordon-zt/cordon/internal/domain/resource"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/biztime"
	"github.com/cordon-zt/cordon/internal/shared/errors"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// CreateFlowCommand represents a client asking to open a tunnel to a
// resource. Geo fields are optional; without them gateway selection is
// uniform random.
type CreateFlowCommand struct {
	Subject              authorization.Subject
	ClientSID            string
	ResourceSID          string
	PreferredGatewaySIDs []string
	Country              string
	ProviderID           string
	ClientLat            *float64
	ClientLon            *float64
}

// RelayEndpoint is one relay the client may dial.
type RelayEndpoint struct {
	SID  string `json:"sid"`
	IPv4 string `json:"ipv4,omitempty"`
	IPv6 string `json:"ipv6,omitempty"`
	Port uint16 `json:"port"`
}

// CreateFlowResult carries everything the client needs to establish the
// tunnel.
type CreateFlowResult struct {
	FlowSID          string          `json:"flow_sid"`
	GatewaySID       string          `json:"gateway_sid"`
	GatewayPublicKey string          `json:"gateway_public_key"`
	ResourceAddress  string          `json:"resource_address"`
	RelayMode        string          `json:"relay_mode"`
	RelayTransport   string          `json:"relay_transport"`
	Relays           []RelayEndpoint `json:"relays,omitempty"`
	ExpiresAt        time.Time       `json:"expires_at"`
}

// CreateFlowUseCase authorizes a client against a resource and materializes
// the decision as a flow record. The insert is deliberately not guarded
// against concurrent duplicates for the same tuple; reads deduplicate by
// most recent.
type CreateFlowUseCase struct {
	checker     authorization.Checker
	clients     client.Repository
	resources   resource.Repository
	policies    policy.Repository
	memberships actor.MembershipRepository
	gateways    gateway.Repository
	sites       gateway.SiteRepository
	relays      relay.Repository
	features    feature.Repository
	flows       flow.Repository
	online      OnlineDirectory
	bus         pubsub.Bus
	logger      logger.Interface
}

// NewCreateFlowUseCase creates a new CreateFlowUseCase.
func NewCreateFlowUseCase(
	checker authorization.Checker,
	clients client.Repository,
	resources resource.Repository,
	policies policy.Repository,
	memberships actor.MembershipRepository,
	gateways gateway.Repository,
	sites gateway.SiteRepository,
	relays relay.Repository,
	features feature.Repository,
	flows flow.Repository,
	online OnlineDirectory,
	bus pubsub.Bus,
	logger logger.Interface,
) *CreateFlowUseCase {
	return &CreateFlowUseCase{
		checker:     checker,
		clients:     clients,
		resources:   resources,
		policies:    policies,
		memberships: memberships,
		gateways:    gateways,
		sites:       sites,
		relays:      relays,
		features:    features,
		flows:       flows,
		online:      online,
		bus:         bus,
		logger:      logger,
	}
}

// Execute runs the full authorization pipeline: permission check, policy
// conformance, gateway selection, relay strategy, flow insert, grant event.
func (uc *CreateFlowUseCase) Execute(ctx context.Context, cmd CreateFlowCommand) (*CreateFlowResult, error) {
	if err := uc.validateCommand(cmd); err != nil {
		return nil, err
	}
	if err := uc.checker.EnsureHasPermission(cmd.Subject, authorization.PermissionCreateFlows); err != nil {
		return nil, err
	}

	now := biztime.NowUTC()

	cl, err := uc.resolveClient(ctx, cmd)
	if err != nil {
		return nil, err
	}

	res, err := uc.resolveResource(ctx, cmd)
	if err != nil {
		return nil, err
	}

	candidates, err := uc.policies.ListAuthorizing(ctx, cmd.Subject.AccountID, res.ID(), cmd.Subject.ActorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list authorizing policies: %w", err)
	}
	if len(candidates) == 0 {
		uc.logger.Warnw("no policy authorizes access",
			"actor_id", cmd.Subject.ActorID, "resource_id", res.ID())
		return nil, errors.NewForbiddenError("no policy authorizes access to the resource")
	}

	clientCtx := policy.ClientContext{
		RemoteIP:   net.ParseIP(cmd.Subject.Context.RemoteIP),
		Country:    cmd.Country,
		Verified:   cl.IsVerified(),
		ProviderID: cmd.ProviderID,
		Now:        now,
		Location:   biztime.Location(),
	}
	granted, expiresAt, err := policy.LongestConforming(candidates, clientCtx, cmd.Subject.ExpiresAt)
	if err != nil {
		uc.logger.Infow("client does not conform to any policy",
			"actor_id", cmd.Subject.ActorID, "resource_id", res.ID(), "error", err)
		return nil, err
	}

	membership, err := uc.memberships.GetByActorAndGroup(ctx, cmd.Subject.ActorID, granted.ActorGroupID())
	if err != nil {
		return nil, fmt.Errorf("failed to load membership: %w", err)
	}
	if membership == nil {
		// The authorizing membership vanished between the policy query and
		// now; the grant no longer stands.
		return nil, errors.NewForbiddenError("membership no longer grants access to the resource")
	}

	siteIDs, err := uc.resources.SiteIDs(ctx, res.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to resolve resource sites: %w", err)
	}
	selected, connectedSites, err := uc.pickGateway(ctx, cmd, siteIDs)
	if err != nil {
		return nil, err
	}

	mode, transport, endpoints, err := uc.relayPlan(ctx, cmd.Subject.AccountID, connectedSites)
	if err != nil {
		return nil, err
	}

	f, err := flow.NewFlow(
		cmd.Subject.AccountID,
		cl.ID(),
		selected.ID(),
		res.ID(),
		granted.ID(),
		membership.ID(),
		cmd.Subject.TokenID,
		cmd.Subject.Context.RemoteIP,
		selected.LastSeenRemoteIP(),
		cmd.Subject.Context.UserAgent,
		expiresAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create flow: %w", err)
	}
	if err := uc.flows.Create(ctx, f); err != nil {
		uc.logger.Errorw("failed to persist flow", "error", err)
		return nil, fmt.Errorf("failed to save flow: %w", err)
	}

	uc.publishGrant(ctx, f, granted.ActorGroupID())

	uc.logger.Infow("flow created",
		"flow_sid", f.SID(),
		"client_id", cl.ID(),
		"gateway_id", selected.ID(),
		"resource_id", res.ID(),
		"policy_id", granted.ID(),
		"expires_at", expiresAt,
	)
	return &CreateFlowResult{
		FlowSID:          f.SID(),
		GatewaySID:       selected.SID(),
		GatewayPublicKey: selected.PublicKey(),
		ResourceAddress:  res.Address(),
		RelayMode:        string(mode),
		RelayTransport:   string(transport),
		Relays:           endpoints,
		ExpiresAt:        expiresAt,
	}, nil
}

func (uc *CreateFlowUseCase) validateCommand(cmd CreateFlowCommand) error {
	if cmd.ClientSID == "" {
		return errors.NewValidationError("client_sid is required")
	}
	if cmd.ResourceSID == "" {
		return errors.NewValidationError("resource_sid is required")
	}
	if (cmd.ClientLat == nil) != (cmd.ClientLon == nil) {
		return errors.NewValidationError("client location requires both latitude and longitude")
	}
	return nil
}

func (uc *CreateFlowUseCase) resolveClient(ctx context.Context, cmd CreateFlowCommand) (*client.Client, error) {
	cl, err := uc.clients.GetBySID(ctx, cmd.ClientSID)
	if err != nil {
		return nil, fmt.Errorf("failed to load client: %w", err)
	}
	if cl == nil || cl.IsDeleted() || cl.AccountID() != cmd.Subject.AccountID {
		return nil, errors.NewNotFoundError("client not found")
	}
	if cl.ActorID() != cmd.Subject.ActorID {
		return nil, errors.NewForbiddenError("client belongs to a different actor")
	}
	return cl, nil
}

func (uc *CreateFlowUseCase) resolveResource(ctx context.Context, cmd CreateFlowCommand) (*resource.Resource, error) {
	res, err := uc.resources.GetBySID(ctx, cmd.ResourceSID)
	if err != nil {
		return nil, fmt.Errorf("failed to load resource: %w", err)
	}
	if res == nil || res.IsDeleted() || res.AccountID() != cmd.Subject.AccountID {
		return nil, errors.NewNotFoundError("resource not found")
	}
	return res, nil
}

// pickGateway narrows the resource's gateways to those with a live session
// and runs the distance/version selection over the survivors. It returns the
// sites the winner can serve so the relay strategy sees the same scope.
func (uc *CreateFlowUseCase) pickGateway(ctx context.Context, cmd CreateFlowCommand, siteIDs []uint) (*gateway.Gateway, []*gateway.Site, error) {
	if len(siteIDs) == 0 {
		return nil, nil, errors.NewNotFoundError("resource is not exposed through any site")
	}

	all, err := uc.gateways.ListBySites(ctx, siteIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list gateways: %w", err)
	}
	online, err := uc.online.OnlineGatewaySIDs(ctx, siteIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to query gateway presence: %w", err)
	}
	var connected []*gateway.Gateway
	for _, g := range all {
		if online[g.SID()] {
			connected = append(connected, g)
		}
	}
	if len(connected) == 0 {
		return nil, nil, errors.NewNotFoundError("no gateway is online for the resource")
	}

	var geo *gateway.Location
	if cmd.ClientLat != nil && cmd.ClientLon != nil {
		geo = &gateway.Location{Lat: *cmd.ClientLat, Lon: *cmd.ClientLon}
	}
	selected := gateway.SelectGateway(geo, connected, cmd.PreferredGatewaySIDs)
	if selected == nil {
		return nil, nil, errors.NewNotFoundError("no gateway is online for the resource")
	}

	sites, err := uc.sites.ListByIDs(ctx, siteIDs)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load sites: %w", err)
	}
	return selected, sites, nil
}

// relayPlan derives the relay mode and transport from the strictest site
// routing policy. Self-hosted routing falls back to the managed fleet when
// the account's self-hosted relay feature is off.
func (uc *CreateFlowUseCase) relayPlan(ctx context.Context, accountID uint, sites []*gateway.Site) (gateway.RelayMode, gateway.RelayTransport, []RelayEndpoint, error) {
	mode, transport := gateway.RelayStrategy(sites)

	if mode == gateway.RelayModeSelfHosted {
		flag, err := uc.features.Get(ctx, accountID, feature.KeySelfHostedRelays)
		if err != nil {
			return "", "", nil, fmt.Errorf("failed to read feature flag: %w", err)
		}
		enabled := feature.KeySelfHostedRelays.Default()
		if flag != nil {
			enabled = flag.Enabled()
		}
		if !enabled {
			mode = gateway.RelayModeManaged
		}
	}

	if transport == gateway.RelayTransportSTUN {
		// STUN discovery needs no relay endpoints; the managed fleet is
		// addressed out of band.
		return mode, transport, nil, nil
	}

	usable, err := uc.relays.ListUsable(ctx, accountID)
	if err != nil {
		return "", "", nil, fmt.Errorf("failed to list relays: %w", err)
	}
	var endpoints []RelayEndpoint
	for _, r := range usable {
		if mode == gateway.RelayModeSelfHosted && r.IsGlobal() {
			continue
		}
		if mode == gateway.RelayModeManaged && !r.IsGlobal() {
			continue
		}
		endpoints = append(endpoints, RelayEndpoint{
			SID:  r.SID(),
			IPv4: r.IPv4(),
			IPv6: r.IPv6(),
			Port: r.Port(),
		})
	}
	return mode, transport, endpoints, nil
}

// publishGrant notifies the serving gateway. Best-effort: the gateway
// re-derives live flows on reconnect, so a dropped message only delays the
// grant until the client dials.
func (uc *CreateFlowUseCase) publishGrant(ctx context.Context, f *flow.Flow, groupID uint) {
	msg := pubsub.Message{
		Kind:       pubsub.KindAllowAccess,
		FlowID:     f.ID(),
		ClientID:   f.ClientID(),
		GatewayID:  f.GatewayID(),
		ResourceID: f.ResourceID(),
		PolicyID:   f.PolicyID(),
		GroupID:    groupID,
	}
	if err := uc.bus.Publish(ctx, pubsub.GatewayTopic(f.GatewayID()), msg); err != nil {
		uc.logger.Warnw("failed to publish flow grant", "flow_id", f.ID(), "error", err)
	}
}
