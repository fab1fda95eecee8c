package usecases

import (
	"context"
	"testing"

	"github.com/cordon-zt/cordon/internal/domain/gateway"
	"github.com/cordon-zt/cordon/internal/domain/policy"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/errors"
)

// TestCreateFlow_Success verifies the full authorization pipeline: the flow
// is persisted with the token's expiry as the cap and the serving gateway is
// told about the grant.
func TestCreateFlow_Success(t *testing.T) {
	f := newFlowFixture(t)
	uc := f.createUseCase()

	result, err := uc.Execute(context.Background(), CreateFlowCommand{
		Subject:     f.subject,
		ClientSID:   f.client.SID(),
		ResourceSID: f.resource.SID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.GatewaySID != f.gateway.SID() {
		t.Errorf("result.GatewaySID = %v, want %v", result.GatewaySID, f.gateway.SID())
	}
	if result.GatewayPublicKey != f.gateway.PublicKey() {
		t.Errorf("result.GatewayPublicKey = %v, want %v", result.GatewayPublicKey, f.gateway.PublicKey())
	}
	if result.ResourceAddress != f.resource.Address() {
		t.Errorf("result.ResourceAddress = %v, want %v", result.ResourceAddress, f.resource.Address())
	}
	// The only policy is unconditional, so the token expiry is the cap.
	if !result.ExpiresAt.Equal(f.subject.ExpiresAt) {
		t.Errorf("result.ExpiresAt = %v, want token expiry %v", result.ExpiresAt, f.subject.ExpiresAt)
	}

	saved, err := f.flows.GetBySID(context.Background(), result.FlowSID)
	if err != nil {
		t.Fatalf("GetBySID() error = %v", err)
	}
	if saved == nil {
		t.Fatal("flow was not saved to repository")
	}
	if saved.PolicyID() != f.policy.ID() {
		t.Errorf("saved.PolicyID = %v, want %v", saved.PolicyID(), f.policy.ID())
	}
	if saved.MembershipID() != f.membership.ID() {
		t.Errorf("saved.MembershipID = %v, want %v", saved.MembershipID(), f.membership.ID())
	}
	if saved.TokenID() != f.subject.TokenID {
		t.Errorf("saved.TokenID = %v, want %v", saved.TokenID(), f.subject.TokenID)
	}

	grants := f.bus.PublishedOfKind(pubsub.KindAllowAccess)
	if len(grants) != 1 {
		t.Fatalf("allow_access publishes = %d, want 1", len(grants))
	}
	if grants[0].Topic != pubsub.GatewayTopic(f.gateway.ID()) {
		t.Errorf("grant topic = %v, want %v", grants[0].Topic, pubsub.GatewayTopic(f.gateway.ID()))
	}
	if grants[0].Message.FlowID != saved.ID() {
		t.Errorf("grant FlowID = %v, want %v", grants[0].Message.FlowID, saved.ID())
	}
	if grants[0].Message.GroupID != f.policy.ActorGroupID() {
		t.Errorf("grant GroupID = %v, want %v", grants[0].Message.GroupID, f.policy.ActorGroupID())
	}
}

// TestCreateFlow_PermissionDenied verifies nothing is persisted or published
// when the subject lacks flows:create.
func TestCreateFlow_PermissionDenied(t *testing.T) {
	f := newFlowFixture(t)
	f.checker.Deny(authorization.PermissionCreateFlows, errors.NewUnauthorizedError("permission denied"))
	uc := f.createUseCase()

	_, err := uc.Execute(context.Background(), CreateFlowCommand{
		Subject:     f.subject,
		ClientSID:   f.client.SID(),
		ResourceSID: f.resource.SID(),
	})
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
	if len(f.bus.Published()) != 0 {
		t.Errorf("published %d messages, want 0", len(f.bus.Published()))
	}
}

// TestCreateFlow_NoConformingPolicy verifies the violated property names of
// every failing policy are surfaced, deduplicated, and no flow is created.
func TestCreateFlow_NoConformingPolicy(t *testing.T) {
	f := newFlowFixture(t)
	// Replace the unconditional policy with two that both require a
	// verified client; the fixture client is unverified.
	f.policy.Delete()
	addPolicy(t, f, f.membership.GroupID(), []policy.Condition{{
		Property: policy.PropertyClientVerified,
		Operator: policy.OperatorIs,
		Values:   []string{"true"},
	}})
	addPolicy(t, f, f.membership.GroupID(), []policy.Condition{{
		Property: policy.PropertyClientVerified,
		Operator: policy.OperatorIs,
		Values:   []string{"true"},
	}})
	uc := f.createUseCase()

	_, err := uc.Execute(context.Background(), CreateFlowCommand{
		Subject:     f.subject,
		ClientSID:   f.client.SID(),
		ResourceSID: f.resource.SID(),
	})
	fErr := errors.GetForbiddenError(err)
	if fErr == nil {
		t.Fatalf("Execute() error = %v, want ForbiddenError", err)
	}
	if len(fErr.Violated) != 1 || fErr.Violated[0] != string(policy.PropertyClientVerified) {
		t.Errorf("Violated = %v, want [client_verified]", fErr.Violated)
	}
	live, _ := f.flows.ListLive(context.Background(), testAccountID, f.subject.ExpiresAt.Add(-1))
	if len(live) != 0 {
		t.Errorf("live flows = %d, want 0", len(live))
	}
}

// TestCreateFlow_LongestGrantWins verifies that among several conforming
// policies the one whose grant lasts longest authorizes the flow: an
// unconditional policy beats any time-bounded one.
func TestCreateFlow_LongestGrantWins(t *testing.T) {
	f := newFlowFixture(t)
	// The fixture policy is unconditional. Add a conforming but bounded
	// one; it must lose.
	bounded := addPolicy(t, f, f.membership.GroupID(), []policy.Condition{{
		Property: policy.PropertyTimeOfDay,
		Operator: policy.OperatorInWindows,
		Values:   []string{"00:00-24:00"},
	}})
	uc := f.createUseCase()

	result, err := uc.Execute(context.Background(), CreateFlowCommand{
		Subject:     f.subject,
		ClientSID:   f.client.SID(),
		ResourceSID: f.resource.SID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	saved, _ := f.flows.GetBySID(context.Background(), result.FlowSID)
	if saved.PolicyID() != f.policy.ID() {
		t.Errorf("saved.PolicyID = %v, want unconditional policy %v (not bounded %v)",
			saved.PolicyID(), f.policy.ID(), bounded.ID())
	}
}

// TestCreateFlow_OfflineGatewaysExcluded verifies a gateway without a live
// session is never selected even when it is the only one on a nearer site.
func TestCreateFlow_OfflineGatewaysExcluded(t *testing.T) {
	f := newFlowFixture(t)
	offline := addOnlineGateway(t, f, f.site, "gw-offline")
	f.online.SetOnline(offline.SID(), false)
	uc := f.createUseCase()

	for i := 0; i < 10; i++ {
		result, err := uc.Execute(context.Background(), CreateFlowCommand{
			Subject:     f.subject,
			ClientSID:   f.client.SID(),
			ResourceSID: f.resource.SID(),
		})
		if err != nil {
			t.Fatalf("Execute() unexpected error = %v", err)
		}
		if result.GatewaySID == offline.SID() {
			t.Fatal("selected a gateway without a live session")
		}
	}
}

// TestCreateFlow_NoOnlineGateway verifies the request fails cleanly when
// every gateway for the resource is offline.
func TestCreateFlow_NoOnlineGateway(t *testing.T) {
	f := newFlowFixture(t)
	f.online.SetOnline(f.gateway.SID(), false)
	uc := f.createUseCase()

	_, err := uc.Execute(context.Background(), CreateFlowCommand{
		Subject:     f.subject,
		ClientSID:   f.client.SID(),
		ResourceSID: f.resource.SID(),
	})
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
}

// TestCreateFlow_PreferredGatewayHonored verifies a satisfiable preference
// narrows the pick and an unsatisfiable one falls back to the full set.
func TestCreateFlow_PreferredGatewayHonored(t *testing.T) {
	f := newFlowFixture(t)
	second := addOnlineGateway(t, f, f.site, "gw-2")
	uc := f.createUseCase()

	for i := 0; i < 10; i++ {
		result, err := uc.Execute(context.Background(), CreateFlowCommand{
			Subject:              f.subject,
			ClientSID:            f.client.SID(),
			ResourceSID:          f.resource.SID(),
			PreferredGatewaySIDs: []string{second.SID()},
		})
		if err != nil {
			t.Fatalf("Execute() unexpected error = %v", err)
		}
		if result.GatewaySID != second.SID() {
			t.Fatalf("result.GatewaySID = %v, want preferred %v", result.GatewaySID, second.SID())
		}
	}

	result, err := uc.Execute(context.Background(), CreateFlowCommand{
		Subject:              f.subject,
		ClientSID:            f.client.SID(),
		ResourceSID:          f.resource.SID(),
		PreferredGatewaySIDs: []string{"gw_nonexistent"},
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.GatewaySID == "" {
		t.Error("unsatisfiable preference should fall back to the full set")
	}
}

// TestCreateFlow_RelayPlanManaged verifies managed routing yields the
// managed fleet over TURN with only global relay endpoints.
func TestCreateFlow_RelayPlanManaged(t *testing.T) {
	f := newFlowFixture(t)
	accountID := testAccountID
	global := addRelay(t, f, nil, "global-relay")
	addRelay(t, f, &accountID, "own-relay")
	uc := f.createUseCase()

	result, err := uc.Execute(context.Background(), CreateFlowCommand{
		Subject:     f.subject,
		ClientSID:   f.client.SID(),
		ResourceSID: f.resource.SID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.RelayMode != string(gateway.RelayModeManaged) {
		t.Errorf("RelayMode = %v, want managed", result.RelayMode)
	}
	if result.RelayTransport != string(gateway.RelayTransportTURN) {
		t.Errorf("RelayTransport = %v, want turn", result.RelayTransport)
	}
	if len(result.Relays) != 1 || result.Relays[0].SID != global.SID() {
		t.Fatalf("Relays = %v, want only the global relay %v", result.Relays, global.SID())
	}
}

// TestCreateFlow_RelayPlanStunOnly verifies the strictest site routing wins
// across sites and STUN-only carries no relay endpoints.
func TestCreateFlow_RelayPlanStunOnly(t *testing.T) {
	f := newFlowFixture(t)
	strict := addSite(t, f, gateway.RoutingStunOnly)
	connectSite(t, f, strict)
	addOnlineGateway(t, f, strict, "gw-strict")
	addRelay(t, f, nil, "global-relay")
	uc := f.createUseCase()

	result, err := uc.Execute(context.Background(), CreateFlowCommand{
		Subject:     f.subject,
		ClientSID:   f.client.SID(),
		ResourceSID: f.resource.SID(),
	})
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.RelayMode != string(gateway.RelayModeManaged) {
		t.Errorf("RelayMode = %v, want managed", result.RelayMode)
	}
	if result.RelayTransport != string(gateway.RelayTransportSTUN) {
		t.Errorf("RelayTransport = %v, want stun", result.RelayTransport)
	}
	if len(result.Relays) != 0 {
		t.Errorf("Relays = %v, want none for STUN-only", result.Relays)
	}
}

// TestCreateFlow_SelfHostedNeedsFeature verifies self-hosted routing falls
// back to the managed fleet unless the account's feature flag is on, and
// serves only the account's own relays when it is.
func TestCreateFlow_SelfHostedNeedsFeature(t *testing.T) {
	f := newFlowFixture(t)
	selfSite := addSite(t, f, gateway.RoutingSelfHosted)
	connectSite(t, f, selfSite)
	addOnlineGateway(t, f, selfSite, "gw-self")
	accountID := testAccountID
	addRelay(t, f, nil, "global-relay")
	own := addRelay(t, f, &accountID, "own-relay")
	uc := f.createUseCase()

	cmd := CreateFlowCommand{
		Subject:     f.subject,
		ClientSID:   f.client.SID(),
		ResourceSID: f.resource.SID(),
	}

	// Flag unset: the key defaults to off, so the managed fleet serves.
	result, err := uc.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.RelayMode != string(gateway.RelayModeManaged) {
		t.Errorf("RelayMode = %v, want managed fallback", result.RelayMode)
	}

	enableSelfHostedRelays(t, f)

	result, err = uc.Execute(context.Background(), cmd)
	if err != nil {
		t.Fatalf("Execute() unexpected error = %v", err)
	}
	if result.RelayMode != string(gateway.RelayModeSelfHosted) {
		t.Errorf("RelayMode = %v, want self_hosted", result.RelayMode)
	}
	if len(result.Relays) != 1 || result.Relays[0].SID != own.SID() {
		t.Fatalf("Relays = %v, want only the account relay %v", result.Relays, own.SID())
	}
}

// TestCreateFlow_ClientOfDifferentActor verifies a subject cannot open flows
// from a device registered to someone else.
func TestCreateFlow_ClientOfDifferentActor(t *testing.T) {
	f := newFlowFixture(t)
	subject := f.subject
	subject.ActorID = 99
	uc := f.createUseCase()

	_, err := uc.Execute(context.Background(), CreateFlowCommand{
		Subject:     subject,
		ClientSID:   f.client.SID(),
		ResourceSID: f.resource.SID(),
	})
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
}

// TestCreateFlow_MembershipGone verifies the grant is refused when the
// membership behind the winning policy no longer exists.
func TestCreateFlow_MembershipGone(t *testing.T) {
	f := newFlowFixture(t)
	if err := f.memberships.Delete(context.Background(), f.membership.ID()); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	uc := f.createUseCase()

	_, err := uc.Execute(context.Background(), CreateFlowCommand{
		Subject:     f.subject,
		ClientSID:   f.client.SID(),
		ResourceSID: f.resource.SID(),
	})
	if err == nil {
		t.Fatal("Execute() expected error, got nil")
	}
}
