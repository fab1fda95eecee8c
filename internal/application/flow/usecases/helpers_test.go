package usecases

import (
	"context"
	"testing"
	"time"

	"github.com/cordon-zt/cordon/internal/application/flow/testutil"
	"github.com/cordon-zt/cordon/internal/domain/actor"
	"github.com/cordon-zt/cordon/internal/domain/client"
	"github.com/cordon-zt/cordon/internal/domain/feature"
	"github.com/cordon-zt/cordon/internal/domain/gateway"
	"github.com/cordon-zt/cordon/internal/domain/policy"
	"github.com/cordon-zt/cordon/internal/domain/relay"
	"github.com/cordon-zt/cordon/internal/domain/resource"
	"github.com/cordon-zt/cordon/internal/domain/token"
	"github.com/cordon-zt/cordon/internal/shared/authorization"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

const testAccountID = uint(1)

// flowFixture wires every collaborator a flow usecase needs plus one
// authorized client/resource/gateway constellation.
type flowFixture struct {
	checker     *testutil.MockChecker
	clients     *testutil.MockClientRepository
	resources   *testutil.MockResourceRepository
	policies    *testutil.MockPolicyRepository
	memberships *testutil.MockMembershipRepository
	gateways    *testutil.MockGatewayRepository
	sites       *testutil.MockSiteRepository
	relays      *testutil.MockRelayRepository
	features    *testutil.MockFeatureRepository
	flows       *testutil.MockFlowRepository
	online      *testutil.MockOnlineDirectory
	bus         *testutil.MockBus
	txMgr       *testutil.MockTransactor

	subject    authorization.Subject
	client     *client.Client
	resource   *resource.Resource
	site       *gateway.Site
	gateway    *gateway.Gateway
	policy     *policy.Policy
	membership *actor.Membership
}

func newFlowFixture(t *testing.T) *flowFixture {
	t.Helper()

	f := &flowFixture{
		checker:     testutil.NewMockChecker(),
		clients:     testutil.NewMockClientRepository(),
		resources:   testutil.NewMockResourceRepository(),
		policies:    testutil.NewMockPolicyRepository(),
		memberships: testutil.NewMockMembershipRepository(),
		gateways:    testutil.NewMockGatewayRepository(),
		sites:       testutil.NewMockSiteRepository(),
		relays:      testutil.NewMockRelayRepository(),
		features:    testutil.NewMockFeatureRepository(),
		flows:       testutil.NewMockFlowRepository(),
		online:      testutil.NewMockOnlineDirectory(),
		bus:         testutil.NewMockBus(),
		txMgr:       testutil.NewMockTransactor(),
	}

	f.subject = authorization.Subject{
		AccountID: testAccountID,
		ActorID:   1,
		TokenID:   1,
		ExpiresAt: time.Now().UTC().Add(12 * time.Hour),
		Context: token.Context{
			RemoteIP:  "203.0.113.5",
			UserAgent: "cordon-client/1.0",
			Type:      token.TypeClient,
		},
	}

	cl, err := client.NewClient(testAccountID, f.subject.ActorID, "laptop", "pk-client")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	f.client = cl
	f.clients.AddClient(cl)

	res, err := resource.NewResource(testAccountID, "intranet", "10.20.0.10")
	if err != nil {
		t.Fatalf("NewResource() error = %v", err)
	}
	f.resource = res
	f.resources.AddResource(res)

	f.site = addSite(t, f, gateway.RoutingManaged)
	connectSite(t, f, f.site)
	f.gateway = addOnlineGateway(t, f, f.site, "gw-1")

	membership, err := actor.NewMembership(testAccountID, f.subject.ActorID, 10)
	if err != nil {
		t.Fatalf("NewMembership() error = %v", err)
	}
	f.membership = membership
	f.memberships.AddMembership(membership)

	f.policy = addPolicy(t, f, membership.GroupID(), nil)

	return f
}

func (f *flowFixture) createUseCase() *CreateFlowUseCase {
	return NewCreateFlowUseCase(
		f.checker, f.clients, f.resources, f.policies, f.memberships,
		f.gateways, f.sites, f.relays, f.features, f.flows,
		f.online, f.bus, logger.NewNopLogger(),
	)
}

func (f *flowFixture) reauthorizeUseCase() *ReauthorizeFlowUseCase {
	return NewReauthorizeFlowUseCase(
		f.clients, f.resources, f.policies, f.memberships,
		f.gateways, f.flows, f.online, f.bus, logger.NewNopLogger(),
	)
}

func (f *flowFixture) expireUseCase() *ExpireFlowsUseCase {
	return NewExpireFlowsUseCase(f.flows, f.policies, f.txMgr, f.bus, logger.NewNopLogger())
}

func (f *flowFixture) disablePolicyUseCase() *DisablePolicyUseCase {
	return NewDisablePolicyUseCase(
		f.checker, f.policies, f.expireUseCase(), f.reauthorizeUseCase(),
		f.txMgr, logger.NewNopLogger(),
	)
}

func addSite(t *testing.T, f *flowFixture, routing gateway.Routing) *gateway.Site {
	t.Helper()
	s, err := gateway.NewSite(testAccountID, "site-"+string(routing), routing)
	if err != nil {
		t.Fatalf("NewSite() error = %v", err)
	}
	f.sites.AddSite(s)
	return s
}

func connectSite(t *testing.T, f *flowFixture, s *gateway.Site) {
	t.Helper()
	if err := f.resources.ConnectSite(context.Background(), f.resource.ID(), s.ID()); err != nil {
		t.Fatalf("ConnectSite() error = %v", err)
	}
}

func addOnlineGateway(t *testing.T, f *flowFixture, s *gateway.Site, name string) *gateway.Gateway {
	t.Helper()
	g, err := gateway.NewGateway(testAccountID, s.ID(), name, "pk-"+name)
	if err != nil {
		t.Fatalf("NewGateway() error = %v", err)
	}
	g.Seen("1.2.0", "198.51.100.7", nil)
	f.gateways.AddGateway(g)
	f.online.SetOnline(g.SID(), true)
	return g
}

func addPolicy(t *testing.T, f *flowFixture, groupID uint, conditions []policy.Condition) *policy.Policy {
	t.Helper()
	p, err := policy.NewPolicy(testAccountID, groupID, f.resource.ID(), conditions, "")
	if err != nil {
		t.Fatalf("NewPolicy() error = %v", err)
	}
	f.policies.AddPolicy(p)
	return p
}

func enableSelfHostedRelays(t *testing.T, f *flowFixture) {
	t.Helper()
	flag, err := feature.NewFlag(testAccountID, feature.KeySelfHostedRelays, true)
	if err != nil {
		t.Fatalf("NewFlag() error = %v", err)
	}
	if err := f.features.Upsert(context.Background(), flag); err != nil {
		t.Fatalf("Upsert() error = %v", err)
	}
}

func addRelay(t *testing.T, f *flowFixture, accountID *uint, name string) *relay.Relay {
	t.Helper()
	r, err := relay.NewRelay(accountID, name, "192.0.2.10", "", 3478)
	if err != nil {
		t.Fatalf("NewRelay() error = %v", err)
	}
	f.relays.AddRelay(r)
	return r
}
