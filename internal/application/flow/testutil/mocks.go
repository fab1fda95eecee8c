// Package testutil provides mock implementations for testing the flow
// application layer.
package testutil

import (
	"context"
	"sync"
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
)

// MockFlowRepository is a mock implementation of flow.Repository.
type MockFlowRepository struct {
	mu     sync.RWMutex
	flows  map[uint]*flow.Flow
	nextID uint

	createError error
	expireError error

	// ActorOf and GroupMembers let scope expiry resolve indirect kinds
	// without a real join. Keyed by client ID and group ID respectively.
	ActorOf      map[uint]uint
	GroupMembers map[uint][]uint
}

// NewMockFlowRepository creates a new mock flow repository.
func NewMockFlowRepository() *MockFlowRepository {
	return &MockFlowRepository{
		flows:        make(map[uint]*flow.Flow),
		ActorOf:      make(map[uint]uint),
		GroupMembers: make(map[uint][]uint),
	}
}

// SetCreateError injects an error returned by Create.
func (m *MockFlowRepository) SetCreateError(err error) { m.createError = err }

// SetExpireError injects an error returned by ExpireAllFor.
func (m *MockFlowRepository) SetExpireError(err error) { m.expireError = err }

// Create inserts a flow, assigning an ID when unset.
func (m *MockFlowRepository) Create(ctx context.Context, f *flow.Flow) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createError != nil {
		return m.createError
	}
	if f.ID() == 0 {
		m.nextID++
		if err := f.SetID(m.nextID); err != nil {
			return err
		}
	}
	m.flows[f.ID()] = f
	return nil
}

// GetByID retrieves a flow by ID.
func (m *MockFlowRepository) GetByID(ctx context.Context, flowID uint) (*flow.Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flows[flowID], nil
}

// GetBySID retrieves a flow by short ID.
func (m *MockFlowRepository) GetBySID(ctx context.Context, sid string) (*flow.Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, f := range m.flows {
		if f.SID() == sid {
			return f, nil
		}
	}
	return nil, nil
}

// ListLive returns flows still live at the given instant.
func (m *MockFlowRepository) ListLive(ctx context.Context, accountID uint, now time.Time) ([]*flow.Flow, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var live []*flow.Flow
	for _, f := range m.flows {
		if f.AccountID() == accountID && f.IsLive(now) {
			live = append(live, f)
		}
	}
	return live, nil
}

// ExpireAllFor expires every live flow matching the scope. Indirect kinds
// resolve through ActorOf and GroupMembers.
func (m *MockFlowRepository) ExpireAllFor(ctx context.Context, scope flow.Scope, now time.Time) ([]*flow.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.expireError != nil {
		return nil, m.expireError
	}

	var expired []*flow.Flow
	for fid, f := range m.flows {
		if !f.IsLive(now) || !m.matches(f, scope) {
			continue
		}
		stamped, err := flow.ReconstructFlow(
			f.ID(), f.SID(),
			f.AccountID(), f.ClientID(), f.GatewayID(), f.ResourceID(),
			f.PolicyID(), f.MembershipID(), f.TokenID(),
			f.ClientRemoteIP(), f.GatewayRemoteIP(), f.ClientUserAgent(),
			f.ExpiresAt(), &now, f.CreatedAt(),
		)
		if err != nil {
			return nil, err
		}
		m.flows[fid] = stamped
		expired = append(expired, stamped)
	}
	return expired, nil
}

func (m *MockFlowRepository) matches(f *flow.Flow, scope flow.Scope) bool {
	switch scope.Kind {
	case flow.EntityClient:
		return f.ClientID() == scope.ID
	case flow.EntityGateway:
		return f.GatewayID() == scope.ID
	case flow.EntityResource:
		return f.ResourceID() == scope.ID
	case flow.EntityPolicy:
		return f.PolicyID() == scope.ID
	case flow.EntityMembership:
		return f.MembershipID() == scope.ID
	case flow.EntityToken:
		return f.TokenID() == scope.ID
	case flow.EntityActor:
		return m.ActorOf[f.ClientID()] == scope.ID
	case flow.EntityGroup:
		for _, membershipID := range m.GroupMembers[scope.ID] {
			if f.MembershipID() == membershipID {
				return true
			}
		}
		return false
	default:
		return false
	}
}

// DeleteExpiredBefore removes flows whose expiry passed before cutoff.
func (m *MockFlowRepository) DeleteExpiredBefore(ctx context.Context, cutoff time.Time, batch int) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var deleted int64
	for fid, f := range m.flows {
		if f.ExpiresAt().Before(cutoff) {
			delete(m.flows, fid)
			deleted++
			if batch > 0 && deleted >= int64(batch) {
				break
			}
		}
	}
	return deleted, nil
}

// MockPolicyRepository is a mock implementation of policy.Repository.
type MockPolicyRepository struct {
	mu       sync.RWMutex
	policies map[uint]*policy.Policy
	nextID   uint

	// Authorizing lists the policy IDs returned by ListAuthorizing per
	// (resourceID, actorID). Unset pairs fall back to every active policy
	// on the resource.
	Authorizing map[[2]uint][]uint
}

// NewMockPolicyRepository creates a new mock policy repository.
func NewMockPolicyRepository() *MockPolicyRepository {
	return &MockPolicyRepository{
		policies:    make(map[uint]*policy.Policy),
		Authorizing: make(map[[2]uint][]uint),
	}
}

// AddPolicy seeds a policy, assigning an ID when unset.
func (m *MockPolicyRepository) AddPolicy(p *policy.Policy) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p.ID() == 0 {
		m.nextID++
		_ = p.SetID(m.nextID)
	}
	m.policies[p.ID()] = p
}

// Create inserts a policy.
func (m *MockPolicyRepository) Create(ctx context.Context, p *policy.Policy) error {
	m.AddPolicy(p)
	return nil
}

// GetByID retrieves a policy by ID.
func (m *MockPolicyRepository) GetByID(ctx context.Context, policyID uint) (*policy.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.policies[policyID], nil
}

// GetBySID retrieves a policy by short ID.
func (m *MockPolicyRepository) GetBySID(ctx context.Context, sid string) (*policy.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.policies {
		if p.SID() == sid {
			return p, nil
		}
	}
	return nil, nil
}

// Update replaces a stored policy.
func (m *MockPolicyRepository) Update(ctx context.Context, p *policy.Policy) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.policies[p.ID()] = p
	return nil
}

// ListAuthorizing returns active policies granting the actor access.
func (m *MockPolicyRepository) ListAuthorizing(ctx context.Context, accountID, resourceID, actorID uint) ([]*policy.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if ids, ok := m.Authorizing[[2]uint{resourceID, actorID}]; ok {
		var out []*policy.Policy
		for _, pid := range ids {
			if p := m.policies[pid]; p != nil && p.IsActive() {
				out = append(out, p)
			}
		}
		return out, nil
	}

	var out []*policy.Policy
	for _, p := range m.policies {
		if p.AccountID() == accountID && p.ResourceID() == resourceID && p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListForResource returns active policies on a resource.
func (m *MockPolicyRepository) ListForResource(ctx context.Context, accountID, resourceID uint) ([]*policy.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*policy.Policy
	for _, p := range m.policies {
		if p.AccountID() == accountID && p.ResourceID() == resourceID && p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

// ListForGroup returns active policies targeting a group.
func (m *MockPolicyRepository) ListForGroup(ctx context.Context, accountID, groupID uint) ([]*policy.Policy, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*policy.Policy
	for _, p := range m.policies {
		if p.AccountID() == accountID && p.ActorGroupID() == groupID && p.IsActive() {
			out = append(out, p)
		}
	}
	return out, nil
}

// MockClientRepository is a mock implementation of client.Repository.
type MockClientRepository struct {
	mu      sync.RWMutex
	clients map[uint]*client.Client
	nextID  uint
}

// NewMockClientRepository creates a new mock client repository.
func NewMockClientRepository() *MockClientRepository {
	return &MockClientRepository{clients: make(map[uint]*client.Client)}
}

// AddClient seeds a client, assigning an ID when unset.
func (m *MockClientRepository) AddClient(c *client.Client) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.ID() == 0 {
		m.nextID++
		_ = c.SetID(m.nextID)
	}
	m.clients[c.ID()] = c
}

// Create inserts a client.
func (m *MockClientRepository) Create(ctx context.Context, c *client.Client) error {
	m.AddClient(c)
	return nil
}

// GetByID retrieves a client by ID.
func (m *MockClientRepository) GetByID(ctx context.Context, clientID uint) (*client.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.clients[clientID], nil
}

// GetBySID retrieves a client by short ID.
func (m *MockClientRepository) GetBySID(ctx context.Context, sid string) (*client.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.clients {
		if c.SID() == sid {
			return c, nil
		}
	}
	return nil, nil
}

// Update replaces a stored client.
func (m *MockClientRepository) Update(ctx context.Context, c *client.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.clients[c.ID()] = c
	return nil
}

// ListByActor lists clients belonging to an actor.
func (m *MockClientRepository) ListByActor(ctx context.Context, actorID uint) ([]*client.Client, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*client.Client
	for _, c := range m.clients {
		if c.ActorID() == actorID && !c.IsDeleted() {
			out = append(out, c)
		}
	}
	return out, nil
}

// MockResourceRepository is a mock implementation of resource.Repository.
type MockResourceRepository struct {
	mu        sync.RWMutex
	resources map[uint]*resource.Resource
	sites     map[uint][]uint
	nextID    uint
}

// NewMockResourceRepository creates a new mock resource repository.
func NewMockResourceRepository() *MockResourceRepository {
	return &MockResourceRepository{
		resources: make(map[uint]*resource.Resource),
		sites:     make(map[uint][]uint),
	}
}

// AddResource seeds a resource, assigning an ID when unset.
func (m *MockResourceRepository) AddResource(r *resource.Resource) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID() == 0 {
		m.nextID++
		_ = r.SetID(m.nextID)
	}
	m.resources[r.ID()] = r
}

// Create inserts a resource.
func (m *MockResourceRepository) Create(ctx context.Context, r *resource.Resource) error {
	m.AddResource(r)
	return nil
}

// GetByID retrieves a resource by ID.
func (m *MockResourceRepository) GetByID(ctx context.Context, resourceID uint) (*resource.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resources[resourceID], nil
}

// GetBySID retrieves a resource by short ID.
func (m *MockResourceRepository) GetBySID(ctx context.Context, sid string) (*resource.Resource, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.resources {
		if r.SID() == sid {
			return r, nil
		}
	}
	return nil, nil
}

// Update replaces a stored resource.
func (m *MockResourceRepository) Update(ctx context.Context, r *resource.Resource) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resources[r.ID()] = r
	return nil
}

// ConnectSite exposes the resource through a site.
func (m *MockResourceRepository) ConnectSite(ctx context.Context, resourceID, siteID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites[resourceID] = append(m.sites[resourceID], siteID)
	return nil
}

// DisconnectSite removes a site connection.
func (m *MockResourceRepository) DisconnectSite(ctx context.Context, resourceID, siteID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := m.sites[resourceID][:0]
	for _, id := range m.sites[resourceID] {
		if id != siteID {
			kept = append(kept, id)
		}
	}
	m.sites[resourceID] = kept
	return nil
}

// SiteIDs returns the sites the resource is exposed through.
func (m *MockResourceRepository) SiteIDs(ctx context.Context, resourceID uint) ([]uint, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sites[resourceID], nil
}

// MockMembershipRepository is a mock implementation of
// actor.MembershipRepository.
type MockMembershipRepository struct {
	mu          sync.RWMutex
	memberships map[uint]*actor.Membership
	nextID      uint

	createError error
}

// NewMockMembershipRepository creates a new mock membership repository.
func NewMockMembershipRepository() *MockMembershipRepository {
	return &MockMembershipRepository{memberships: make(map[uint]*actor.Membership)}
}

// SetCreateError injects an error returned by Create.
func (m *MockMembershipRepository) SetCreateError(err error) { m.createError = err }

// AddMembership seeds a membership, assigning an ID when unset.
func (m *MockMembershipRepository) AddMembership(mb *actor.Membership) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if mb.ID() == 0 {
		m.nextID++
		_ = mb.SetID(m.nextID)
	}
	m.memberships[mb.ID()] = mb
}

// Create inserts a membership.
func (m *MockMembershipRepository) Create(ctx context.Context, mb *actor.Membership) error {
	if m.createError != nil {
		return m.createError
	}
	m.AddMembership(mb)
	return nil
}

// Delete removes a membership.
func (m *MockMembershipRepository) Delete(ctx context.Context, membershipID uint) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.memberships, membershipID)
	return nil
}

// GetByActorAndGroup retrieves the membership edge for an actor in a group.
func (m *MockMembershipRepository) GetByActorAndGroup(ctx context.Context, actorID, groupID uint) (*actor.Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, mb := range m.memberships {
		if mb.ActorID() == actorID && mb.GroupID() == groupID {
			return mb, nil
		}
	}
	return nil, nil
}

// ListByGroup lists memberships of a group.
func (m *MockMembershipRepository) ListByGroup(ctx context.Context, groupID uint) ([]*actor.Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*actor.Membership
	for _, mb := range m.memberships {
		if mb.GroupID() == groupID {
			out = append(out, mb)
		}
	}
	return out, nil
}

// ListByActor lists memberships of an actor.
func (m *MockMembershipRepository) ListByActor(ctx context.Context, actorID uint) ([]*actor.Membership, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*actor.Membership
	for _, mb := range m.memberships {
		if mb.ActorID() == actorID {
			out = append(out, mb)
		}
	}
	return out, nil
}

// MockGatewayRepository is a mock implementation of gateway.Repository.
type MockGatewayRepository struct {
	mu       sync.RWMutex
	gateways map[uint]*gateway.Gateway
	nextID   uint
}

// NewMockGatewayRepository creates a new mock gateway repository.
func NewMockGatewayRepository() *MockGatewayRepository {
	return &MockGatewayRepository{gateways: make(map[uint]*gateway.Gateway)}
}

// AddGateway seeds a gateway, assigning an ID when unset.
func (m *MockGatewayRepository) AddGateway(g *gateway.Gateway) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if g.ID() == 0 {
		m.nextID++
		_ = g.SetID(m.nextID)
	}
	m.gateways[g.ID()] = g
}

// Create inserts a gateway.
func (m *MockGatewayRepository) Create(ctx context.Context, g *gateway.Gateway) error {
	m.AddGateway(g)
	return nil
}

// GetByID retrieves a gateway by ID.
func (m *MockGatewayRepository) GetByID(ctx context.Context, gatewayID uint) (*gateway.Gateway, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gateways[gatewayID], nil
}

// GetBySID retrieves a gateway by short ID.
func (m *MockGatewayRepository) GetBySID(ctx context.Context, sid string) (*gateway.Gateway, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, g := range m.gateways {
		if g.SID() == sid {
			return g, nil
		}
	}
	return nil, nil
}

// Update replaces a stored gateway.
func (m *MockGatewayRepository) Update(ctx context.Context, g *gateway.Gateway) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.gateways[g.ID()] = g
	return nil
}

// ListBySite lists gateways attached to a site.
func (m *MockGatewayRepository) ListBySite(ctx context.Context, siteID uint) ([]*gateway.Gateway, error) {
	return m.ListBySites(ctx, []uint{siteID})
}

// ListBySites lists gateways attached to any of the sites.
func (m *MockGatewayRepository) ListBySites(ctx context.Context, siteIDs []uint) ([]*gateway.Gateway, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	wanted := make(map[uint]bool, len(siteIDs))
	for _, id := range siteIDs {
		wanted[id] = true
	}
	var out []*gateway.Gateway
	for _, g := range m.gateways {
		if wanted[g.SiteID()] && !g.IsDeleted() {
			out = append(out, g)
		}
	}
	return out, nil
}

// MockSiteRepository is a mock implementation of gateway.SiteRepository.
type MockSiteRepository struct {
	mu     sync.RWMutex
	sites  map[uint]*gateway.Site
	nextID uint
}

// NewMockSiteRepository creates a new mock site repository.
func NewMockSiteRepository() *MockSiteRepository {
	return &MockSiteRepository{sites: make(map[uint]*gateway.Site)}
}

// AddSite seeds a site, assigning an ID when unset.
func (m *MockSiteRepository) AddSite(s *gateway.Site) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s.ID() == 0 {
		m.nextID++
		_ = s.SetID(m.nextID)
	}
	m.sites[s.ID()] = s
}

// Create inserts a site.
func (m *MockSiteRepository) Create(ctx context.Context, s *gateway.Site) error {
	m.AddSite(s)
	return nil
}

// GetByID retrieves a site by ID.
func (m *MockSiteRepository) GetByID(ctx context.Context, siteID uint) (*gateway.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.sites[siteID], nil
}

// GetBySID retrieves a site by short ID.
func (m *MockSiteRepository) GetBySID(ctx context.Context, sid string) (*gateway.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.sites {
		if s.SID() == sid {
			return s, nil
		}
	}
	return nil, nil
}

// Update replaces a stored site.
func (m *MockSiteRepository) Update(ctx context.Context, s *gateway.Site) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sites[s.ID()] = s
	return nil
}

// ListByIDs retrieves sites by ID.
func (m *MockSiteRepository) ListByIDs(ctx context.Context, siteIDs []uint) ([]*gateway.Site, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*gateway.Site
	for _, id := range siteIDs {
		if s := m.sites[id]; s != nil {
			out = append(out, s)
		}
	}
	return out, nil
}

// MockRelayRepository is a mock implementation of relay.Repository.
type MockRelayRepository struct {
	mu     sync.RWMutex
	relays map[uint]*relay.Relay
	nextID uint
}

// NewMockRelayRepository creates a new mock relay repository.
func NewMockRelayRepository() *MockRelayRepository {
	return &MockRelayRepository{relays: make(map[uint]*relay.Relay)}
}

// AddRelay seeds a relay, assigning an ID when unset.
func (m *MockRelayRepository) AddRelay(r *relay.Relay) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if r.ID() == 0 {
		m.nextID++
		_ = r.SetID(m.nextID)
	}
	m.relays[r.ID()] = r
}

// Create inserts a relay.
func (m *MockRelayRepository) Create(ctx context.Context, r *relay.Relay) error {
	m.AddRelay(r)
	return nil
}

// GetByID retrieves a relay by ID.
func (m *MockRelayRepository) GetByID(ctx context.Context, relayID uint) (*relay.Relay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.relays[relayID], nil
}

// GetBySID retrieves a relay by short ID.
func (m *MockRelayRepository) GetBySID(ctx context.Context, sid string) (*relay.Relay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, r := range m.relays {
		if r.SID() == sid {
			return r, nil
		}
	}
	return nil, nil
}

// Update replaces a stored relay.
func (m *MockRelayRepository) Update(ctx context.Context, r *relay.Relay) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.relays[r.ID()] = r
	return nil
}

// ListUsable returns the account's relays plus the global fleet.
func (m *MockRelayRepository) ListUsable(ctx context.Context, accountID uint) ([]*relay.Relay, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*relay.Relay
	for _, r := range m.relays {
		if r.IsDeleted() {
			continue
		}
		if r.IsGlobal() || *r.AccountID() == accountID {
			out = append(out, r)
		}
	}
	return out, nil
}

// MockFeatureRepository is a mock implementation of feature.Repository.
type MockFeatureRepository struct {
	mu     sync.RWMutex
	flags  map[uint]map[feature.Key]*feature.Flag
	nextID uint
}

// NewMockFeatureRepository creates a new mock feature repository.
func NewMockFeatureRepository() *MockFeatureRepository {
	return &MockFeatureRepository{flags: make(map[uint]map[feature.Key]*feature.Flag)}
}

// Get retrieves a flag, nil when the account never set the key.
func (m *MockFeatureRepository) Get(ctx context.Context, accountID uint, key feature.Key) (*feature.Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.flags[accountID][key], nil
}

// Upsert stores a flag.
func (m *MockFeatureRepository) Upsert(ctx context.Context, flag *feature.Flag) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if flag.ID() == 0 {
		m.nextID++
		_ = flag.SetID(m.nextID)
	}
	if m.flags[flag.AccountID()] == nil {
		m.flags[flag.AccountID()] = make(map[feature.Key]*feature.Flag)
	}
	m.flags[flag.AccountID()][flag.Key()] = flag
	return nil
}

// ListByAccount lists an account's explicitly-set flags.
func (m *MockFeatureRepository) ListByAccount(ctx context.Context, accountID uint) ([]*feature.Flag, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []*feature.Flag
	for _, flag := range m.flags[accountID] {
		out = append(out, flag)
	}
	return out, nil
}

// MockOnlineDirectory reports a fixed set of online gateway SIDs.
type MockOnlineDirectory struct {
	mu     sync.RWMutex
	online map[string]bool
}

// NewMockOnlineDirectory creates a new mock online directory.
func NewMockOnlineDirectory() *MockOnlineDirectory {
	return &MockOnlineDirectory{online: make(map[string]bool)}
}

// SetOnline marks a gateway SID as holding a live session.
func (m *MockOnlineDirectory) SetOnline(sid string, online bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.online[sid] = online
}

// OnlineGatewaySIDs returns the marked set regardless of sites.
func (m *MockOnlineDirectory) OnlineGatewaySIDs(ctx context.Context, siteIDs []uint) (map[string]bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]bool, len(m.online))
	for sid, on := range m.online {
		out[sid] = on
	}
	return out, nil
}

// MockChecker is a mock implementation of authorization.Checker.
type MockChecker struct {
	mu     sync.Mutex
	denied map[authorization.Permission]error
	calls  []authorization.Permission
}

// NewMockChecker creates a checker that allows everything.
func NewMockChecker() *MockChecker {
	return &MockChecker{denied: make(map[authorization.Permission]error)}
}

// Deny makes the given permission check fail with err.
func (m *MockChecker) Deny(permission authorization.Permission, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.denied[permission] = err
}

// EnsureHasPermission records the check and returns any injected denial.
func (m *MockChecker) EnsureHasPermission(subject authorization.Subject, permission authorization.Permission) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, permission)
	return m.denied[permission]
}

// Calls returns the permissions checked so far.
func (m *MockChecker) Calls() []authorization.Permission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]authorization.Permission(nil), m.calls...)
}

// PublishedMessage records one bus publish.
type PublishedMessage struct {
	Topic   string
	Message pubsub.Message
}

// MockBus records published messages; Subscribe is a no-op.
type MockBus struct {
	mu        sync.Mutex
	published []PublishedMessage
}

// NewMockBus creates a new recording bus.
func NewMockBus() *MockBus {
	return &MockBus{}
}

// Publish records the message.
func (m *MockBus) Publish(ctx context.Context, topic string, msg pubsub.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, PublishedMessage{Topic: topic, Message: msg})
	return nil
}

// Subscribe is a no-op returning an empty unsubscribe function.
func (m *MockBus) Subscribe(topic string, handler pubsub.Handler) (func(), error) {
	return func() {}, nil
}

// Published returns a copy of the recorded messages.
func (m *MockBus) Published() []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]PublishedMessage(nil), m.published...)
}

// PublishedOfKind filters recorded messages by kind.
func (m *MockBus) PublishedOfKind(kind pubsub.Kind) []PublishedMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []PublishedMessage
	for _, pm := range m.published {
		if pm.Message.Kind == kind {
			out = append(out, pm)
		}
	}
	return out
}

// MockTransactor runs the function directly without a real transaction.
type MockTransactor struct {
	// BeforeCommit runs after fn succeeds, before RunInTransaction
	// returns. Used to interleave concurrent callers in race tests.
	BeforeCommit func()
}

// NewMockTransactor creates a pass-through transactor.
func NewMockTransactor() *MockTransactor {
	return &MockTransactor{}
}

// RunInTransaction invokes fn with the same context.
func (m *MockTransactor) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	if err := fn(ctx); err != nil {
		return err
	}
	if m.BeforeCommit != nil {
		m.BeforeCommit()
	}
	return nil
}
