// Package gateway contains the gateway and site aggregates and the pure
// selection algorithms: geographic gateway picking and routing-strictness
// relay strategy.
package gateway

import (
	"fmt"
	"time"

	"github.com/cordon-zt/cordon/internal/shared/id"
)

// Location is a last-seen geographic position.
type Location struct {
	Lat float64
	Lon float64
}

// Gateway is a routing endpoint belonging to a site. Online/offline is not a
// column; it is derived at read time from the presence registry.
type Gateway struct {
	id               uint
	sid              string
	accountID        uint
	siteID           uint
	name             string
	publicKey        string
	lastSeenVersion  string
	lastSeenLocation *Location
	lastSeenRemoteIP string
	deletedAt        *time.Time
	createdAt        time.Time
	updatedAt        time.Time
}

// NewGateway creates a new gateway in a site.
func NewGateway(accountID, siteID uint, name, publicKey string) (*Gateway, error) {
	if accountID == 0 || siteID == 0 {
		return nil, fmt.Errorf("account and site IDs are required")
	}
	if name == "" {
		return nil, fmt.Errorf("gateway name is required")
	}

	now := time.Now().UTC()
	return &Gateway{
		sid:       id.MustGenerateWithPrefix(id.PrefixGateway, id.DefaultLength),
		accountID: accountID,
		siteID:    siteID,
		name:      name,
		publicKey: publicKey,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructGateway rebuilds a gateway from persistence.
func ReconstructGateway(
	gatewayID uint,
	sid string,
	accountID, siteID uint,
	name, publicKey string,
	lastSeenVersion string,
	lastSeenLocation *Location,
	lastSeenRemoteIP string,
	deletedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*Gateway, error) {
	if gatewayID == 0 {
		return nil, fmt.Errorf("gateway ID cannot be zero")
	}
	return &Gateway{
		id:               gatewayID,
		sid:              sid,
		accountID:        accountID,
		siteID:           siteID,
		name:             name,
		publicKey:        publicKey,
		lastSeenVersion:  lastSeenVersion,
		lastSeenLocation: lastSeenLocation,
		lastSeenRemoteIP: lastSeenRemoteIP,
		deletedAt:        deletedAt,
		createdAt:        createdAt,
		updatedAt:        updatedAt,
	}, nil
}

func (g *Gateway) ID() uint                    { return g.id }
func (g *Gateway) SID() string                 { return g.sid }
func (g *Gateway) AccountID() uint             { return g.accountID }
func (g *Gateway) SiteID() uint                { return g.siteID }
func (g *Gateway) Name() string                { return g.name }
func (g *Gateway) PublicKey() string           { return g.publicKey }
func (g *Gateway) LastSeenVersion() string     { return g.lastSeenVersion }
func (g *Gateway) LastSeenLocation() *Location { return g.lastSeenLocation }
func (g *Gateway) LastSeenRemoteIP() string    { return g.lastSeenRemoteIP }
func (g *Gateway) DeletedAt() *time.Time       { return g.deletedAt }
func (g *Gateway) CreatedAt() time.Time        { return g.createdAt }
func (g *Gateway) UpdatedAt() time.Time        { return g.updatedAt }

// SetID assigns the database identity after the initial insert.
func (g *Gateway) SetID(gatewayID uint) error {
	if g.id != 0 {
		return fmt.Errorf("gateway ID already set")
	}
	g.id = gatewayID
	return nil
}

// IsDeleted reports whether the gateway is soft-deleted.
func (g *Gateway) IsDeleted() bool { return g.deletedAt != nil }

// Seen records connection metadata reported by a connecting gateway.
func (g *Gateway) Seen(version, remoteIP string, loc *Location) {
	g.lastSeenVersion = version
	g.lastSeenRemoteIP = remoteIP
	if loc != nil {
		g.lastSeenLocation = loc
	}
	g.updatedAt = time.Now().UTC()
}
