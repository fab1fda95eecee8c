package gateway

import (
	"fmt"
	"time"

	"github.com/cordon-zt/cordon/internal/shared/id"
)

// Routing is a site's routing strictness. Stricter values forbid more relay
// involvement.
type Routing string

const (
	// RoutingManaged allows the managed relay fleet (TURN).
	RoutingManaged Routing = "managed"
	// RoutingSelfHosted restricts relaying to the account's own relays.
	RoutingSelfHosted Routing = "self_hosted"
	// RoutingStunOnly forbids relaying entirely; STUN discovery only.
	RoutingStunOnly Routing = "stun_only"
)

// NewRouting validates a routing string.
func NewRouting(s string) (Routing, error) {
	r := Routing(s)
	switch r {
	case RoutingManaged, RoutingSelfHosted, RoutingStunOnly:
		return r, nil
	default:
		return "", fmt.Errorf("invalid routing: %s", s)
	}
}

func (r Routing) String() string { return string(r) }

// Strictness orders routing policies: stun_only > self_hosted > managed.
func (r Routing) Strictness() int {
	switch r {
	case RoutingStunOnly:
		return 3
	case RoutingSelfHosted:
		return 2
	case RoutingManaged:
		return 1
	default:
		return 0
	}
}

// Site groups gateways into one logical deployment location with a single
// routing policy.
type Site struct {
	id        uint
	sid       string
	accountID uint
	name      string
	routing   Routing
	deletedAt *time.Time
	createdAt time.Time
	updatedAt time.Time
}

// NewSite creates a new site.
func NewSite(accountID uint, name string, routing Routing) (*Site, error) {
	if accountID == 0 {
		return nil, fmt.Errorf("account ID is required")
	}
	if name == "" {
		return nil, fmt.Errorf("site name is required")
	}
	if _, err := NewRouting(routing.String()); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Site{
		sid:       id.MustGenerateWithPrefix(id.PrefixSite, id.DefaultLength),
		accountID: accountID,
		name:      name,
		routing:   routing,
		createdAt: now,
		updatedAt: now,
	}, nil
}

// ReconstructSite rebuilds a site from persistence.
func ReconstructSite(
	siteID uint,
	sid string,
	accountID uint,
	name string,
	routing Routing,
	deletedAt *time.Time,
	createdAt, updatedAt time.Time,
) (*Site, error) {
	if siteID == 0 {
		return nil, fmt.Errorf("site ID cannot be zero")
	}
	return &Site{
		id:        siteID,
		sid:       sid,
		accountID: accountID,
		name:      name,
		routing:   routing,
		deletedAt: deletedAt,
		createdAt: createdAt,
		updatedAt: updatedAt,
	}, nil
}

func (s *Site) ID() uint              { return s.id }
func (s *Site) SID() string           { return s.sid }
func (s *Site) AccountID() uint       { return s.accountID }
func (s *Site) Name() string          { return s.name }
func (s *Site) Routing() Routing      { return s.routing }
func (s *Site) DeletedAt() *time.Time { return s.deletedAt }
func (s *Site) CreatedAt() time.Time  { return s.createdAt }
func (s *Site) UpdatedAt() time.Time  { return s.updatedAt }

// SetID assigns the database identity after the initial insert.
func (s *Site) SetID(siteID uint) error {
	if s.id != 0 {
		return fmt.Errorf("site ID already set")
	}
	s.id = siteID
	return nil
}

// IsDeleted reports whether the site is soft-deleted.
func (s *Site) IsDeleted() bool { return s.deletedAt != nil }
