package gateway

import "context"

// Repository defines persistence operations for gateways.
type Repository interface {
	Create(ctx context.Context, g *Gateway) error
	GetByID(ctx context.Context, gatewayID uint) (*Gateway, error)
	GetBySID(ctx context.Context, sid string) (*Gateway, error)
	Update(ctx context.Context, g *Gateway) error
	ListBySite(ctx context.Context, siteID uint) ([]*Gateway, error)
	ListBySites(ctx context.Context, siteIDs []uint) ([]*Gateway, error)
}

// SiteRepository defines persistence operations for sites.
type SiteRepository interface {
	Create(ctx context.Context, s *Site) error
	GetByID(ctx context.Context, siteID uint) (*Site, error)
	GetBySID(ctx context.Context, sid string) (*Site, error)
	Update(ctx context.Context, s *Site) error
	ListByIDs(ctx context.Context, siteIDs []uint) ([]*Site, error)
}
