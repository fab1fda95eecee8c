package resource

import "context"

// Repository defines persistence operations for resources and their
// connections to sites.
type Repository interface {
	Create(ctx context.Context, r *Resource) error
	GetByID(ctx context.Context, resourceID uint) (*Resource, error)
	GetBySID(ctx context.Context, sid string) (*Resource, error)
	Update(ctx context.Context, r *Resource) error

	// ConnectSite exposes the resource through a site. A resource may be
	// reachable through multiple sites with different routing policies.
	ConnectSite(ctx context.Context, resourceID, siteID uint) error
	DisconnectSite(ctx context.Context, resourceID, siteID uint) error

	// SiteIDs returns the sites the resource is exposed through.
	SiteIDs(ctx context.Context, resourceID uint) ([]uint, error)
}
