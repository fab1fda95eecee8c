package presence

import (
	"context"
	"fmt"

	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
)

// GatewayDirectory answers connectivity queries from the presence registry.
//
// Gateways are tracked under their site topic with the gateway SID as the
// key, so listing a site topic yields exactly the gateways currently holding
// a control connection somewhere in the cluster.
type GatewayDirectory struct {
	registry Registry
}

func NewGatewayDirectory(registry Registry) *GatewayDirectory {
	return &GatewayDirectory{registry: registry}
}

// OnlineGatewaySIDs reports which gateways of the given sites are connected.
func (d *GatewayDirectory) OnlineGatewaySIDs(ctx context.Context, siteIDs []uint) (map[string]bool, error) {
	online := make(map[string]bool)
	for _, siteID := range siteIDs {
		metas, err := d.registry.List(ctx, pubsub.SiteGatewaysTopic(siteID))
		if err != nil {
			return nil, fmt.Errorf("failed to list gateway presences for site %d: %w", siteID, err)
		}
		for _, meta := range metas {
			online[meta.Key] = true
		}
	}
	return online, nil
}
