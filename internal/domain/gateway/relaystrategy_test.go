package gateway

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testSite(t *testing.T, routing Routing) *Site {
	t.Helper()
	s, err := NewSite(1, "site-"+string(routing), routing)
	require.NoError(t, err)
	return s
}

func TestRelayStrategy_StrictestRoutingWins(t *testing.T) {
	tests := []struct {
		name          string
		routings      []Routing
		wantMode      RelayMode
		wantTransport RelayTransport
	}{
		{
			name:          "all managed",
			routings:      []Routing{RoutingManaged, RoutingManaged},
			wantMode:      RelayModeManaged,
			wantTransport: RelayTransportTURN,
		},
		{
			name:          "self hosted overrides managed",
			routings:      []Routing{RoutingManaged, RoutingSelfHosted},
			wantMode:      RelayModeSelfHosted,
			wantTransport: RelayTransportTURN,
		},
		{
			name:          "stun only overrides everything",
			routings:      []Routing{RoutingSelfHosted, RoutingStunOnly, RoutingManaged},
			wantMode:      RelayModeManaged,
			wantTransport: RelayTransportSTUN,
		},
		{
			name:          "no sites default to managed turn",
			routings:      nil,
			wantMode:      RelayModeManaged,
			wantTransport: RelayTransportTURN,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sites := make([]*Site, 0, len(tt.routings))
			for _, r := range tt.routings {
				sites = append(sites, testSite(t, r))
			}
			mode, transport := RelayStrategy(sites)
			assert.Equal(t, tt.wantMode, mode)
			assert.Equal(t, tt.wantTransport, transport)
		})
	}
}
