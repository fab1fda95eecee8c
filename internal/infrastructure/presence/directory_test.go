package presence

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
)

func TestGatewayDirectory_OnlineGatewaySIDs(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()

	_, err := reg.Track(ctx, pubsub.SiteGatewaysTopic(1), Meta{Key: "gw_aaa", SessionID: "s1"})
	require.NoError(t, err)
	_, err = reg.Track(ctx, pubsub.SiteGatewaysTopic(2), Meta{Key: "gw_bbb", SessionID: "s2"})
	require.NoError(t, err)

	dir := NewGatewayDirectory(reg)

	online, err := dir.OnlineGatewaySIDs(ctx, []uint{1, 2, 3})
	require.NoError(t, err)
	assert.Equal(t, map[string]bool{"gw_aaa": true, "gw_bbb": true}, online)

	online, err = dir.OnlineGatewaySIDs(ctx, []uint{3})
	require.NoError(t, err)
	assert.Empty(t, online)
}

func TestGatewayDirectory_UntrackedGatewayGoesOffline(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()

	untrack, err := reg.Track(ctx, pubsub.SiteGatewaysTopic(7), Meta{Key: "gw_ccc", SessionID: "s1"})
	require.NoError(t, err)
	untrack()

	dir := NewGatewayDirectory(reg)
	online, err := dir.OnlineGatewaySIDs(ctx, []uint{7})
	require.NoError(t, err)
	assert.Empty(t, online)
}
