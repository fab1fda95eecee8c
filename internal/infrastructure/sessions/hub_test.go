package sessions

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cordon-zt/cordon/internal/infrastructure/presence"
	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// startWSServer upgrades every request and hands the server-side connection
// to the test, which registers it on the hub itself.
func startWSServer(t *testing.T) (string, <-chan *websocket.Conn, func()) {
	t.Helper()
	conns := make(chan *websocket.Conn, 4)
	up := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := up.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade failed: %v", err)
			return
		}
		conns <- conn
	}))
	return "ws" + strings.TrimPrefix(srv.URL, "http"), conns, srv.Close
}

func dialPair(t *testing.T, url string, conns <-chan *websocket.Conn) (client, server *websocket.Conn) {
	t.Helper()
	c, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	return c, <-conns
}

func newTestHub(debounce *presence.RelayDebouncer) (*Hub, *presence.LocalRegistry) {
	bus := pubsub.NewInMemoryBus()
	reg := presence.NewLocalRegistry(bus, "node-1", logger.NewNopLogger())
	return NewHub(reg, debounce, bus, logger.NewNopLogger()), reg
}

func TestHub_ReplacedSessionReleasesPresence(t *testing.T) {
	hub, reg := newTestHub(nil)
	url, conns, stop := startWSServer(t)
	defer stop()

	topic := pubsub.SiteGatewaysTopic(1)
	ctx := context.Background()

	c1, s1 := dialPair(t, url, conns)
	defer c1.Close()
	first, err := hub.Register(ctx, KindGateway, topic, 1, "gw_abc", 1, s1, nil)
	require.NoError(t, err)

	c2, s2 := dialPair(t, url, conns)
	defer c2.Close()
	second, err := hub.Register(ctx, KindGateway, topic, 1, "gw_abc", 1, s2, nil)
	require.NoError(t, err)

	// Replacement leaves exactly the new session tracked.
	metas, err := reg.GetByKey(ctx, topic, "gw_abc")
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, second.SessionID, metas[0].SessionID)

	// The displaced connection's reader still runs Unregister when its
	// socket drops; it is no longer current, so this must change nothing.
	hub.Unregister(first)

	metas, err = reg.GetByKey(ctx, topic, "gw_abc")
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.True(t, hub.IsConnected(KindGateway, 1))

	hub.Unregister(second)

	metas, err = reg.GetByKey(ctx, topic, "gw_abc")
	require.NoError(t, err)
	assert.Empty(t, metas)
	assert.False(t, hub.IsConnected(KindGateway, 1))
}

func TestHub_RelayRejoinInsideDebounceWindowKeepsOneEntry(t *testing.T) {
	hub, reg := newTestHub(presence.NewRelayDebouncer(time.Hour))
	url, conns, stop := startWSServer(t)
	defer stop()

	topic := pubsub.GlobalRelaysTopic()
	payload := map[string]string{"fingerprint": "fp-1"}
	ctx := context.Background()

	c1, s1 := dialPair(t, url, conns)
	defer c1.Close()
	first, err := hub.Register(ctx, KindRelay, topic, 7, "rly_abc", 0, s1, payload)
	require.NoError(t, err)

	hub.Unregister(first)

	// The leave is held, so the relay stays visible through the window.
	metas, err := reg.GetByKey(ctx, topic, "rly_abc")
	require.NoError(t, err)
	require.Len(t, metas, 1)

	c2, s2 := dialPair(t, url, conns)
	defer c2.Close()
	second, err := hub.Register(ctx, KindRelay, topic, 7, "rly_abc", 0, s2, payload)
	require.NoError(t, err)

	// A silent rejoin takes over the held entry instead of adding a second.
	assert.Equal(t, first.SessionID, second.SessionID)
	metas, err = reg.GetByKey(ctx, topic, "rly_abc")
	require.NoError(t, err)
	require.Len(t, metas, 1)

	hub.Unregister(second)
	hub.relayDebounce.Flush()

	metas, err = reg.GetByKey(ctx, topic, "rly_abc")
	require.NoError(t, err)
	assert.Empty(t, metas)
}
