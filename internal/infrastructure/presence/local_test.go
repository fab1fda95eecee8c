package presence

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

type recordingBus struct {
	mu       sync.Mutex
	messages []pubsub.Message
}

func (b *recordingBus) Publish(_ context.Context, _ string, msg pubsub.Message) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.messages = append(b.messages, msg)
	return nil
}

func (b *recordingBus) Subscribe(string, pubsub.Handler) (func(), error) {
	return func() {}, nil
}

func (b *recordingBus) kinds() []pubsub.Kind {
	b.mu.Lock()
	defer b.mu.Unlock()
	kinds := make([]pubsub.Kind, 0, len(b.messages))
	for _, msg := range b.messages {
		kinds = append(kinds, msg.Kind)
	}
	return kinds
}

func newTestRegistry() (*LocalRegistry, *recordingBus) {
	bus := &recordingBus{}
	return NewLocalRegistry(bus, "node-1", logger.NewNopLogger()), bus
}

func TestLocalRegistry_TrackAndList(t *testing.T) {
	reg, bus := newTestRegistry()
	ctx := context.Background()

	untrack, err := reg.Track(ctx, "clients:1", Meta{Key: "act_abc", SessionID: "s1"})
	require.NoError(t, err)

	metas, err := reg.List(ctx, "clients:1")
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "act_abc", metas[0].Key)
	assert.Equal(t, "node-1", metas[0].NodeID)
	assert.Equal(t, []pubsub.Kind{pubsub.KindPresenceJoin}, bus.kinds())

	untrack()

	metas, err = reg.List(ctx, "clients:1")
	require.NoError(t, err)
	assert.Empty(t, metas)
	assert.Equal(t, []pubsub.Kind{pubsub.KindPresenceJoin, pubsub.KindPresenceLeave}, bus.kinds())
}

func TestLocalRegistry_DuplicateTrackReplaces(t *testing.T) {
	reg, bus := newTestRegistry()
	ctx := context.Background()

	_, err := reg.Track(ctx, "clients:1", Meta{
		Key:       "act_abc",
		SessionID: "s1",
		Payload:   map[string]string{"version": "1.2.0"},
	})
	require.NoError(t, err)

	_, err = reg.Track(ctx, "clients:1", Meta{
		Key:       "act_abc",
		SessionID: "s1",
		Payload:   map[string]string{"version": "1.3.0"},
	})
	require.NoError(t, err)

	metas, err := reg.List(ctx, "clients:1")
	require.NoError(t, err)
	require.Len(t, metas, 1)
	assert.Equal(t, "1.3.0", metas[0].Payload["version"])

	// The rejoin replaced the entry without a second join announcement.
	assert.Equal(t, []pubsub.Kind{pubsub.KindPresenceJoin}, bus.kinds())
}

func TestLocalRegistry_MultipleSessionsPerKey(t *testing.T) {
	reg, _ := newTestRegistry()
	ctx := context.Background()

	untrack1, err := reg.Track(ctx, "gateways:1", Meta{Key: "gw_a", SessionID: "s1"})
	require.NoError(t, err)
	_, err = reg.Track(ctx, "gateways:1", Meta{Key: "gw_a", SessionID: "s2"})
	require.NoError(t, err)
	_, err = reg.Track(ctx, "gateways:1", Meta{Key: "gw_b", SessionID: "s3"})
	require.NoError(t, err)

	metas, err := reg.GetByKey(ctx, "gateways:1", "gw_a")
	require.NoError(t, err)
	assert.Len(t, metas, 2)

	untrack1()

	metas, err = reg.GetByKey(ctx, "gateways:1", "gw_a")
	require.NoError(t, err)
	assert.Len(t, metas, 1)
	assert.Equal(t, "s2", metas[0].SessionID)
}

func TestLocalRegistry_UntrackIsIdempotent(t *testing.T) {
	reg, bus := newTestRegistry()
	ctx := context.Background()

	untrack, err := reg.Track(ctx, "clients:1", Meta{Key: "act_abc", SessionID: "s1"})
	require.NoError(t, err)

	untrack()
	untrack()

	assert.Equal(t, []pubsub.Kind{pubsub.KindPresenceJoin, pubsub.KindPresenceLeave}, bus.kinds())
}
