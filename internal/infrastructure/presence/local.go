package presence

import (
	"context"
	"sync"

	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

// LocalRegistry keeps presence state in process memory and announces
// membership changes on the bus. It is the single-node registry; clusters
// use RedisRegistry, which embeds the same local state for its own node.
type LocalRegistry struct {
	mu sync.RWMutex
	// topic -> key -> sessionID -> meta
	entries map[string]map[string]map[string]Meta

	bus    pubsub.Bus
	nodeID string
	logger logger.Interface
}

// NewLocalRegistry creates an in-memory registry that announces joins and
// leaves on the given bus.
func NewLocalRegistry(bus pubsub.Bus, nodeID string, log logger.Interface) *LocalRegistry {
	return &LocalRegistry{
		entries: make(map[string]map[string]map[string]Meta),
		bus:     bus,
		nodeID:  nodeID,
		logger:  log.Named("presence"),
	}
}

// Track registers the session and returns its untrack function.
// Tracking an already-present (key, session) pair replaces the stored meta
// without emitting a second join, so retried registrations are idempotent.
func (r *LocalRegistry) Track(ctx context.Context, topic string, meta Meta) (func(), error) {
	meta.NodeID = r.nodeID

	r.mu.Lock()
	keys, ok := r.entries[topic]
	if !ok {
		keys = make(map[string]map[string]Meta)
		r.entries[topic] = keys
	}
	sessions, ok := keys[meta.Key]
	if !ok {
		sessions = make(map[string]Meta)
		keys[meta.Key] = sessions
	}
	_, rejoin := sessions[meta.SessionID]
	sessions[meta.SessionID] = meta
	r.mu.Unlock()

	if !rejoin {
		r.announce(ctx, topic, pubsub.KindPresenceJoin, meta)
	}

	var once sync.Once
	untrack := func() {
		once.Do(func() {
			r.remove(topic, meta)
		})
	}
	return untrack, nil
}

func (r *LocalRegistry) remove(topic string, meta Meta) {
	r.mu.Lock()
	removed := false
	if keys, ok := r.entries[topic]; ok {
		if sessions, ok := keys[meta.Key]; ok {
			if _, ok := sessions[meta.SessionID]; ok {
				delete(sessions, meta.SessionID)
				removed = true
			}
			if len(sessions) == 0 {
				delete(keys, meta.Key)
			}
		}
		if len(keys) == 0 {
			delete(r.entries, topic)
		}
	}
	r.mu.Unlock()

	if removed {
		r.announce(context.Background(), topic, pubsub.KindPresenceLeave, meta)
	}
}

// List returns every tracked session on the topic.
func (r *LocalRegistry) List(_ context.Context, topic string) ([]Meta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var metas []Meta
	for _, sessions := range r.entries[topic] {
		for _, meta := range sessions {
			metas = append(metas, meta)
		}
	}
	return metas, nil
}

// GetByKey returns the sessions tracked for one key on the topic.
func (r *LocalRegistry) GetByKey(_ context.Context, topic, key string) ([]Meta, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var metas []Meta
	for _, meta := range r.entries[topic][key] {
		metas = append(metas, meta)
	}
	return metas, nil
}

func (r *LocalRegistry) announce(ctx context.Context, topic string, kind pubsub.Kind, meta Meta) {
	msg := pubsub.Message{
		Kind:   kind,
		Key:    meta.Key,
		NodeID: meta.NodeID,
	}
	if err := r.bus.Publish(ctx, pubsub.PresenceTopic(topic), msg); err != nil {
		r.logger.Warnw("failed to announce presence change",
			"topic", topic,
			"kind", kind,
			"key", meta.Key,
			"error", err,
		)
	}
}
