package presence

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cordon-zt/cordon/internal/infrastructure/pubsub"
	"github.com/cordon-zt/cordon/internal/shared/goroutine"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

const (
	presenceKeyPrefix = "cordon:presence:"
	fieldSeparator    = "|"

	heartbeatInterval = 15 * time.Second
	// Entries written by a node that died without cleaning up expire after
	// a few missed heartbeats.
	entryTTL = 3 * heartbeatInterval
)

type replicatedEntry struct {
	Meta      Meta      `json:"meta"`
	ExpiresAt time.Time `json:"expires_at"`
}

// RedisRegistry replicates per-node presence into a Redis hash so every
// node sees the whole cluster. Local sessions live in an embedded
// LocalRegistry; List and GetByKey read the shared hash, skipping entries
// whose owning node stopped heartbeating.
type RedisRegistry struct {
	local  *LocalRegistry
	client *redis.Client
	logger logger.Interface

	stop chan struct{}
}

// NewRedisRegistry creates a cluster-wide registry and starts its
// heartbeat loop. Call Close on shutdown.
func NewRedisRegistry(client *redis.Client, bus pubsub.Bus, nodeID string, log logger.Interface) *RedisRegistry {
	r := &RedisRegistry{
		local:  NewLocalRegistry(bus, nodeID, log),
		client: client,
		logger: log.Named("presence"),
		stop:   make(chan struct{}),
	}
	goroutine.SafeGo(r.logger, "presence-heartbeat", r.heartbeatLoop)
	return r
}

// Close stops the heartbeat loop. Replicated entries owned by this node
// expire on their own once heartbeats cease.
func (r *RedisRegistry) Close() {
	close(r.stop)
}

// Track registers the session locally and replicates it to Redis.
func (r *RedisRegistry) Track(ctx context.Context, topic string, meta Meta) (func(), error) {
	untrackLocal, err := r.local.Track(ctx, topic, meta)
	if err != nil {
		return nil, err
	}
	meta.NodeID = r.local.nodeID

	if err := r.replicate(ctx, topic, meta); err != nil {
		untrackLocal()
		return nil, err
	}

	untrack := func() {
		untrackLocal()
		if err := r.client.HDel(context.Background(), hashKey(topic), fieldFor(meta)).Err(); err != nil {
			r.logger.Warnw("failed to remove replicated presence entry",
				"topic", topic,
				"key", meta.Key,
				"error", err,
			)
		}
	}
	return untrack, nil
}

// List returns every live session on the topic across the cluster.
func (r *RedisRegistry) List(ctx context.Context, topic string) ([]Meta, error) {
	values, err := r.client.HGetAll(ctx, hashKey(topic)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list presences for topic %s: %w", topic, err)
	}

	now := time.Now().UTC()
	var metas []Meta
	for field, raw := range values {
		var entry replicatedEntry
		if err := json.Unmarshal([]byte(raw), &entry); err != nil {
			r.logger.Warnw("skipping malformed presence entry",
				"topic", topic,
				"field", field,
				"error", err,
			)
			continue
		}
		if entry.ExpiresAt.Before(now) {
			continue
		}
		metas = append(metas, entry.Meta)
	}
	return metas, nil
}

// GetByKey returns the cluster-wide sessions for one key on the topic.
func (r *RedisRegistry) GetByKey(ctx context.Context, topic, key string) ([]Meta, error) {
	all, err := r.List(ctx, topic)
	if err != nil {
		return nil, err
	}

	var metas []Meta
	for _, meta := range all {
		if meta.Key == key {
			metas = append(metas, meta)
		}
	}
	return metas, nil
}

func (r *RedisRegistry) replicate(ctx context.Context, topic string, meta Meta) error {
	entry := replicatedEntry{
		Meta:      meta,
		ExpiresAt: time.Now().UTC().Add(entryTTL),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal presence entry: %w", err)
	}
	if err := r.client.HSet(ctx, hashKey(topic), fieldFor(meta), data).Err(); err != nil {
		return fmt.Errorf("failed to replicate presence entry: %w", err)
	}
	return nil
}

func (r *RedisRegistry) heartbeatLoop() {
	ticker := time.NewTicker(heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stop:
			return
		case <-ticker.C:
			r.refreshAll()
		}
	}
}

func (r *RedisRegistry) refreshAll() {
	ctx, cancel := context.WithTimeout(context.Background(), heartbeatInterval)
	defer cancel()

	r.local.mu.RLock()
	snapshot := make(map[string][]Meta, len(r.local.entries))
	for topic, keys := range r.local.entries {
		for _, sessions := range keys {
			for _, meta := range sessions {
				snapshot[topic] = append(snapshot[topic], meta)
			}
		}
	}
	r.local.mu.RUnlock()

	for topic, metas := range snapshot {
		for _, meta := range metas {
			if err := r.replicate(ctx, topic, meta); err != nil {
				r.logger.Warnw("presence heartbeat refresh failed",
					"topic", topic,
					"key", meta.Key,
					"error", err,
				)
			}
		}
	}
}

func hashKey(topic string) string {
	return presenceKeyPrefix + topic
}

func fieldFor(meta Meta) string {
	return strings.Join([]string{meta.Key, meta.SessionID}, fieldSeparator)
}
