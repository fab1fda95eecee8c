package presence

import (
	"context"
	"time"
)

// Meta describes one tracked session on a topic.
//
// A key identifies the logical entity (an actor, a gateway, a relay) while
// the session ID identifies one concrete connection. The same key may be
// present under several session IDs when the entity is connected more than
// once; tracking the same (key, session) pair twice replaces the previous
// entry instead of duplicating it.
type Meta struct {
	Key       string            `json:"key"`
	SessionID string            `json:"session_id"`
	NodeID    string            `json:"node_id"`
	JoinedAt  time.Time         `json:"joined_at"`
	Payload   map[string]string `json:"payload,omitempty"`
}

// Registry tracks which sessions are currently present on a topic.
//
// Track returns an untrack function that must be called exactly once when
// the session ends; connection handlers defer it so a dropped connection
// always produces a leave.
type Registry interface {
	Track(ctx context.Context, topic string, meta Meta) (func(), error)
	List(ctx context.Context, topic string) ([]Meta, error)
	GetByKey(ctx context.Context, topic, key string) ([]Meta, error)
}
