package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/cordon-zt/cordon/internal/shared/goroutine"
	"github.com/cordon-zt/cordon/internal/shared/logger"
)

const channelPrefix = "cordon:bus:"

// RedisBus implements Bus over Redis Pub/Sub for cluster-wide fan-out.
// Redis Pub/Sub is at-most-once by nature, which matches the bus contract.
type RedisBus struct {
	client *redis.Client
	logger logger.Interface
}

// NewRedisBus creates a Redis-backed bus.
func NewRedisBus(client *redis.Client, log logger.Interface) *RedisBus {
	return &RedisBus{
		client: client,
		logger: log.Named("pubsub"),
	}
}

// Publish broadcasts the message to every node subscribed to the topic.
func (b *RedisBus) Publish(ctx context.Context, topic string, msg Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal bus message: %w", err)
	}

	if err := b.client.Publish(ctx, channelPrefix+topic, data).Err(); err != nil {
		b.logger.Errorw("failed to publish bus message",
			"topic", topic,
			"kind", msg.Kind,
			"error", err,
		)
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

// Subscribe consumes a topic until the returned unsubscribe function is
// called. The subscription reconnects with exponential backoff after
// transport failures.
func (b *RedisBus) Subscribe(topic string, handler Handler) (func(), error) {
	ctx, cancel := context.WithCancel(context.Background())

	goroutine.SafeGo(b.logger, "bus-subscriber-"+topic, func() {
		b.consumeWithReconnect(ctx, topic, handler)
	})

	return cancel, nil
}

func (b *RedisBus) consumeWithReconnect(ctx context.Context, topic string, handler Handler) {
	backoff := time.Second
	maxBackoff := 30 * time.Second

	for {
		err := b.consume(ctx, topic, handler)
		if ctx.Err() != nil {
			return
		}

		b.logger.Warnw("bus subscription disconnected, reconnecting",
			"topic", topic,
			"error", err,
			"backoff", backoff,
		)

		select {
		case <-ctx.Done():
			return
		case <-time.After(backoff):
		}

		backoff = min(backoff*2, maxBackoff)
	}
}

func (b *RedisBus) consume(ctx context.Context, topic string, handler Handler) error {
	sub := b.client.Subscribe(ctx, channelPrefix+topic)
	defer sub.Close()

	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, err)
	}

	b.logger.Debugw("subscribed to bus topic", "topic", topic)

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case redisMsg, ok := <-ch:
			if !ok {
				return nil
			}

			var msg Message
			if err := json.Unmarshal([]byte(redisMsg.Payload), &msg); err != nil {
				b.logger.Warnw("failed to unmarshal bus message",
					"topic", topic,
					"payload", redisMsg.Payload,
					"error", err,
				)
				continue
			}

			goroutine.SafeGo(b.logger, "bus-handler-"+topic, func() {
				handler(topic, msg)
			})
		}
	}
}
