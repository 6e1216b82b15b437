package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultChannel is the Redis pub/sub channel carrying realtime envelopes.
const DefaultChannel = "hearth:events"

// RedisPublisher relays messages through Redis pub/sub so every instance's
// hub delivers them to its local connections.
type RedisPublisher struct {
	rdb     *redis.Client
	channel string
}

func NewRedisPublisher(rdb *redis.Client, channel string) *RedisPublisher {
	if channel == "" {
		channel = DefaultChannel
	}
	return &RedisPublisher{rdb: rdb, channel: channel}
}

func (p *RedisPublisher) Publish(ctx context.Context, msg Message) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal realtime message: %w", err)
	}
	if err := p.rdb.Publish(ctx, p.channel, payload).Err(); err != nil {
		return fmt.Errorf("publish realtime message: %w", err)
	}
	return nil
}

// Listen subscribes to the bridge channel and replays envelopes into the
// local hub. It blocks until ctx is canceled.
func Listen(ctx context.Context, rdb *redis.Client, channel string, hub *Hub, logger *slog.Logger) error {
	if channel == "" {
		channel = DefaultChannel
	}
	sub := rdb.Subscribe(ctx, channel)
	defer sub.Close()

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case raw, ok := <-ch:
			if !ok {
				return nil
			}
			var msg Message
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				logger.Error("parse realtime envelope", "error", err)
				continue
			}
			hub.route(msg)
		}
	}
}
