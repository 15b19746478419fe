package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisPublisher fans messages out on a pub/sub channel.
type RedisPublisher struct {
	client  redis.UniversalClient
	channel string
}

// NewRedisPublisher publishes on channel through client. The client is
// owned by the caller.
func NewRedisPublisher(client redis.UniversalClient, channel string) *RedisPublisher {
	return &RedisPublisher{client: client, channel: channel}
}

type envelope struct {
	Key     string `json:"key"`
	Payload any    `json:"payload"`
}

// Publish encodes the key and payload together and publishes them.
func (p *RedisPublisher) Publish(ctx context.Context, key string, payload any) error {
	data, err := json.Marshal(envelope{Key: key, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode redis message: %w", err)
	}
	if err := p.client.Publish(ctx, p.channel, data).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", p.channel, err)
	}
	return nil
}

func (p *RedisPublisher) Close() error { return nil }
