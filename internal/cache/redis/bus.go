package redis

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"

	"orbot/internal/domain"
)

// Bus implements domain.SignalBus via Redis pub/sub. Published signals are
// fire-and-forget; delivery to subscribers is not guaranteed and nothing in
// the trading path depends on it.
type Bus struct {
	rdb *redis.Client
}

// NewBus creates a Bus backed by the given Client.
func NewBus(c *Client) *Bus {
	return &Bus{rdb: c.Underlying()}
}

// Publish sends payload to the given channel.
func (b *Bus) Publish(ctx context.Context, channel string, payload []byte) error {
	if err := b.rdb.Publish(ctx, channel, payload).Err(); err != nil {
		return fmt.Errorf("redis: publish %s: %w", channel, err)
	}
	return nil
}

// Compile-time interface check.
var _ domain.SignalBus = (*Bus)(nil)
