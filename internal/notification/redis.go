package notification

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// Channel is the Redis pub/sub channel ledger events are published on.
const Channel = "lodecoin:events"

// RedisNotifier publishes events as JSON on a Redis channel so independent
// observers (miners, indexers) can react without polling the ledger.
type RedisNotifier struct {
	client *redis.Client
}

// NewRedisNotifier constructs a Redis-backed notifier.
func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{client: client}
}

// Send publishes the event. Delivery is at-most-once; receipts are advisory
// and the ledger remains the source of truth.
func (n *RedisNotifier) Send(ctx context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode event: %w", err)
	}
	if err := n.client.Publish(ctx, Channel, payload).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}
