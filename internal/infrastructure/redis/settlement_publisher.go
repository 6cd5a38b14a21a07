package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
)

// RedisSettlementPublisher hands ended auctions to the settlement workflow
// over pub/sub. The worker consuming settlement_events owns winner payment
// deadlines and fallback; this side only announces the artwork once.
type RedisSettlementPublisher struct {
	client *redis.Client
}

func NewRedisSettlementPublisher(client *redis.Client) *RedisSettlementPublisher {
	return &RedisSettlementPublisher{client: client}
}

func (r *RedisSettlementPublisher) ProcessEndedAuction(ctx context.Context, artworkID string) error {
	eventData := fmt.Sprintf("%s:auction_ended:%d", artworkID, time.Now().Unix())
	return r.client.Publish(ctx, "settlement_events", eventData).Err()
}
