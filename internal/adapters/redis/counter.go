package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// Counter maintains fixed-window counters.
type Counter struct {
	client *redis.Client
}

func NewCounter(client *redis.Client) *Counter {
	return &Counter{client: client}
}

// Incr bumps key and returns its value within the current window. The window
// starts with the first increment and lasts period.
func (c *Counter) Incr(ctx context.Context, key string, period time.Duration) (int64, error) {
	fullKey := "rl:" + key

	pipe := c.client.TxPipeline()
	incr := pipe.Incr(ctx, fullKey)
	pipe.ExpireNX(ctx, fullKey, period)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, err
	}
	return incr.Val(), nil
}
