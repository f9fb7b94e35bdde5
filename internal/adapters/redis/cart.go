package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// CartTracker mirrors hold deadlines for authenticated customers so the
// storefront can show a live countdown. Entries expire on their own with the
// hold, so a missed removal self-heals.
type CartTracker struct {
	client *redis.Client
}

func NewCartTracker(client *redis.Client) *CartTracker {
	return &CartTracker{client: client}
}

func (c *CartTracker) Upsert(ctx context.Context, customerID, bookingCode string, deadline time.Time) error {
	ttl := time.Until(deadline)
	if ttl <= 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	pipe.Set(ctx, "cart:"+bookingCode, customerID, ttl)
	pipe.SAdd(ctx, "cart:user:"+customerID, bookingCode)
	pipe.Expire(ctx, "cart:user:"+customerID, ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (c *CartTracker) RemoveForBookings(ctx context.Context, bookingCodes []string) error {
	if len(bookingCodes) == 0 {
		return nil
	}
	pipe := c.client.Pipeline()
	for _, code := range bookingCodes {
		customerID, err := c.client.Get(ctx, "cart:"+code).Result()
		if err == nil && customerID != "" {
			pipe.SRem(ctx, "cart:user:"+customerID, code)
		}
		pipe.Del(ctx, "cart:"+code)
	}
	_, err := pipe.Exec(ctx)
	return err
}
