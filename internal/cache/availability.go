package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AvailabilityCache stores the per-staff upcoming shift counts in Redis
// so every instance of the service shares one view of roster load.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewAvailabilityCache builds the cache with the given entry TTL.
func NewAvailabilityCache(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl}
}

func availabilityKey(day string) string {
	return fmt.Sprintf("availability:shifts:%s", day)
}

// Get returns the cached shift counts for the window anchored at day,
// or ok=false on miss or when Redis is unavailable.
func (c *AvailabilityCache) Get(ctx context.Context, day string) (map[string]int, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	raw, err := c.client.Get(ctx, availabilityKey(day)).Bytes()
	if err != nil {
		return nil, false
	}
	var counts map[string]int
	if err := json.Unmarshal(raw, &counts); err != nil {
		return nil, false
	}
	return counts, true
}

// Set stores the shift counts for the window anchored at day.
func (c *AvailabilityCache) Set(ctx context.Context, day string, counts map[string]int) {
	if c == nil || c.client == nil {
		return
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, availabilityKey(day), raw, c.ttl).Err()
}

// Invalidate drops the cached window, for callers reacting to roster
// changes.
func (c *AvailabilityCache) Invalidate(ctx context.Context, day string) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, availabilityKey(day)).Err()
}
