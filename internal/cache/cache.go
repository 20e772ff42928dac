// Package cache stores built dashboards and session keys in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/neexbeast/weatherdash/internal/dashboard"
)

// DefaultTTL matches the dashboard auto-refresh interval.
const DefaultTTL = 10 * time.Minute

// Cache holds recently built dashboards keyed by city name.
type Cache struct {
	client redis.Cmdable
	ttl    time.Duration
}

// NewCache constructs a Cache. A non-positive ttl uses DefaultTTL.
func NewCache(client redis.Cmdable, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func dashboardKey(city string) string {
	return "dashboard:" + strings.ToLower(strings.TrimSpace(city))
}

// Get returns the cached dashboard for city, or nil, nil on a miss.
func (c *Cache) Get(ctx context.Context, city string) (*dashboard.Dashboard, error) {
	val, err := c.client.Get(ctx, dashboardKey(city)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("cache get for city %s: %w", city, err)
	}

	var d dashboard.Dashboard
	if err := json.Unmarshal(val, &d); err != nil {
		return nil, fmt.Errorf("unmarshaling cached dashboard for city %s: %w", city, err)
	}
	return &d, nil
}

// Set stores d for city with the configured TTL. A nil d is ignored.
func (c *Cache) Set(ctx context.Context, city string, d *dashboard.Dashboard) error {
	if d == nil {
		return nil
	}

	b, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("marshaling dashboard for city %s: %w", city, err)
	}
	if err := c.client.Set(ctx, dashboardKey(city), b, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set for city %s: %w", city, err)
	}
	return nil
}

// Delete removes the cached dashboard for city.
func (c *Cache) Delete(ctx context.Context, city string) error {
	if err := c.client.Del(ctx, dashboardKey(city)).Err(); err != nil {
		return fmt.Errorf("cache delete for city %s: %w", city, err)
	}
	return nil
}
