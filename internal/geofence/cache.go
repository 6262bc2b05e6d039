package geofence

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const activeZonesKey = "geofence:active_zones"

// Cache keeps the active-zone list in Redis so attendance validation does
// not hit PostgreSQL on every check-in. Fills are collapsed through
// singleflight so a cold cache triggers one query, not one per caller.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewCache constructs a zone cache. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &Cache{client: client, ttl: ttl}
}

// ActiveZones returns the cached active-zone list, falling back to loader
// on miss. Redis failures degrade to the loader, never to an error.
func (c *Cache) ActiveZones(ctx context.Context, loader func(context.Context) ([]Zone, error)) ([]Zone, error) {
	if c == nil || c.client == nil {
		return loader(ctx)
	}

	payload, err := c.client.Get(ctx, activeZonesKey).Bytes()
	if err == nil {
		var zones []Zone
		if err := json.Unmarshal(payload, &zones); err == nil {
			return zones, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		return loader(ctx)
	}

	result, err, _ := c.group.Do(activeZonesKey, func() (any, error) {
		zones, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(zones); err == nil {
			_ = c.client.Set(ctx, activeZonesKey, data, c.ttl).Err()
		}
		return zones, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]Zone), nil
}

// Invalidate drops the cached list after a zone mutation.
func (c *Cache) Invalidate(ctx context.Context) {
	if c == nil || c.client == nil {
		return
	}
	_ = c.client.Del(ctx, activeZonesKey).Err()
}
