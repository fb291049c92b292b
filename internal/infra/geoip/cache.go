package geoip

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sifan077/LinkPulse/internal/app/model"
)

const cacheKeyPrefix = "geoip:"

// Locator is the lookup contract shared by HTTPLocator and CachedLocator.
type Locator interface {
	Locate(ctx context.Context, ip string) (*model.GeoInfo, error)
}

// CachedLocator keeps successful lookups in Redis. Cache errors fall through
// to the wrapped locator.
type CachedLocator struct {
	next   Locator
	client *redis.Client
	ttl    time.Duration
}

func NewCachedLocator(next Locator, client *redis.Client, ttl time.Duration) *CachedLocator {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &CachedLocator{next: next, client: client, ttl: ttl}
}

func (c *CachedLocator) Locate(ctx context.Context, ip string) (*model.GeoInfo, error) {
	key := cacheKeyPrefix + ip

	if raw, err := c.client.Get(ctx, key).Bytes(); err == nil {
		var info model.GeoInfo
		if json.Unmarshal(raw, &info) == nil {
			return &info, nil
		}
	}

	info, err := c.next.Locate(ctx, ip)
	if err != nil || info == nil {
		return info, err
	}

	if raw, err := json.Marshal(info); err == nil {
		c.client.Set(ctx, key, raw, c.ttl)
	}
	return info, nil
}
