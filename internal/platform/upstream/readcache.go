package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// ReadCache is a short-TTL redis cache for hot upstream GET proxies.
// Concurrent misses for the same key collapse into a single upstream call.
// This cushions upstream read load only; the permission resolver keeps its
// own store and deliberately does not collapse concurrent fetches.
type ReadCache struct {
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
}

// NewReadCache constructs a ReadCache.
func NewReadCache(client *redis.Client, ttl time.Duration) *ReadCache {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &ReadCache{client: client, ttl: ttl}
}

// Key composes a cache key scoped by tenant, service and request shape.
func Key(tenantID, service, path, rawQuery string) string {
	return strings.Join([]string{"upstream", service, tenantID, path, rawQuery}, ":")
}

// FetchJSON loads a cached value or populates it via the loader. A nil
// receiver or client degrades to calling the loader directly.
func (c *ReadCache) FetchJSON(ctx context.Context, key string, dest any, loader func(context.Context) (any, error)) error {
	if loader == nil {
		return errors.New("upstream: cache loader required")
	}
	if c == nil || c.client == nil {
		value, err := loader(ctx)
		if err != nil {
			return err
		}
		return remarshal(value, dest)
	}

	payload, err := c.client.Get(ctx, key).Bytes()
	if err == nil {
		return json.Unmarshal(payload, dest)
	}
	if !errors.Is(err, redis.Nil) {
		return err
	}

	resultChan := c.group.DoChan(key, func() (any, error) {
		value, err := loader(ctx)
		if err != nil {
			return nil, err
		}
		raw, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
			return nil, err
		}
		return raw, nil
	})

	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-resultChan:
		if res.Err != nil {
			return res.Err
		}
		return json.Unmarshal(res.Val.([]byte), dest)
	}
}

// Invalidate drops every cached read for a tenant and service. Called after
// gateway-side mutations so list reads do not serve the pre-mutation state
// for a full TTL.
func (c *ReadCache) Invalidate(ctx context.Context, tenantID, service string) error {
	if c == nil || c.client == nil {
		return nil
	}
	pattern := Key(tenantID, service, "*", "*")
	iter := c.client.Scan(ctx, 0, pattern, 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(keys) == 0 {
		return nil
	}
	return c.client.Del(ctx, keys...).Err()
}

func remarshal(value, dest any) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return json.Unmarshal(raw, dest)
}
