package cache

import (
	"context"
	"cvrp-route-service/internal/platform/obs"
	"cvrp-route-service/internal/ports"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const defaultPrefix = "cvrp:run"

// RedisResultCache is a redis-backed cache mapping instance fingerprints to
// finished runs. Values are stored as JSON.
type RedisResultCache struct {
	Client *redis.Client
	Prefix string
}

func NewRedisResultCache(client *redis.Client) *RedisResultCache {
	return &RedisResultCache{Client: client, Prefix: defaultPrefix}
}

// Connect parses a redis URL and verifies the connection.
func Connect(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis connect: parse url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis connect: ping: %w", err)
	}
	return client, nil
}

func (c *RedisResultCache) key(k string) string {
	if c.Prefix == "" {
		return k
	}
	return c.Prefix + ":" + k
}

// Fetch a cached run. A missing key is reported as ok=false, not an error.
func (c *RedisResultCache) Get(ctx context.Context, key string) (_ *ports.SolveRun, _ bool, err error) {
	defer obs.Time(ctx, "result.cache.Get")(&err)

	if c.Client == nil {
		return nil, false, errors.New("result cache: client is nil")
	}

	data, err := c.Client.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("result cache get %s: %w", key, err)
	}

	var run ports.SolveRun
	if err := json.Unmarshal(data, &run); err != nil {
		return nil, false, fmt.Errorf("result cache get %s: decode: %w", key, err)
	}
	return &run, true, nil
}

// Store a run under key. A zero ttl keeps it until evicted.
func (c *RedisResultCache) Put(ctx context.Context, key string, run *ports.SolveRun, ttl time.Duration) (err error) {
	defer obs.Time(ctx, "result.cache.Put")(&err)

	if c.Client == nil {
		return errors.New("result cache: client is nil")
	}

	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("result cache put %s: encode: %w", key, err)
	}
	if err := c.Client.Set(ctx, c.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("result cache put %s: %w", key, err)
	}
	return nil
}
