package ratelimit

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// allowScript bumps the window counter and arms its expiry in one step. A
// counter found without a TTL is re-armed so it cannot outlive its window.
var allowScript = redis.NewScript(`
local n = redis.call('INCR', KEYS[1])
if n == 1 or redis.call('PTTL', KEYS[1]) < 0 then
	redis.call('PEXPIRE', KEYS[1], ARGV[1])
end
return n
`)

// Redis is a fixed-window limiter shared by every gateway instance. Each
// window is a counter key that expires with the window.
type Redis struct {
	client *redis.Client
	limit  int
	window time.Duration
	prefix string
}

// NewRedis constructs a redis-backed limiter.
func NewRedis(cfg Config) (*Redis, error) {
	cfg = cfg.withDefaults()
	if cfg.Redis == nil {
		return nil, fmt.Errorf("redis configuration missing")
	}
	if cfg.Redis.Addr == "" {
		return nil, fmt.Errorf("redis address required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = "vinscripted:ratelimit:"
	}

	return &Redis{client: client, limit: cfg.Limit, window: cfg.Window, prefix: prefix}, nil
}

// Allow implements Limiter.
func (r *Redis) Allow(ctx context.Context, identity string) (bool, error) {
	key := r.prefix + identity

	count, err := allowScript.Run(ctx, r.client, []string{key}, r.window.Milliseconds()).Int64()
	if err != nil {
		return false, fmt.Errorf("redis allow: %w", err)
	}
	return count <= int64(r.limit), nil
}

// Close releases the connection pool.
func (r *Redis) Close() error {
	return r.client.Close()
}
