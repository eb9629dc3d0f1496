// Package ratelimit implements per-identity fixed-window request limiting.
package ratelimit

import (
	"context"
	"fmt"
	"time"
)

// Driver identifiers supported by New.
const (
	DriverMemory = "memory"
	DriverRedis  = "redis"
)

// Defaults for the analysis endpoint.
const (
	DefaultLimit    = 10
	DefaultWindow   = 60 * time.Second
	DefaultCapacity = 10000
)

// Limiter decides whether an identity may make another request.
type Limiter interface {
	// Allow records a request for identity and reports whether it is within
	// the limit.
	Allow(ctx context.Context, identity string) (bool, error)
}

// RedisConfig holds connection settings for the redis driver.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
}

// Config selects and configures a limiter.
type Config struct {
	Driver   string
	Limit    int
	Window   time.Duration
	Capacity int
	Redis    *RedisConfig
}

func (c Config) withDefaults() Config {
	if c.Limit <= 0 {
		c.Limit = DefaultLimit
	}
	if c.Window <= 0 {
		c.Window = DefaultWindow
	}
	if c.Capacity <= 0 {
		c.Capacity = DefaultCapacity
	}
	return c
}

// New creates a limiter based on the provided configuration.
func New(cfg Config) (Limiter, error) {
	cfg = cfg.withDefaults()

	driver := cfg.Driver
	if driver == "" {
		driver = DriverMemory
	}

	switch driver {
	case DriverMemory:
		return NewMemory(cfg), nil
	case DriverRedis:
		r, err := NewRedis(cfg)
		if err != nil {
			return nil, err
		}
		return r, nil
	default:
		return nil, fmt.Errorf("unsupported rate limit driver: %s", driver)
	}
}
