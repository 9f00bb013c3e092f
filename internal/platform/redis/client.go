// Package redis connects the optional validation-result store. Redis is never
// required: an empty URL means the engine runs on the in-memory store.
package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"affirm/internal/platform/config"
)

// healthTimeout bounds readiness probes that arrive without a deadline.
const healthTimeout = 2 * time.Second

// Client wraps the go-redis client with startup and readiness probes.
type Client struct {
	*redis.Client
}

// New dials Redis from the provided configuration and verifies the connection
// before returning. Returns (nil, nil) when no URL is configured. Options
// embedded in the URL are kept unless the config explicitly overrides them.
func New(cfg config.RedisConfig) (*Client, error) {
	if cfg.URL == "" {
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.MinIdleConns > 0 {
		opts.MinIdleConns = cfg.MinIdleConns
	}
	if cfg.DialTimeout > 0 {
		opts.DialTimeout = cfg.DialTimeout
	}
	if cfg.ReadTimeout > 0 {
		opts.ReadTimeout = cfg.ReadTimeout
	}
	if cfg.WriteTimeout > 0 {
		opts.WriteTimeout = cfg.WriteTimeout
	}

	client := redis.NewClient(opts)

	// A store that cannot answer the WATCH-based checker writes is worse than
	// no store, so fail startup instead of limping into the memory fallback.
	ctx, cancel := context.WithTimeout(context.Background(), opts.DialTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Client{Client: client}, nil
}

// Health reports whether Redis is answering. Probes without a deadline get a
// short one so a hung connection cannot stall the readiness endpoint.
func (c *Client) Health(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, healthTimeout)
		defer cancel()
	}
	return c.Ping(ctx).Err()
}

// Close releases the connection pool.
func (c *Client) Close() error {
	return c.Client.Close()
}
