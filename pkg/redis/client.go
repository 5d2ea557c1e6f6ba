package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/wonny/stockpick/pkg/config"
)

// DefaultPrefix namespaces every key written by the selector
const DefaultPrefix = "stockpick"

// Timeouts of the optional metadata store
const (
	dialTimeout = 2 * time.Second
	ioTimeout   = time.Second
	pingTimeout = 3 * time.Second
)

// Client is the optional Redis connection behind the metadata cache.
// A disabled client turns every cache operation into a no-op.
// ⭐ SSOT: Redis 연결은 여기서만 관리
type Client struct {
	rdb     *redis.Client
	prefix  string
	enabled bool
}

// New connects to Redis when REDIS_ENABLED is set
func New(cfg *config.Config) (*Client, error) {
	prefix := cfg.Redis.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}

	if !cfg.Redis.Enabled {
		return &Client{prefix: prefix}, nil
	}

	opts, err := options(cfg.Redis)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("redis connection to %s failed: %w", opts.Addr, err)
	}

	return &Client{
		rdb:     rdb,
		prefix:  prefix,
		enabled: true,
	}, nil
}

// options builds the connection options. REDIS_URL wins over the host fields.
func options(cfg config.RedisConfig) (*redis.Options, error) {
	var opts *redis.Options
	if cfg.URL != "" {
		parsed, err := redis.ParseURL(cfg.URL)
		if err != nil {
			return nil, fmt.Errorf("invalid REDIS_URL: %w", err)
		}
		opts = parsed
	} else {
		opts = &redis.Options{
			Addr:     fmt.Sprintf("%s:%s", cfg.Host, cfg.Port),
			Password: cfg.Password,
			DB:       cfg.DB,
		}
	}

	opts.ClientName = DefaultPrefix
	opts.DialTimeout = dialTimeout
	opts.ReadTimeout = ioTimeout
	opts.WriteTimeout = ioTimeout
	opts.MaxRetries = 1

	return opts, nil
}

// Close closes the Redis connection
func (c *Client) Close() error {
	if c.rdb != nil {
		return c.rdb.Close()
	}
	return nil
}

// Enabled returns whether Redis is enabled
func (c *Client) Enabled() bool {
	return c.enabled
}

// Prefix returns the configured key namespace
func (c *Client) Prefix() string {
	return c.prefix
}
