package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyVersion changes whenever the shape of cached values does
const keyVersion = "v1"

// Cache stores JSON values under <prefix>:cache:v1:<key>
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a cache helper. An empty prefix uses the client's.
func NewCache(client *Client, prefix string) *Cache {
	if prefix == "" {
		prefix = client.Prefix()
	}
	return &Cache{
		client: client,
		prefix: prefix,
	}
}

func (c *Cache) key(key string) string {
	return fmt.Sprintf("%s:cache:%s:%s", c.prefix, keyVersion, key)
}

// Get decodes a cached value into dest and reports whether it was found.
// An undecodable entry is dropped and reported as a miss.
func (c *Cache) Get(ctx context.Context, key string, dest interface{}) (bool, error) {
	if !c.client.Enabled() {
		return false, nil
	}

	data, err := c.client.rdb.Get(ctx, c.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := json.Unmarshal(data, dest); err != nil {
		if delErr := c.Delete(ctx, key); delErr != nil {
			return false, fmt.Errorf("drop corrupt cache entry %s: %w", key, delErr)
		}
		return false, nil
	}

	return true, nil
}

// Set stores a value with TTL. Empty slices and maps are not cached,
// so an empty provider answer is fetched again on the next run.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	if isEmpty(data) {
		return nil
	}

	return c.client.rdb.Set(ctx, c.key(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}

	return c.client.rdb.Del(ctx, c.key(key)).Err()
}

func isEmpty(data []byte) bool {
	switch string(data) {
	case "null", "[]", "{}":
		return true
	default:
		return false
	}
}

// StockBasicKey is the cache key of the provider's stock list for a listing status
func StockBasicKey(listStatus string) string {
	return fmt.Sprintf("stock:basic:%s", listStatus)
}
