package redis

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/pkg/config"
)

func disabledClient(t *testing.T, prefix string) *Client {
	t.Helper()
	client, err := New(&config.Config{Redis: config.RedisConfig{Enabled: false, Prefix: prefix}})
	require.NoError(t, err)
	return client
}

func TestNewClient_Disabled(t *testing.T) {
	client := disabledClient(t, "")

	assert.False(t, client.Enabled(), "Expected client to be disabled")
	assert.Nil(t, client.rdb)
	assert.Equal(t, DefaultPrefix, client.Prefix())
	assert.NoError(t, client.Close())
}

func TestNewClient_InvalidURL(t *testing.T) {
	_, err := New(&config.Config{Redis: config.RedisConfig{Enabled: true, URL: "http://localhost:6379"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "REDIS_URL")
}

func TestOptions(t *testing.T) {
	tests := []struct {
		name     string
		cfg      config.RedisConfig
		addr     string
		db       int
		password string
	}{
		{
			name: "host and port",
			cfg:  config.RedisConfig{Host: "cache", Port: "6380", DB: 2, Password: "secret"},
			addr: "cache:6380", db: 2, password: "secret",
		},
		{
			name: "url wins",
			cfg:  config.RedisConfig{URL: "redis://:pw@redis.internal:6379/3", Host: "ignored", Port: "1"},
			addr: "redis.internal:6379", db: 3, password: "pw",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts, err := options(tt.cfg)
			require.NoError(t, err)

			assert.Equal(t, tt.addr, opts.Addr)
			assert.Equal(t, tt.db, opts.DB)
			assert.Equal(t, tt.password, opts.Password)
			assert.Equal(t, "stockpick", opts.ClientName)
			assert.Equal(t, dialTimeout, opts.DialTimeout)
			assert.Equal(t, ioTimeout, opts.ReadTimeout)
			assert.Equal(t, 1, opts.MaxRetries)
		})
	}
}

func TestCache_Disabled(t *testing.T) {
	cache := NewCache(disabledClient(t, ""), "")
	ctx := context.Background()

	// When Redis is disabled, cache operations should be no-ops
	require.NoError(t, cache.Set(ctx, "key", []string{"a"}, time.Minute))

	var result []string
	found, err := cache.Get(ctx, "key", &result)
	require.NoError(t, err)
	assert.False(t, found, "Expected cache miss when Redis disabled")
	assert.NoError(t, cache.Delete(ctx, "key"))
}

func TestCacheKeys(t *testing.T) {
	tests := []struct {
		name         string
		clientPrefix string
		cachePrefix  string
		want         string
	}{
		{name: "default", want: "stockpick:cache:v1:stock:basic:L"},
		{name: "client prefix", clientPrefix: "staging", want: "staging:cache:v1:stock:basic:L"},
		{name: "explicit prefix", clientPrefix: "staging", cachePrefix: "test", want: "test:cache:v1:stock:basic:L"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cache := NewCache(disabledClient(t, tt.clientPrefix), tt.cachePrefix)
			assert.Equal(t, tt.want, cache.key(StockBasicKey("L")))
		})
	}
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, isEmpty([]byte("null")))
	assert.True(t, isEmpty([]byte("[]")))
	assert.True(t, isEmpty([]byte("{}")))
	assert.False(t, isEmpty([]byte(`[{"ts_code":"000001.SZ"}]`)))
}
