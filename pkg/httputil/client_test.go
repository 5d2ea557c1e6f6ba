package httputil

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/logger"
)

func newTestClient() *Client {
	return New(&config.Config{Env: "development"}, logger.Nop())
}

func TestNew(t *testing.T) {
	client := newTestClient()
	require.NotNil(t, client)

	assert.NotNil(t, client.httpClient)
	assert.NotNil(t, client.logger)
	assert.Equal(t, 3, client.retryConfig.MaxRetries)
	assert.Equal(t, 30*time.Second, client.httpClient.Timeout)
	assert.Nil(t, client.limiter)
}

func TestNewUsesProviderTimeout(t *testing.T) {
	cfg := &config.Config{Tushare: config.TushareConfig{Timeout: 7 * time.Second}}
	client := New(cfg, logger.Nop())
	assert.Equal(t, 7*time.Second, client.httpClient.Timeout)
}

func TestWithRetry(t *testing.T) {
	client := newTestClient().WithRetry(5, 2*time.Second)

	assert.Equal(t, 5, client.retryConfig.MaxRetries)
	assert.Equal(t, 2*time.Second, client.retryConfig.InitialDelay)
	assert.True(t, client.retryConfig.Enabled)
}

func TestDisableRetry(t *testing.T) {
	client := newTestClient().DisableRetry()
	assert.False(t, client.retryConfig.Enabled)
}

func TestWithRateLimit(t *testing.T) {
	client := newTestClient().WithRateLimit(120)
	require.NotNil(t, client.limiter)
	assert.InDelta(t, 2.0, float64(client.limiter.Limit()), 0.0001)

	client.WithRateLimit(0)
	assert.Nil(t, client.limiter)
}

func TestPostJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"api_name":"stock_basic"}`, string(body))

		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	resp, err := newTestClient().PostJSON(context.Background(), server.URL, map[string]string{"api_name": "stock_basic"})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestRetryOn5xxResendsBody(t *testing.T) {
	var attempts int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&attempts, 1)

		// Every attempt must carry the full body
		body, _ := io.ReadAll(r.Body)
		assert.JSONEq(t, `{"n":1}`, string(body))

		if n < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	client := newTestClient().WithRetry(3, 10*time.Millisecond)

	resp, err := client.PostJSON(context.Background(), server.URL, map[string]int{"n": 1})
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(3), atomic.LoadInt32(&attempts))
}

func TestRetryStopsOnContextCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	client := newTestClient().WithRetry(5, time.Second)
	_, err := client.PostJSON(ctx, server.URL, map[string]string{"api_name": "stock_basic"})
	assert.Error(t, err)
}

func TestIsRetryableError(t *testing.T) {
	tests := []struct {
		statusCode int
		want       bool
	}{
		{200, false},
		{201, false},
		{400, false},
		{404, false},
		{429, true}, // Too Many Requests - should retry
		{500, true}, // Internal Server Error
		{502, true}, // Bad Gateway
		{503, true}, // Service Unavailable
		{504, true}, // Gateway Timeout
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("status_%d", tt.statusCode), func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryableError(tt.statusCode))
		})
	}
}
