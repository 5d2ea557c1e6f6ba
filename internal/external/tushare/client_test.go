package tushare

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/httputil"
	"github.com/wonny/stockpick/pkg/logger"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logger.Nop()
	httpClient := httputil.New(nil, log).DisableRetry()

	return NewClient(httpClient, config.TushareConfig{Token: "tok", BaseURL: srv.URL}, log)
}

func TestClient_StockBasic(t *testing.T) {
	var got Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"code": 0,
			"msg": "",
			"data": {
				"fields": ["ts_code", "symbol", "name", "area", "industry", "list_date"],
				"items": [
					["000001.SZ", "000001", "平安银行", "深圳", "银行", "19910403"],
					["600000.SH", "600000", "浦发银行", "上海", null, "19991110"],
					[null, "000002", "broken", "", "", ""]
				]
			}
		}`))
	})

	infos, err := client.StockBasic(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "stock_basic", got.APIName)
	assert.Equal(t, "tok", got.Token)
	assert.Equal(t, "L", got.Params["list_status"])
	assert.Equal(t, "ts_code,symbol,name,area,industry,list_date", got.Fields)

	require.Len(t, infos, 2)
	assert.Equal(t, "平安银行", infos[0].Name)
	assert.Equal(t, "19910403", infos[0].ListDate)
	assert.Equal(t, "", infos[1].Industry)
}

func TestClient_StockBasic_APIError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"code": 40101, "msg": "token invalid", "data": null}`))
	})

	_, err := client.StockBasic(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "40101")
	assert.Contains(t, err.Error(), "token invalid")
}

func TestClient_StockBasic_HTTPError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad gateway", http.StatusBadGateway)
	})

	_, err := client.StockBasic(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestClient_StockBasic_ColumnOrder(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"code": 0,
			"data": {
				"fields": ["name", "ts_code"],
				"items": [["平安银行", "000001.SZ"]]
			}
		}`))
	})

	infos, err := client.StockBasic(context.Background())
	require.NoError(t, err)
	require.Len(t, infos, 1)
	assert.Equal(t, "000001.SZ", infos[0].TSCode)
	assert.Equal(t, "平安银行", infos[0].Name)
	assert.Empty(t, infos[0].Area)
}
