package tushare

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/pkg/config"
	"github.com/wonny/stockpick/pkg/httputil"
	"github.com/wonny/stockpick/pkg/logger"
)

// stockBasicFields are requested from the stock_basic endpoint
var stockBasicFields = []string{"ts_code", "symbol", "name", "area", "industry", "list_date"}

// Client handles communication with the tushare pro API
// ⭐ SSOT: tushare API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	token      string
	baseURL    string
	listStatus string
}

// NewClient creates a new tushare client
func NewClient(httpClient *httputil.Client, cfg config.TushareConfig, log *logger.Logger) *Client {
	if cfg.Token == "" {
		log.Warn("TUSHARE_TOKEN is not set, stock metadata requests will be rejected")
	}

	listStatus := cfg.ListStatus
	if listStatus == "" {
		listStatus = "L"
	}

	return &Client{
		httpClient: httpClient,
		logger:     log,
		token:      cfg.Token,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		listStatus: listStatus,
	}
}

// Request is the tushare pro request envelope
type Request struct {
	APIName string            `json:"api_name"`
	Token   string            `json:"token"`
	Params  map[string]string `json:"params"`
	Fields  string            `json:"fields"`
}

// Response is the tushare pro response envelope
type Response struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
	Data *Table `json:"data"`
}

// Table is the column/row payload of a response
type Table struct {
	Fields []string        `json:"fields"`
	Items  [][]interface{} `json:"items"`
}

// StockBasic fetches the listed-stock table
func (c *Client) StockBasic(ctx context.Context) ([]contracts.StockInfo, error) {
	table, err := c.call(ctx, "stock_basic", map[string]string{"list_status": c.listStatus}, stockBasicFields)
	if err != nil {
		return nil, err
	}

	infos := parseStockBasic(table)

	c.logger.WithFields(map[string]interface{}{
		"list_status": c.listStatus,
		"count":       len(infos),
	}).Debug("Fetched stock_basic")

	return infos, nil
}

func (c *Client) call(ctx context.Context, apiName string, params map[string]string, fields []string) (*Table, error) {
	req := Request{
		APIName: apiName,
		Token:   c.token,
		Params:  params,
		Fields:  strings.Join(fields, ","),
	}

	resp, err := c.httpClient.PostJSON(ctx, c.baseURL, req)
	if err != nil {
		return nil, fmt.Errorf("tushare %s: %w", apiName, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("tushare %s: unexpected status %d: %s", apiName, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var out Response
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("tushare %s: decode response: %w", apiName, err)
	}

	if out.Code != 0 {
		return nil, fmt.Errorf("tushare %s: code %d: %s", apiName, out.Code, out.Msg)
	}
	if out.Data == nil {
		return &Table{}, nil
	}

	return out.Data, nil
}

// parseStockBasic maps rows onto StockInfo by column name
func parseStockBasic(table *Table) []contracts.StockInfo {
	idx := make(map[string]int, len(table.Fields))
	for i, f := range table.Fields {
		idx[f] = i
	}

	get := func(row []interface{}, field string) string {
		i, ok := idx[field]
		if !ok || i >= len(row) || row[i] == nil {
			return ""
		}
		if s, ok := row[i].(string); ok {
			return s
		}
		return fmt.Sprint(row[i])
	}

	infos := make([]contracts.StockInfo, 0, len(table.Items))
	for _, row := range table.Items {
		info := contracts.StockInfo{
			TSCode:   get(row, "ts_code"),
			Symbol:   get(row, "symbol"),
			Name:     get(row, "name"),
			Area:     get(row, "area"),
			Industry: get(row, "industry"),
			ListDate: get(row, "list_date"),
		}
		if info.TSCode == "" {
			continue
		}
		infos = append(infos, info)
	}

	return infos
}
