package contracts

import (
	"context"
	"time"
)

// Selector picks the symbols that qualify on a trade date
// ⭐ SSOT: 선택 전략 인터페이스 (모든 전략은 이 계약만 구현)
type Selector interface {
	Select(ctx context.Context, date time.Time, view *DatasetView) ([]string, error)
}

// SelectorFunc adapts a function to the Selector interface
type SelectorFunc func(ctx context.Context, date time.Time, view *DatasetView) ([]string, error)

// Select calls f
func (f SelectorFunc) Select(ctx context.Context, date time.Time, view *DatasetView) ([]string, error) {
	return f(ctx, date, view)
}

// RunResult is the outcome of one selector for one run
// ⭐ SSOT: Orchestrator → Report/Export 전달
type RunResult struct {
	Alias      string    `json:"alias"`
	Type       string    `json:"type"`
	TradeDate  time.Time `json:"trade_date"`
	Picks      []string  `json:"picks"`
	Error      string    `json:"error,omitempty"`       // invocation failure, picks are empty
	ExportPath string    `json:"export_path,omitempty"` // set when the picks were exported
}

// Count returns the number of picks
func (r *RunResult) Count() int {
	return len(r.Picks)
}

// Failed reports whether the selector failed while running
func (r *RunResult) Failed() bool {
	return r.Error != ""
}

// StockInfo is the descriptive metadata of a listed stock
type StockInfo struct {
	TSCode   string `json:"ts_code"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Area     string `json:"area"`
	Industry string `json:"industry"`
	ListDate string `json:"list_date"`
}

// MetadataLookup resolves a symbol code to its descriptive metadata
type MetadataLookup interface {
	Lookup(ctx context.Context, code string) (StockInfo, bool)
}
