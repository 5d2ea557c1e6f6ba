package selector

import (
	"context"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
)

// MACrossParams configures the MACross selector
type MACrossParams struct {
	Short int    `json:"short" default:"5" validate:"gte=1"`
	Long  int    `json:"long" default:"20" validate:"gtfield=Short"`
	Field string `json:"field" default:"close" validate:"required"`
}

// MACross picks symbols whose short moving average crossed above
// the long one on the trade date
type MACross struct {
	params MACrossParams
}

// NewMACross is the MACross constructor
func NewMACross(params map[string]interface{}) (contracts.Selector, error) {
	var p MACrossParams
	if err := DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return &MACross{params: p}, nil
}

// Select implements contracts.Selector
func (m *MACross) Select(ctx context.Context, date time.Time, view *contracts.DatasetView) ([]string, error) {
	short, long := m.params.Short, m.params.Long

	return scan(ctx, date, view, func(t *contracts.SymbolTable) (float64, bool) {
		series := t.Series(m.params.Field, date)
		n := len(series)
		if n < long+1 {
			return 0, false
		}

		curShort := mean(series[n-short:])
		curLong := mean(series[n-long:])
		prevShort := mean(series[n-1-short : n-1])
		prevLong := mean(series[n-1-long : n-1])

		if !(prevShort <= prevLong && curShort > curLong) || curLong <= 0 {
			return 0, false
		}
		return (curShort - curLong) / curLong, true
	})
}
