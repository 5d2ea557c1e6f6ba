package selector

import (
	"context"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
)

// MomentumParams configures the Momentum selector
type MomentumParams struct {
	Window    int     `json:"window" default:"20" validate:"gte=1"`
	MinReturn float64 `json:"min_return" default:"0"`
	Field     string  `json:"field" default:"close" validate:"required"`
}

// Momentum picks symbols whose return over the window ending on the trade
// date reaches MinReturn
type Momentum struct {
	params MomentumParams
}

// NewMomentum is the Momentum constructor
func NewMomentum(params map[string]interface{}) (contracts.Selector, error) {
	var p MomentumParams
	if err := DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return &Momentum{params: p}, nil
}

// Select implements contracts.Selector
func (m *Momentum) Select(ctx context.Context, date time.Time, view *contracts.DatasetView) ([]string, error) {
	return scan(ctx, date, view, func(t *contracts.SymbolTable) (float64, bool) {
		series := t.Series(m.params.Field, date)
		if len(series) < m.params.Window+1 {
			return 0, false
		}

		current := series[len(series)-1]
		past := series[len(series)-1-m.params.Window]
		if past <= 0 {
			return 0, false
		}

		ret := (current - past) / past
		if ret < m.params.MinReturn {
			return 0, false
		}
		return ret, true
	})
}
