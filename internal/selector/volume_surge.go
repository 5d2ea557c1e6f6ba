package selector

import (
	"context"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
)

// VolumeSurgeParams configures the VolumeSurge selector
type VolumeSurgeParams struct {
	Window int     `json:"window" default:"20" validate:"gte=1"`
	Ratio  float64 `json:"ratio" default:"2.0" validate:"gt=0"`
	Field  string  `json:"field" default:"volume" validate:"required"`
}

// VolumeSurge picks symbols whose trade date volume is at least Ratio times
// the mean volume of the preceding window
type VolumeSurge struct {
	params VolumeSurgeParams
}

// NewVolumeSurge is the VolumeSurge constructor
func NewVolumeSurge(params map[string]interface{}) (contracts.Selector, error) {
	var p VolumeSurgeParams
	if err := DecodeParams(params, &p); err != nil {
		return nil, err
	}
	return &VolumeSurge{params: p}, nil
}

// Select implements contracts.Selector
func (v *VolumeSurge) Select(ctx context.Context, date time.Time, view *contracts.DatasetView) ([]string, error) {
	return scan(ctx, date, view, func(t *contracts.SymbolTable) (float64, bool) {
		series := t.Series(v.params.Field, date)
		n := len(series)
		if n < v.params.Window+1 {
			return 0, false
		}

		base := mean(series[n-1-v.params.Window : n-1])
		if base <= 0 {
			return 0, false
		}

		ratio := series[n-1] / base
		if ratio < v.params.Ratio {
			return 0, false
		}
		return ratio, true
	})
}
