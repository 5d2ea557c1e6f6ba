package selector

import (
	"context"
	"sort"
	"time"

	"github.com/wonny/stockpick/internal/contracts"
)

func builtins() []Entry {
	return []Entry{
		{
			Name:        "Momentum",
			Description: "Return over the window ending on the trade date is at least min_return",
			Defaults:    mustDefaults(&MomentumParams{}),
			New:         NewMomentum,
		},
		{
			Name:        "MACross",
			Description: "Short moving average crosses above the long one on the trade date",
			Defaults:    mustDefaults(&MACrossParams{}),
			New:         NewMACross,
		},
		{
			Name:        "VolumeSurge",
			Description: "Trade date volume is at least ratio times the mean of the previous window",
			Defaults:    mustDefaults(&VolumeSurgeParams{}),
			New:         NewVolumeSurge,
		},
	}
}

func mustDefaults(p interface{}) interface{} {
	if err := DecodeParams(nil, p); err != nil {
		panic(err)
	}
	return p
}

// scored is a candidate pick with its ranking score
type scored struct {
	code  string
	score float64
}

// rank orders candidates by score descending, then code ascending
func rank(candidates []scored) []string {
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].score != candidates[j].score {
			return candidates[i].score > candidates[j].score
		}
		return candidates[i].code < candidates[j].code
	})

	picks := make([]string, len(candidates))
	for i, c := range candidates {
		picks[i] = c.code
	}
	return picks
}

// scan evaluates fn over every symbol that traded on date.
// fn returns ok=false to leave a symbol out.
func scan(ctx context.Context, date time.Time, view *contracts.DatasetView, fn func(t *contracts.SymbolTable) (float64, bool)) ([]string, error) {
	candidates := make([]scored, 0)

	for _, code := range view.Codes() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		table, _ := view.Get(code)
		if !table.TradedOn(date) {
			continue
		}
		if score, ok := fn(table); ok {
			candidates = append(candidates, scored{code: code, score: score})
		}
	}

	return rank(candidates), nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}
