package selector

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// table builds a symbol table with one bar per day from start
func table(code, field string, values ...float64) *contracts.SymbolTable {
	bars := make([]contracts.Bar, len(values))
	for i, v := range values {
		bars[i] = contracts.NewBar(start.AddDate(0, 0, i), map[string]float64{field: v})
	}
	return contracts.NewSymbolTable(code, []string{"date", field}, bars)
}

func dayN(n int) time.Time {
	return start.AddDate(0, 0, n)
}

func TestMomentum_Select(t *testing.T) {
	view := contracts.NewDatasetView([]*contracts.SymbolTable{
		table("UP", "close", 10, 11, 12, 13),
		table("UPMORE", "close", 10, 12, 14, 16),
		table("DOWN", "close", 10, 9, 8, 7),
		table("SHORT", "close", 10, 20),
		// rises only after the trade date
		table("LATE", "close", 10, 10, 10, 10, 50),
	})

	sel, err := NewMomentum(map[string]interface{}{"window": 3})
	require.NoError(t, err)

	picks, err := sel.Select(context.Background(), dayN(3), view)
	require.NoError(t, err)
	assert.Equal(t, []string{"UPMORE", "UP", "LATE"}, picks)

	sel, err = NewMomentum(map[string]interface{}{"window": 3, "min_return": 0.5})
	require.NoError(t, err)

	picks, err = sel.Select(context.Background(), dayN(3), view)
	require.NoError(t, err)
	assert.Equal(t, []string{"UPMORE"}, picks)
}

func TestMACross_Select(t *testing.T) {
	view := contracts.NewDatasetView([]*contracts.SymbolTable{
		// short MA (2) crosses above long MA (3) on the last bar
		table("CROSS", "close", 10, 10, 10, 9, 12),
		// already above, no fresh cross
		table("ABOVE", "close", 1, 2, 3, 4, 5),
		table("FLAT", "close", 5, 5, 5, 5, 5),
	})

	sel, err := NewMACross(map[string]interface{}{"short": 2, "long": 3})
	require.NoError(t, err)

	picks, err := sel.Select(context.Background(), dayN(4), view)
	require.NoError(t, err)
	assert.Equal(t, []string{"CROSS"}, picks)

	// One day earlier there is no cross
	picks, err = sel.Select(context.Background(), dayN(3), view)
	require.NoError(t, err)
	assert.Empty(t, picks)
}

func TestMACross_InvalidWindows(t *testing.T) {
	_, err := NewMACross(map[string]interface{}{"short": 5, "long": 5})
	assert.Error(t, err)
}

func TestVolumeSurge_Select(t *testing.T) {
	view := contracts.NewDatasetView([]*contracts.SymbolTable{
		table("SURGE", "volume", 100, 100, 100, 300),
		table("BIGGER", "volume", 100, 100, 100, 500),
		table("CALM", "volume", 100, 100, 100, 120),
		table("ZERO", "volume", 0, 0, 0, 100),
		table("NOVOL", "close", 1, 2, 3, 4),
	})

	sel, err := NewVolumeSurge(map[string]interface{}{"window": 3})
	require.NoError(t, err)

	picks, err := sel.Select(context.Background(), dayN(3), view)
	require.NoError(t, err)
	assert.Equal(t, []string{"BIGGER", "SURGE"}, picks)
}

func TestBuiltins_EmptyView(t *testing.T) {
	for _, e := range builtins() {
		t.Run(e.Name, func(t *testing.T) {
			sel, err := e.New(nil)
			require.NoError(t, err)

			picks, err := sel.Select(context.Background(), dayN(0), contracts.NewDatasetView(nil))
			require.NoError(t, err)
			assert.Empty(t, picks)
		})
	}
}

func TestBuiltins_SkipSymbolsWithoutTradeDateBar(t *testing.T) {
	tests := []struct {
		name   string
		sel    func() (contracts.Selector, error)
		table  *contracts.SymbolTable
		traded time.Time
	}{
		{
			name:   "Momentum",
			sel:    func() (contracts.Selector, error) { return NewMomentum(map[string]interface{}{"window": 3}) },
			table:  table("STALE", "close", 10, 12, 14, 16),
			traded: dayN(3),
		},
		{
			name:   "MACross",
			sel:    func() (contracts.Selector, error) { return NewMACross(map[string]interface{}{"short": 2, "long": 3}) },
			table:  table("STALE", "close", 10, 10, 10, 9, 12),
			traded: dayN(4),
		},
		{
			name:   "VolumeSurge",
			sel:    func() (contracts.Selector, error) { return NewVolumeSurge(map[string]interface{}{"window": 3}) },
			table:  table("STALE", "volume", 100, 100, 100, 300),
			traded: dayN(3),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sel, err := tt.sel()
			require.NoError(t, err)
			view := contracts.NewDatasetView([]*contracts.SymbolTable{tt.table})

			picks, err := sel.Select(context.Background(), tt.traded, view)
			require.NoError(t, err)
			assert.Equal(t, []string{"STALE"}, picks)

			// Last bar is a week before the trade date
			picks, err = sel.Select(context.Background(), tt.traded.AddDate(0, 0, 7), view)
			require.NoError(t, err)
			assert.Empty(t, picks)
		})
	}
}
