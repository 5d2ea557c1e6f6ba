package selection

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/dataset"
	"github.com/wonny/stockpick/internal/selector"
	"github.com/wonny/stockpick/pkg/logger"
)

// fixture writes a data dir and a config file
type fixture struct {
	dataDir    string
	configPath string
}

func newFixture(t *testing.T, config string) fixture {
	t.Helper()
	root := t.TempDir()
	dataDir := filepath.Join(root, "data")
	require.NoError(t, os.Mkdir(dataDir, 0o755))

	files := map[string]string{
		"A.csv": "date,close,volume\n2024-01-08,10,100\n2024-01-10,11,100\n",
		"B.csv": "date,close,volume\n2024-01-11,20,100\n2024-01-12,22,500\n",
	}
	for name, content := range files {
		require.NoError(t, os.WriteFile(filepath.Join(dataDir, name), []byte(content), 0o644))
	}

	configPath := filepath.Join(root, "configs.json")
	require.NoError(t, os.WriteFile(configPath, []byte(config), 0o644))

	return fixture{dataDir: dataDir, configPath: configPath}
}

func (f fixture) options() Options {
	return Options{DataDir: f.dataDir, ConfigPath: f.configPath, Symbols: "all"}
}

// recorder registers test selectors and counts constructions
type recorder struct {
	mu    sync.Mutex
	built map[string]int
}

func (r *recorder) count(name string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.built[name]
}

func (r *recorder) register(t *testing.T, reg *selector.Registry, name string, fn contracts.SelectorFunc) {
	t.Helper()
	require.NoError(t, reg.Register(selector.Entry{
		Name: name,
		New: func(map[string]interface{}) (contracts.Selector, error) {
			r.mu.Lock()
			r.built[name]++
			r.mu.Unlock()
			return fn, nil
		},
	}))
}

func newRunner(t *testing.T) (*Runner, *recorder) {
	t.Helper()
	reg := selector.NewDefaultRegistry()
	rec := &recorder{built: make(map[string]int)}

	rec.register(t, reg, "AllCodes", func(ctx context.Context, date time.Time, view *contracts.DatasetView) ([]string, error) {
		return view.Codes(), nil
	})
	rec.register(t, reg, "Nothing", func(ctx context.Context, date time.Time, view *contracts.DatasetView) ([]string, error) {
		return nil, nil
	})
	rec.register(t, reg, "Fails", func(ctx context.Context, date time.Time, view *contracts.DatasetView) ([]string, error) {
		return nil, errors.New("division by zero")
	})
	rec.register(t, reg, "Panics", func(ctx context.Context, date time.Time, view *contracts.DatasetView) ([]string, error) {
		panic("index out of range")
	})
	rec.register(t, reg, "Slow", func(ctx context.Context, date time.Time, view *contracts.DatasetView) ([]string, error) {
		time.Sleep(200 * time.Millisecond)
		return []string{"A"}, nil
	})

	return NewRunner(dataset.NewLoader(logger.Nop()), reg, logger.Nop()), rec
}

func TestRunner_Run(t *testing.T) {
	f := newFixture(t, `[{"type": "AllCodes", "alias": "everything"}, {"type": "Nothing"}]`)
	runner, _ := newRunner(t)

	summary, err := runner.Run(context.Background(), f.options())
	require.NoError(t, err)

	assert.NotEmpty(t, summary.RunID)
	assert.Len(t, summary.ConfigHash, 64)
	assert.True(t, summary.DefaultDate)
	assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), summary.TradeDate)
	assert.Equal(t, 2, summary.Requested)
	assert.Equal(t, 2, summary.Loaded)

	require.Len(t, summary.Results, 2)
	assert.Equal(t, "everything", summary.Results[0].Alias)
	assert.Equal(t, []string{"A", "B"}, summary.Results[0].Picks)
	assert.Equal(t, "Nothing", summary.Results[1].Alias)
	assert.NotNil(t, summary.Results[1].Picks)
	assert.Empty(t, summary.Results[1].Picks)
	assert.Empty(t, summary.Failures)
}

func TestRunner_InactiveNeverConstructed(t *testing.T) {
	f := newFixture(t, `[
		{"type": "AllCodes", "active": false},
		{"class": "Nothing", "activate": false},
		{"type": "AllCodes", "alias": "on"}
	]`)
	runner, rec := newRunner(t)

	summary, err := runner.Run(context.Background(), f.options())
	require.NoError(t, err)

	assert.Equal(t, 1, rec.count("AllCodes"))
	assert.Equal(t, 0, rec.count("Nothing"))
	assert.Equal(t, 2, summary.Skipped)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, "on", summary.Results[0].Alias)
}

func TestRunner_FailingSelectorsDoNotStopRun(t *testing.T) {
	f := newFixture(t, `[{"type": "Fails"}, {"type": "Panics"}, {"type": "AllCodes"}]`)
	runner, _ := newRunner(t)

	summary, err := runner.Run(context.Background(), f.options())
	require.NoError(t, err)

	require.Len(t, summary.Results, 3)

	assert.Empty(t, summary.Results[0].Picks)
	assert.Contains(t, summary.Results[0].Error, "division by zero")

	assert.Empty(t, summary.Results[1].Picks)
	assert.Contains(t, summary.Results[1].Error, "panicked")

	assert.False(t, summary.Results[2].Failed())
	assert.Equal(t, []string{"A", "B"}, summary.Results[2].Picks)
}

func TestRunner_BuildFailures(t *testing.T) {
	f := newFixture(t, `[
		{"type": "DoesNotExist", "alias": "ghost"},
		{"alias": "typeless"},
		{"type": "Momentum", "parameters": {"window": -1}},
		{"type": "AllCodes"}
	]`)
	runner, _ := newRunner(t)

	summary, err := runner.Run(context.Background(), f.options())
	require.NoError(t, err)

	require.Len(t, summary.Results, 1)
	assert.Equal(t, "AllCodes", summary.Results[0].Alias)

	require.Len(t, summary.Failures, 3)
	assert.Equal(t, "ghost", summary.Failures[0].Alias)
	assert.Equal(t, 0, summary.Failures[0].Index)
	assert.Contains(t, summary.Failures[0].Error, "unknown selector type")
	assert.Equal(t, 1, summary.Failures[1].Index)
	assert.Contains(t, summary.Failures[1].Error, `"type"`)
	assert.Contains(t, summary.Failures[2].Error, "window")
}

func TestRunner_SelectorTimeout(t *testing.T) {
	f := newFixture(t, `[{"type": "Slow"}, {"type": "AllCodes"}]`)
	runner, _ := newRunner(t)

	opts := f.options()
	opts.SelectorTimeout = 20 * time.Millisecond

	summary, err := runner.Run(context.Background(), opts)
	require.NoError(t, err)

	require.Len(t, summary.Results, 2)
	assert.Contains(t, summary.Results[0].Error, "timed out")
	assert.Empty(t, summary.Results[0].Picks)
	assert.Len(t, summary.Results[1].Picks, 2)
}

func TestRunner_FatalErrors(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(f *fixture, o *Options)
		wantErr error
	}{
		{
			name:    "missing data dir",
			mutate:  func(f *fixture, o *Options) { o.DataDir = filepath.Join(f.dataDir, "nope") },
			wantErr: dataset.ErrDataDirMissing,
		},
		{
			name: "missing data dir with explicit tickers",
			mutate: func(f *fixture, o *Options) {
				o.DataDir = filepath.Join(f.dataDir, "nope")
				o.Symbols = "A,B"
			},
			wantErr: dataset.ErrDataDirMissing,
		},
		{
			name:    "data dir is a file",
			mutate:  func(f *fixture, o *Options) { o.DataDir = filepath.Join(f.dataDir, "A.csv") },
			wantErr: dataset.ErrDataDirMissing,
		},
		{
			name:    "no symbol loads",
			mutate:  func(f *fixture, o *Options) { o.Symbols = "X,Y" },
			wantErr: dataset.ErrNoData,
		},
		{
			name:    "bad date",
			mutate:  func(f *fixture, o *Options) { o.Date = "someday" },
			wantErr: dataset.ErrInvalidDate,
		},
		{
			name:   "missing config",
			mutate: func(f *fixture, o *Options) { o.ConfigPath = filepath.Join(f.dataDir, "missing.json") },
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, `[{"type": "AllCodes"}]`)
			runner, rec := newRunner(t)

			opts := f.options()
			tt.mutate(&f, &opts)

			summary, err := runner.Run(context.Background(), opts)
			require.Error(t, err)
			assert.Nil(t, summary)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			assert.Equal(t, 0, rec.count("AllCodes"), "no selector runs after a fatal error")
		})
	}
}

func TestRunner_ExplicitDate(t *testing.T) {
	f := newFixture(t, `{"type": "AllCodes"}`)
	runner, _ := newRunner(t)

	opts := f.options()
	opts.Date = "2024-01-10"
	opts.Symbols = "A, C"

	summary, err := runner.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.False(t, summary.DefaultDate)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), summary.TradeDate)
	assert.Equal(t, 2, summary.Requested)
	assert.Equal(t, 1, summary.Loaded)
	require.Len(t, summary.Results, 1)
	assert.Equal(t, []string{"A"}, summary.Results[0].Picks)
}

type fakeExporter struct {
	calls []string
}

func (e *fakeExporter) Export(ctx context.Context, alias string, picks []string) (string, error) {
	e.calls = append(e.calls, alias)
	return "/tmp/" + alias + ".xlsx", nil
}

type fakeStore struct {
	saved *RunSummary
}

func (s *fakeStore) SaveRun(ctx context.Context, summary *RunSummary) error {
	s.saved = summary
	return nil
}

func TestRunner_ExportAndStore(t *testing.T) {
	f := newFixture(t, `[{"type": "AllCodes"}, {"type": "Nothing"}, {"type": "Fails"}]`)
	runner, _ := newRunner(t)

	exporter := &fakeExporter{}
	store := &fakeStore{}
	runner.WithExporter(exporter).WithStore(store)

	opts := f.options()
	opts.Export = true

	summary, err := runner.Run(context.Background(), opts)
	require.NoError(t, err)

	assert.Equal(t, []string{"AllCodes"}, exporter.calls, "only non-empty picks are exported")
	assert.Equal(t, "/tmp/AllCodes.xlsx", summary.Results[0].ExportPath)
	assert.Empty(t, summary.Results[1].ExportPath)
	assert.Same(t, summary, store.saved)
}

func TestRunner_NoExportWhenNotRequested(t *testing.T) {
	f := newFixture(t, `[{"type": "AllCodes"}]`)
	runner, _ := newRunner(t)

	exporter := &fakeExporter{}
	runner.WithExporter(exporter)

	_, err := runner.Run(context.Background(), f.options())
	require.NoError(t, err)
	assert.Empty(t, exporter.calls)
}

func TestReportLines(t *testing.T) {
	date := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)

	lines := ReportLines(contracts.RunResult{Alias: "mom", TradeDate: date, Picks: []string{"A", "B"}})
	assert.Equal(t, []string{
		"============== Selection result [mom] ==============",
		"Trade date: 2024-01-12",
		"Qualifying stocks: 2",
		"A, B",
	}, lines)

	lines = ReportLines(contracts.RunResult{Alias: "mom", TradeDate: date})
	assert.Equal(t, "Qualifying stocks: 0", lines[2])
	assert.Equal(t, NoPicksText, lines[3])
}
