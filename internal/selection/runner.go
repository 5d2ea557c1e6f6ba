package selection

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/dataset"
	"github.com/wonny/stockpick/internal/selector"
	"github.com/wonny/stockpick/internal/selectorconfig"
	"github.com/wonny/stockpick/pkg/logger"
)

// Options describes one selection run
type Options struct {
	DataDir         string        `json:"data_dir"`
	ConfigPath      string        `json:"config_path"`
	Date            string        `json:"date,omitempty"`    // empty: latest date in the data
	Symbols         string        `json:"symbols,omitempty"` // "all" or comma separated codes
	Export          bool          `json:"export"`
	SelectorTimeout time.Duration `json:"selector_timeout,omitempty"` // 0: no limit
}

// SpecFailure records a spec that could not be built
type SpecFailure struct {
	Index int    `json:"index"`
	Alias string `json:"alias"`
	Type  string `json:"type"`
	Error string `json:"error"`
}

// RunSummary is the outcome of one run
type RunSummary struct {
	RunID       string                `json:"run_id"`
	StartedAt   time.Time             `json:"started_at"`
	FinishedAt  time.Time             `json:"finished_at"`
	TradeDate   time.Time             `json:"trade_date"`
	DefaultDate bool                  `json:"default_date"`
	ConfigPath  string                `json:"config_path"`
	ConfigHash  string                `json:"config_hash"`
	Requested   int                   `json:"requested"`
	Loaded      int                   `json:"loaded"`
	Results     []contracts.RunResult `json:"results"`
	Failures    []SpecFailure         `json:"failures"`
	Skipped     int                   `json:"skipped"` // inactive specs
}

// Exporter writes the picks of one selector
type Exporter interface {
	Export(ctx context.Context, alias string, picks []string) (string, error)
}

// ResultStore persists run summaries
type ResultStore interface {
	SaveRun(ctx context.Context, summary *RunSummary) error
}

// Runner drives a selection run end to end
// ⭐ SSOT: 데이터 로드 → 거래일 결정 → 설정 로드 → 선택기 실행 → 보고/저장 순서는 여기서만
type Runner struct {
	loader   *dataset.Loader
	registry *selector.Registry
	exporter Exporter
	store    ResultStore
	logger   *logger.Logger
}

// NewRunner creates a new runner
func NewRunner(loader *dataset.Loader, registry *selector.Registry, log *logger.Logger) *Runner {
	return &Runner{
		loader:   loader,
		registry: registry,
		logger:   log,
	}
}

// WithExporter sets the exporter used when Options.Export is set
func (r *Runner) WithExporter(e Exporter) *Runner {
	r.exporter = e
	return r
}

// WithStore sets the store that receives every summary
func (r *Runner) WithStore(s ResultStore) *Runner {
	r.store = s
	return r
}

// Run executes every active selector of the config against the dataset.
// It returns an error only for conditions that stop the run before any selector runs
// (or a canceled context); per-selector failures are recorded in the summary.
func (r *Runner) Run(ctx context.Context, opts Options) (*RunSummary, error) {
	summary := &RunSummary{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		ConfigPath: opts.ConfigPath,
		Results:    []contracts.RunResult{},
		Failures:   []SpecFailure{},
	}
	log := r.logger.WithField("run_id", summary.RunID)

	// 1. Universe
	if err := dataset.CheckDataDir(opts.DataDir); err != nil {
		return nil, err
	}
	symbols := opts.Symbols
	if symbols == "" {
		symbols = dataset.AllSymbols
	}
	codes, err := dataset.ParseSymbols(symbols, opts.DataDir)
	if err != nil {
		return nil, fmt.Errorf("resolve symbols: %w", err)
	}
	summary.Requested = len(codes)

	// 2. Dataset
	view, err := r.loader.Load(ctx, opts.DataDir, codes)
	if err != nil {
		return nil, fmt.Errorf("load dataset: %w", err)
	}
	summary.Loaded = view.Len()

	// 3. Trade date
	tradeDate, defaulted, err := dataset.ResolveTradeDate(opts.Date, view)
	if err != nil {
		return nil, fmt.Errorf("resolve trade date: %w", err)
	}
	summary.TradeDate = tradeDate
	summary.DefaultDate = defaulted
	if defaulted {
		log.WithField("trade_date", tradeDate.Format("2006-01-02")).Info("No date given, using latest date in data")
	}

	// 4. Config
	doc, err := selectorconfig.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load selector config: %w", err)
	}
	if summary.ConfigHash, err = selectorconfig.Hash(doc); err != nil {
		return nil, fmt.Errorf("hash selector config: %w", err)
	}
	active := doc.ActiveSpecs()
	summary.Skipped = len(doc.Specs) - len(active)

	log.WithFields(map[string]interface{}{
		"trade_date": tradeDate.Format("2006-01-02"),
		"symbols":    summary.Loaded,
		"specs":      len(active),
		"inactive":   summary.Skipped,
		"config":     opts.ConfigPath,
	}).Info("Selection run started")

	// 5. Active selectors, in config order
	for _, spec := range active {
		if err := ctx.Err(); err != nil {
			summary.FinishedAt = time.Now()
			return summary, fmt.Errorf("selection run interrupted: %w", err)
		}

		inst, err := r.registry.Build(spec)
		if err != nil {
			summary.Failures = append(summary.Failures, SpecFailure{
				Index: spec.Index,
				Alias: spec.Alias,
				Type:  spec.Type,
				Error: err.Error(),
			})
			log.WithFields(map[string]interface{}{
				"index": spec.Index,
				"alias": spec.Alias,
				"type":  spec.Type,
			}).WithError(err).Error("Skipping selector")
			continue
		}

		result := r.execute(ctx, log, inst, tradeDate, view, opts.SelectorTimeout)
		r.report(log, result)

		if opts.Export && r.exporter != nil && len(result.Picks) > 0 {
			path, err := r.exporter.Export(ctx, result.Alias, result.Picks)
			if err == nil {
				result.ExportPath = path
			}
		}

		summary.Results = append(summary.Results, result)
	}

	summary.FinishedAt = time.Now()

	if r.store != nil {
		if err := r.store.SaveRun(ctx, summary); err != nil {
			log.WithError(err).Error("Failed to store run results")
		}
	}

	log.WithFields(map[string]interface{}{
		"results":  len(summary.Results),
		"failures": len(summary.Failures),
		"skipped":  summary.Skipped,
		"duration": summary.FinishedAt.Sub(summary.StartedAt),
	}).Info("Selection run completed")

	return summary, nil
}

// execute invokes one selector and turns any failure into an empty result
func (r *Runner) execute(ctx context.Context, log *logger.Logger, inst *selector.Instance, date time.Time, view *contracts.DatasetView, timeout time.Duration) contracts.RunResult {
	result := contracts.RunResult{
		Alias:     inst.Alias,
		Type:      inst.Type,
		TradeDate: date,
		Picks:     []string{},
	}

	picks, err := invoke(ctx, inst.Selector, date, view, timeout)
	if err != nil {
		result.Error = err.Error()
		log.WithFields(map[string]interface{}{
			"alias": inst.Alias,
			"type":  inst.Type,
		}).WithError(err).Error("Selector failed")
		return result
	}

	if picks != nil {
		result.Picks = append(result.Picks, picks...)
	}
	return result
}

// ErrSelectorTimeout is returned when a selector exceeds its time limit
var ErrSelectorTimeout = errors.New("selector timed out")

// invoke runs a selector, recovering panics. With a positive timeout the
// selector runs in its own goroutine; a selector that ignores its context
// keeps running in the background after the timeout.
func invoke(ctx context.Context, sel contracts.Selector, date time.Time, view *contracts.DatasetView, timeout time.Duration) ([]string, error) {
	if timeout <= 0 {
		return safeSelect(ctx, sel, date, view)
	}

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type outcome struct {
		picks []string
		err   error
	}
	done := make(chan outcome, 1)

	go func() {
		picks, err := safeSelect(ctx, sel, date, view)
		done <- outcome{picks: picks, err: err}
	}()

	select {
	case o := <-done:
		return o.picks, o.err
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w after %s", ErrSelectorTimeout, timeout)
		}
		return nil, ctx.Err()
	}
}

func safeSelect(ctx context.Context, sel contracts.Selector, date time.Time, view *contracts.DatasetView) (picks []string, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			picks = nil
			err = fmt.Errorf("selector panicked: %v", rec)
		}
	}()

	return sel.Select(ctx, date, view)
}
