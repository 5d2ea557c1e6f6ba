package jobs

import (
	"context"
	"fmt"
	"sync"

	"github.com/wonny/stockpick/internal/selection"
	"github.com/wonny/stockpick/pkg/logger"
)

// SelectionRunner runs one selection
type SelectionRunner interface {
	Run(ctx context.Context, opts selection.Options) (*selection.RunSummary, error)
}

// SelectionJob runs the configured selectors on a schedule.
// The trade date is always resolved from the data at run time.
// ⭐ SSOT: 정기 선택 실행은 이 Job에서만
type SelectionJob struct {
	runner   SelectionRunner
	opts     selection.Options
	schedule string
	logger   *logger.Logger

	mu   sync.Mutex
	last *selection.RunSummary
}

// NewSelectionJob creates a new selection job
func NewSelectionJob(runner SelectionRunner, opts selection.Options, schedule string, log *logger.Logger) *SelectionJob {
	opts.Date = ""
	return &SelectionJob{
		runner:   runner,
		opts:     opts,
		schedule: schedule,
		logger:   log,
	}
}

// Name returns the job name
func (j *SelectionJob) Name() string {
	return "stock_selection"
}

// Schedule returns the cron schedule (with seconds)
func (j *SelectionJob) Schedule() string {
	return j.schedule
}

// Run executes one selection run
func (j *SelectionJob) Run(ctx context.Context) error {
	j.logger.Info("Starting scheduled selection")

	summary, err := j.runner.Run(ctx, j.opts)
	if err != nil {
		return fmt.Errorf("selection run: %w", err)
	}

	j.mu.Lock()
	j.last = summary
	j.mu.Unlock()

	picks := 0
	for _, r := range summary.Results {
		picks += len(r.Picks)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":     summary.RunID,
		"trade_date": summary.TradeDate.Format("2006-01-02"),
		"selectors":  len(summary.Results),
		"failures":   len(summary.Failures),
		"picks":      picks,
	}).Info("Scheduled selection completed")

	return nil
}

// LastSummary returns the summary of the latest successful run
func (j *SelectionJob) LastSummary() *selection.RunSummary {
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.last
}
