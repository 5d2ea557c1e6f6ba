package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
	"github.com/wonny/stockpick/internal/selection"
	"github.com/wonny/stockpick/pkg/logger"
)

type stubRunner struct {
	got     selection.Options
	summary *selection.RunSummary
	err     error
}

func (r *stubRunner) Run(ctx context.Context, opts selection.Options) (*selection.RunSummary, error) {
	r.got = opts
	return r.summary, r.err
}

func TestSelectionJob_Run(t *testing.T) {
	runner := &stubRunner{summary: &selection.RunSummary{
		RunID:     "run-1",
		TradeDate: time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC),
		Results:   []contracts.RunResult{{Alias: "mom", Picks: []string{"A"}}},
	}}

	opts := selection.Options{DataDir: "./data", ConfigPath: "./configs.json", Date: "2020-01-01", Export: true}
	job := NewSelectionJob(runner, opts, "0 30 16 * * 1-5", logger.Nop())

	assert.Equal(t, "stock_selection", job.Name())
	assert.Equal(t, "0 30 16 * * 1-5", job.Schedule())
	assert.Nil(t, job.LastSummary())

	require.NoError(t, job.Run(context.Background()))

	assert.Empty(t, runner.got.Date, "scheduled runs always use the latest data date")
	assert.True(t, runner.got.Export)
	assert.Equal(t, "run-1", job.LastSummary().RunID)
}

func TestSelectionJob_RunError(t *testing.T) {
	runner := &stubRunner{err: errors.New("no data")}
	job := NewSelectionJob(runner, selection.Options{}, "@daily", logger.Nop())

	err := job.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no data")
	assert.Nil(t, job.LastSummary())
}
