package selection

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/stockpick/internal/contracts"
)

func newTestRepository(t *testing.T) *Repository {
	t.Helper()

	url := os.Getenv("TEST_DATABASE_URL")
	if url == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	pool, err := pgxpool.New(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewRepository(pool)
	require.NoError(t, repo.EnsureSchema(context.Background()))
	return repo
}

func TestRepository_SaveAndGetPicks(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	date := time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC)
	alias := "test-" + uuid.NewString()[:8]

	summary := &RunSummary{
		RunID:      uuid.NewString(),
		StartedAt:  time.Now(),
		FinishedAt: time.Now(),
		TradeDate:  date,
		ConfigPath: "configs.json",
		ConfigHash: "abc",
		Requested:  3,
		Loaded:     2,
		Results: []contracts.RunResult{
			{Alias: alias, Type: "Momentum", TradeDate: date, Picks: []string{"A", "B"}},
			{Alias: alias + "-failed", Type: "Fails", TradeDate: date, Error: "boom"},
		},
	}

	require.NoError(t, repo.SaveRun(ctx, summary))

	picks, err := repo.GetPicks(ctx, date, alias)
	require.NoError(t, err)
	require.Len(t, picks, 1)
	assert.Equal(t, summary.RunID, picks[0].RunID)
	assert.Equal(t, []string{"A", "B"}, picks[0].Picks)

	failed, err := repo.GetPicks(ctx, date, alias+"-failed")
	require.NoError(t, err)
	require.Len(t, failed, 1)
	assert.Empty(t, failed[0].Picks)
	assert.Equal(t, "boom", failed[0].Error)

	runs, err := repo.ListRuns(ctx, 50)
	require.NoError(t, err)

	found := false
	for _, r := range runs {
		if r.RunID == summary.RunID {
			found = true
			assert.Equal(t, 2, r.Loaded)
		}
	}
	assert.True(t, found)
}
